package typeddata_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/stretchr/testify/require"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/shared"
	"github.com/vulcanize/go-codec-typedwitness/typeddata"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

const mailJSON = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "Person": [
      {"name": "name", "type": "string"},
      {"name": "wallet", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "Person"},
      {"name": "to", "type": "Person"},
      {"name": "contents", "type": "string"}
    ]
  },
  "primaryType": "Mail",
  "domain": {
    "name": "Ether Mail",
    "version": "1",
    "chainId": 1,
    "verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
  },
  "message": {
    "from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
    "to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
    "contents": "Hello, Bob!"
  }
}`

func TestParseMail(t *testing.T) {
	td, err := typeddata.Parse(strings.NewReader(mailJSON))
	require.NoError(t, err)
	require.Equal(t, "Mail", td.PrimaryType)
	require.Equal(t, shared.MailTypes(), td.Types)
	require.NotNil(t, td.Domain)
	require.Equal(t, datamodel.Kind_Map, td.Message.Kind())
	require.NoError(t, td.Validate(nil))

	sep, err := td.DomainSeparator(nil)
	require.NoError(t, err)
	require.Equal(t, shared.MailDomainSeparator, sep)

	h, err := td.SigningHash()
	require.NoError(t, err)
	require.Equal(t, shared.MailSigningHash, h)

	fields, err := td.DomainFields()
	require.NoError(t, err)
	require.Len(t, fields, 4)
}

func TestEncodeRoundTrip(t *testing.T) {
	td, err := typeddata.ParseBytes([]byte(mailJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, td.Encode(&buf))
	back, err := typeddata.Parse(&buf)
	require.NoError(t, err)
	require.Equal(t, td.Types, back.Types)
	require.Equal(t, td.PrimaryType, back.PrimaryType)
	require.Equal(t, jsonOf(t, td.Message), jsonOf(t, back.Message))
	require.Equal(t, jsonOf(t, td.Domain), jsonOf(t, back.Domain))
}

// jsonOf renders a node as dag-json, which sorts map keys
func jsonOf(t *testing.T, n datamodel.Node) string {
	var buf bytes.Buffer
	require.NoError(t, dagjson.Encode(n, &buf))
	return buf.String()
}

func TestOptionalDomain(t *testing.T) {
	td, err := typeddata.ParseBytes([]byte(`{"types": {"Person": [{"name": "name", "type": "string"}]}, "primaryType": "Person", "message": {"name": "Cow"}}`))
	require.NoError(t, err)
	require.Nil(t, td.Domain)
	_, err = td.DomainSeparator(nil)
	require.True(t, errors.Is(err, typedwitness.ErrValueRange))
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		`not json`,
		`[]`,
		`{"primaryType": "Mail", "message": {}}`,
		`{"types": {}, "message": {}}`,
		`{"types": {"Person": [{"name": "name"}]}, "primaryType": "Person", "message": {}}`,
		`{"types": {"Person": {}}, "primaryType": "Person", "message": {}}`,
		`{"types": {}, "primaryType": "Person"}`,
	}
	for _, c := range cases {
		_, err := typeddata.ParseBytes([]byte(c))
		require.Truef(t, errors.Is(err, typedwitness.ErrParse), "%s: %v", c, err)
	}
}

func TestValidate(t *testing.T) {
	td := &typeddata.TypedData{Types: shared.MailTypes(), PrimaryType: "Letter"}
	require.True(t, errors.Is(td.Validate(nil), typedwitness.ErrUnknownType))

	td.PrimaryType = "Mail"
	td.Types["Mail"] = append(td.Types["Mail"], typestr.Field{Name: "cc", Type: "Person[abc]"})
	require.NoError(t, td.Validate(nil))
	require.True(t, errors.Is(td.Validate(typestr.NewParser(typestr.StrictArrayLength)), typedwitness.ErrParse))
}
