package hashing_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/stretchr/testify/require"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/shared"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

func TestHashType(t *testing.T) {
	reg := shared.MailTypes()
	h, err := hashing.Keccak{}.HashType("Person", reg)
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash([]byte("Person(string name,address wallet)")), h)

	h, err = hashing.Keccak{}.HashType("Mail", reg)
	require.NoError(t, err)
	require.Equal(t, shared.MailTypeHash, h)

	_, err = hashing.Keccak{}.HashType("Cow", reg)
	require.True(t, errors.Is(err, typedwitness.ErrUnknownType))
}

func TestHashDomain(t *testing.T) {
	h, err := hashing.Keccak{}.HashDomain(shared.MailDomain(), shared.MailTypes())
	require.NoError(t, err)
	require.Equal(t, shared.MailDomainSeparator, h)

	// without an EIP712Domain declaration the fields are derived from the domain
	reg := shared.MailTypes()
	delete(reg, typestr.DomainType)
	h, err = hashing.Keccak{}.HashDomain(shared.MailDomain(), reg)
	require.NoError(t, err)
	require.Equal(t, shared.MailDomainSeparator, h)
}

func TestDomainFields(t *testing.T) {
	domain, err := qp.BuildMap(basicnode.Prototype.Any, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "chainId", qp.Int(5))
		qp.MapEntry(ma, "name", qp.String("x"))
	})
	require.NoError(t, err)
	fields, err := hashing.DomainFields(domain, typestr.Registry{})
	require.NoError(t, err)
	require.Equal(t, []typestr.Field{{Name: "name", Type: "string"}, {Name: "chainId", Type: "uint256"}}, fields)
}

func TestSigningHash(t *testing.T) {
	reg := shared.MailTypes()
	msgHash, err := hashing.HashStruct(reg, "Mail", shared.MailMessage())
	require.NoError(t, err)
	require.Equal(t, shared.MailMessageHash, msgHash)
	require.Equal(t, shared.MailSigningHash, hashing.SigningHash(shared.MailDomainSeparator, msgHash))
}

func TestVerifyTypeHash(t *testing.T) {
	reg := shared.MailTypes()
	embedded, err := hashing.EmbedTypeHash(hashing.Keccak{}, reg, "Mail")
	require.NoError(t, err)
	require.NoError(t, hashing.VerifyTypeHash(hashing.Keccak{}, reg, "Mail", embedded))

	err = hashing.VerifyTypeHash(hashing.Keccak{}, reg, "Person", embedded)
	require.True(t, errors.Is(err, typedwitness.ErrTypeHashMismatch))

	// referenced hashes are not compared here
	require.NoError(t, hashing.VerifyTypeHash(hashing.Keccak{}, reg, "Person", schema.RefTransaction{Offset: 1}))
}

func TestVerifyDomainHash(t *testing.T) {
	reg := shared.MailTypes()
	require.NoError(t, hashing.VerifyDomainHash(hashing.Keccak{}, reg, shared.MailDomain(), schema.Byte32(shared.MailDomainSeparator)))

	err := hashing.VerifyDomainHash(hashing.Keccak{}, reg, shared.MailDomain(), schema.Byte32(common.Hash{1}))
	require.True(t, errors.Is(err, typedwitness.ErrDomainHashMismatch))

	require.NoError(t, hashing.VerifyDomainHash(hashing.Keccak{}, reg, shared.MailDomain(), schema.RefCell{Source: 3}))
}

const personType = "Person(string name,address wallet)"

// personHash hashes a Person by hand
func personHash(name string, wallet common.Address) []byte {
	return crypto.Keccak256(
		crypto.Keccak256([]byte(personType)),
		crypto.Keccak256([]byte(name)),
		common.LeftPadBytes(wallet.Bytes(), 32),
	)
}

func arrayRegistry() typestr.Registry {
	reg := shared.MailTypes()
	reg["Group"] = []typestr.Field{{Name: "members", Type: "Person[2]"}}
	reg["Grid"] = []typestr.Field{{Name: "cells", Type: "Person[][]"}}
	return reg
}

func TestHashTypeThroughArrays(t *testing.T) {
	reg := arrayRegistry()
	for name, encodeType := range map[string]string{
		"Group": "Group(Person[2] members)" + personType,
		"Grid":  "Grid(Person[][] cells)" + personType,
		"Mail":  "Mail(Person from,Person to,string contents)" + personType,
	} {
		enc, err := hashing.EncodeType(reg, name)
		require.NoError(t, err)
		require.Equal(t, encodeType, enc)

		h, err := hashing.Keccak{}.HashType(name, reg)
		require.NoError(t, err)
		require.Equal(t, crypto.Keccak256Hash([]byte(encodeType)), h, name)
	}
}

func TestHashStructThroughArrays(t *testing.T) {
	reg := arrayRegistry()
	cow := common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
	bob := common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")

	group, err := qp.BuildMap(basicnode.Prototype.Any, 1, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "members", qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Node(shared.PersonNode("Cow", cow)))
			qp.ListEntry(la, qp.Node(shared.PersonNode("Bob", bob)))
		}))
	})
	require.NoError(t, err)
	want := crypto.Keccak256Hash(
		crypto.Keccak256([]byte("Group(Person[2] members)"+personType)),
		crypto.Keccak256(personHash("Cow", cow), personHash("Bob", bob)),
	)
	got, err := hashing.HashStruct(reg, "Group", group)
	require.NoError(t, err)
	require.Equal(t, want, got)

	grid, err := qp.BuildMap(basicnode.Prototype.Any, 1, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "cells", qp.List(3, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.List(1, func(row datamodel.ListAssembler) {
				qp.ListEntry(row, qp.Node(shared.PersonNode("Cow", cow)))
			}))
			qp.ListEntry(la, qp.List(0, func(datamodel.ListAssembler) {}))
			qp.ListEntry(la, qp.List(2, func(row datamodel.ListAssembler) {
				qp.ListEntry(row, qp.Node(shared.PersonNode("Bob", bob)))
				qp.ListEntry(row, qp.Node(shared.PersonNode("Cow", cow)))
			}))
		}))
	})
	require.NoError(t, err)
	want = crypto.Keccak256Hash(
		crypto.Keccak256([]byte("Grid(Person[][] cells)"+personType)),
		crypto.Keccak256(
			crypto.Keccak256(personHash("Cow", cow)),
			crypto.Keccak256(),
			crypto.Keccak256(personHash("Bob", bob), personHash("Cow", cow)),
		),
	)
	got, err = hashing.HashStruct(reg, "Grid", grid)
	require.NoError(t, err)
	require.Equal(t, want, got)

	short, err := qp.BuildMap(basicnode.Prototype.Any, 1, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "members", qp.List(1, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Node(shared.PersonNode("Cow", cow)))
		}))
	})
	require.NoError(t, err)
	_, err = hashing.HashStruct(reg, "Group", short)
	require.True(t, errors.Is(err, typedwitness.ErrArrayLengthMismatch))
}

func TestDependencies(t *testing.T) {
	reg := shared.MailTypes()
	reg["Unrelated"] = []typestr.Field{{Name: "xs", Type: "uint8[2]"}}

	deps, err := hashing.Dependencies(reg, "Mail")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Mail", "Person"}, deps.Names())

	// unrelated fixed-size arrays do not get in the way of hashing
	h, err := hashing.HashStruct(reg, "Mail", shared.MailMessage())
	require.NoError(t, err)
	require.Equal(t, shared.MailMessageHash, h)

	_, err = hashing.Dependencies(reg, "Cow")
	require.True(t, errors.Is(err, typedwitness.ErrUnknownType))
}
