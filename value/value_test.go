package value_test

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
	"github.com/vulcanize/go-codec-typedwitness/value"
)

var (
	cow = common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")

	numberTypes = typestr.Registry{
		"Numbers": {
			{Name: "a", Type: "uint8"},
			{Name: "b", Type: "int16"},
			{Name: "c", Type: "uint256"},
			{Name: "d", Type: "int64"},
		},
		"Pair": {
			{Name: "xs", Type: "uint8[2]"},
			{Name: "tag", Type: "bytes4"},
			{Name: "blob", Type: "bytes"},
			{Name: "ok", Type: "bool"},
		},
	}
)

func buildMap(t *testing.T, fn func(ma datamodel.MapAssembler)) datamodel.Node {
	n, err := qp.BuildMap(basicnode.Prototype.Any, -1, fn)
	require.NoError(t, err)
	return n
}

func buildList(t *testing.T, fn func(la datamodel.ListAssembler)) datamodel.Node {
	n, err := qp.BuildList(basicnode.Prototype.Any, -1, fn)
	require.NoError(t, err)
	return n
}

func TestPersonEndToEnd(t *testing.T) {
	codec := value.NewCodec(shared.MailTypes(), nil, value.DefaultOptions())
	person := shared.PersonNode("Cow", cow)

	v, err := codec.Encode("Person", person)
	require.NoError(t, err)
	s, ok := v.(*schema.Struct)
	require.True(t, ok)
	require.Equal(t, schema.Byte32(crypto.Keccak256Hash([]byte("Person(string name,address wallet)"))), s.TypeHash)
	require.Len(t, s.Values, 2)
	require.Equal(t, schema.String("Cow"), s.Values[0])
	require.Equal(t, schema.Address(cow), s.Values[1])

	wire, err := schema.MarshalValue(v)
	require.NoError(t, err)
	back, err := schema.UnmarshalValue(wire)
	require.NoError(t, err)

	out, err := codec.DecodeNode("Person", back)
	require.NoError(t, err)
	require.True(t, datamodel.DeepEqual(person, out))
}

func TestMailRoundTrip(t *testing.T) {
	codec := value.NewCodec(shared.MailTypes(), hashing.Keccak{}, value.DefaultOptions())
	s, err := codec.EncodeStruct("Mail", shared.MailMessage())
	require.NoError(t, err)
	require.Equal(t, schema.Byte32(shared.MailTypeHash), s.TypeHash)
	from, ok := s.Values[0].(*schema.Struct)
	require.True(t, ok)
	require.Equal(t, schema.String("Cow"), from.Values[0])

	wire, err := schema.MarshalStruct(s)
	require.NoError(t, err)
	back, err := schema.UnmarshalStruct(wire)
	require.NoError(t, err)

	nb := basicnode.Prototype.Any.NewBuilder()
	require.NoError(t, codec.DecodeStruct("Mail", back, nb))
	require.True(t, datamodel.DeepEqual(shared.MailMessage(), nb.Build()))
}

func TestIntegerWidths(t *testing.T) {
	codec := value.NewCodec(numberTypes, nil, value.DefaultOptions())
	in := buildMap(t, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "a", qp.Int(255))
		qp.MapEntry(ma, "b", qp.Int(-2))
		qp.MapEntry(ma, "c", qp.String("1000"))
		qp.MapEntry(ma, "d", qp.String("-5"))
	})
	v, err := codec.Encode("Numbers", in)
	require.NoError(t, err)
	s := v.(*schema.Struct)
	require.Equal(t, schema.Uint{0xff}, s.Values[0])
	require.Equal(t, schema.Int{0xff, 0xfe}, s.Values[1])
	require.Len(t, s.Values[2], 32)
	require.Equal(t, schema.Int{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfb}, s.Values[3])

	out, err := codec.DecodeNode("Numbers", v)
	require.NoError(t, err)
	a, err := out.LookupByString("a")
	require.NoError(t, err)
	require.Equal(t, datamodel.Kind_Int, a.Kind())
	b, err := out.LookupByString("b")
	require.NoError(t, err)
	bi, err := b.AsInt()
	require.NoError(t, err)
	require.EqualValues(t, -2, bi)
	c, err := out.LookupByString("c")
	require.NoError(t, err)
	cs, err := c.AsString()
	require.NoError(t, err)
	require.Equal(t, "1000", cs)
	d, err := out.LookupByString("d")
	require.NoError(t, err)
	ds, err := d.AsString()
	require.NoError(t, err)
	require.Equal(t, "-5", ds)
}

func TestValueRange(t *testing.T) {
	cases := []struct {
		typ  string
		node datamodel.Node
	}{
		{"uint8", basicnode.NewInt(256)},
		{"uint8", basicnode.NewInt(-1)},
		{"int8", basicnode.NewInt(-129)},
		{"int8", basicnode.NewInt(128)},
		{"uint256", basicnode.NewString("not a number")},
		{"address", basicnode.NewBytes(make([]byte, 19))},
		{"bytes4", basicnode.NewBytes([]byte{1, 2, 3})},
		{"bool", basicnode.NewString("true")},
		{"string", basicnode.NewInt(1)},
	}
	for _, c := range cases {
		_, err := value.Encode(numberTypes, nil, c.typ, c.node)
		require.Truef(t, errors.Is(err, typedwitness.ErrValueRange), "%s: %v", c.typ, err)
	}
}

func TestHexStringBytes(t *testing.T) {
	v, err := value.Encode(numberTypes, nil, "bytes4", basicnode.NewString("0xdeadbeef"))
	require.NoError(t, err)
	require.Equal(t, schema.FixedBytes{0xde, 0xad, 0xbe, 0xef}, v)

	v, err = value.Encode(numberTypes, nil, "address", basicnode.NewString(cow.Hex()))
	require.NoError(t, err)
	require.Equal(t, schema.Address(cow), v)
}

func TestStructFieldSet(t *testing.T) {
	reg := shared.MailTypes()
	missing := buildMap(t, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "name", qp.String("Cow"))
	})
	_, err := value.Encode(reg, nil, "Person", missing)
	require.True(t, errors.Is(err, typedwitness.ErrStructFieldMismatch))
	require.Contains(t, err.Error(), "wallet")

	extra := buildMap(t, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "name", qp.String("Cow"))
		qp.MapEntry(ma, "wallet", qp.Bytes(cow.Bytes()))
		qp.MapEntry(ma, "age", qp.Int(3))
	})
	_, err = value.Encode(reg, nil, "Person", extra)
	require.True(t, errors.Is(err, typedwitness.ErrStructFieldMismatch))
	require.Contains(t, err.Error(), "age")

	// field order in the map does not matter
	reordered := buildMap(t, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "wallet", qp.Bytes(cow.Bytes()))
		qp.MapEntry(ma, "name", qp.String("Cow"))
	})
	v, err := value.Encode(reg, nil, "Person", reordered)
	require.NoError(t, err)
	require.Equal(t, schema.String("Cow"), v.(*schema.Struct).Values[0])

	short := &schema.Struct{TypeHash: v.(*schema.Struct).TypeHash, Values: v.(*schema.Struct).Values[:1]}
	err = value.Decode(reg, nil, "Person", short, basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrStructFieldMismatch))
}

func TestFixedArrayLength(t *testing.T) {
	three := buildList(t, func(la datamodel.ListAssembler) {
		qp.ListEntry(la, qp.Int(1))
		qp.ListEntry(la, qp.Int(2))
		qp.ListEntry(la, qp.Int(3))
	})
	_, err := value.Encode(numberTypes, nil, "uint8[2]", three)
	require.True(t, errors.Is(err, typedwitness.ErrArrayLengthMismatch))

	v, err := value.Encode(numberTypes, nil, "uint8[]", three)
	require.NoError(t, err)
	require.Len(t, v.(*schema.Array).Values, 3)

	err = value.Decode(numberTypes, nil, "uint8[2]", v, basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrArrayLengthMismatch))

	nb := basicnode.Prototype.Any.NewBuilder()
	require.NoError(t, value.Decode(numberTypes, nil, "uint8[3]", v, nb))
	require.True(t, datamodel.DeepEqual(three, nb.Build()))
}

func TestNestedArrayPath(t *testing.T) {
	pair := buildMap(t, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "xs", qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Int(1))
			qp.ListEntry(la, qp.Int(300))
		}))
		qp.MapEntry(ma, "tag", qp.Bytes([]byte{1, 2, 3, 4}))
		qp.MapEntry(ma, "blob", qp.Bytes(nil))
		qp.MapEntry(ma, "ok", qp.Bool(true))
	})
	_, err := value.Encode(numberTypes, nil, "Pair", pair)
	require.True(t, errors.Is(err, typedwitness.ErrValueRange))
	var e *typedwitness.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, []string{"xs", "1"}, e.Path)
}

func TestArrayLengthPolicy(t *testing.T) {
	list := buildList(t, func(la datamodel.ListAssembler) {
		qp.ListEntry(la, qp.Bool(true))
	})
	v, err := value.NewCodec(numberTypes, nil, value.DefaultOptions()).Encode("bool[abc]", list)
	require.NoError(t, err)
	require.Equal(t, &schema.Array{Values: []schema.Value{schema.Bool(true)}}, v)

	strict := value.Options{ArrayLength: typestr.StrictArrayLength}
	_, err = value.NewCodec(numberTypes, nil, strict).Encode("bool[abc]", list)
	require.True(t, errors.Is(err, typedwitness.ErrParse))
}

func TestTypeTagMismatch(t *testing.T) {
	err := value.Decode(numberTypes, nil, "uint64", schema.Int(make([]byte, 8)), basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrTypeTagMismatch))

	err = value.Decode(numberTypes, nil, "Numbers", &schema.Array{}, basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrTypeTagMismatch))

	err = value.Decode(numberTypes, nil, "uint8[]", schema.Bool(true), basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrTypeTagMismatch))
}

func TestTypeHashCheck(t *testing.T) {
	reg := shared.MailTypes()
	v, err := value.Encode(reg, nil, "Person", shared.PersonNode("Cow", cow))
	require.NoError(t, err)
	s := v.(*schema.Struct)

	tampered := &schema.Struct{TypeHash: schema.Byte32(shared.RandomHash()), Values: s.Values}
	err = value.Decode(reg, nil, "Person", tampered, basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrTypeHashMismatch))

	// referenced hashes are not compared
	ref := &schema.Struct{TypeHash: schema.RefCell{Source: 1, Index: 2, Offset: 3}, Values: s.Values}
	require.NoError(t, value.Decode(reg, nil, "Person", ref, basicnode.Prototype.Any.NewBuilder()))
}

func TestUnknownType(t *testing.T) {
	_, err := value.Encode(shared.MailTypes(), nil, "Cow", shared.PersonNode("Cow", cow))
	require.True(t, errors.Is(err, typedwitness.ErrUnknownType))

	err = value.Decode(shared.MailTypes(), nil, "Cow", &schema.Struct{}, basicnode.Prototype.Any.NewBuilder())
	require.True(t, errors.Is(err, typedwitness.ErrUnknownType))
}
