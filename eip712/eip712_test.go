package eip712_test

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
	"github.com/vulcanize/go-codec-typedwitness/eip712"
	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/shared"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
	"github.com/vulcanize/go-codec-typedwitness/value"
)

// resolver serves fixed bytes for every reference
type resolver struct {
	cell []byte
	tx   []byte
}

func (r resolver) ResolveCell(schema.RefCell) ([]byte, error) { return r.cell, nil }

func (r resolver) ResolveTransaction(schema.RefTransaction) ([]byte, error) { return r.tx, nil }

func mailStruct(t *testing.T) *schema.Struct {
	s, err := value.NewCodec(shared.MailTypes(), nil, value.DefaultOptions()).EncodeStruct("Mail", shared.MailMessage())
	require.NoError(t, err)
	return s
}

func TestMailSigningHash(t *testing.T) {
	s := mailStruct(t)
	msgHash, err := eip712.HashStruct(s, nil)
	require.NoError(t, err)
	require.Equal(t, shared.MailMessageHash, msgHash)

	msg := &schema.EIP712{DomainSeparator: schema.Byte32(shared.MailDomainSeparator), Message: s}
	h, err := eip712.SigningHash(msg, nil)
	require.NoError(t, err)
	require.Equal(t, shared.MailSigningHash, h)

	// the hash survives the wire round trip
	wire, err := schema.MarshalTypedMessage(msg)
	require.NoError(t, err)
	back, err := schema.UnmarshalTypedMessage(wire)
	require.NoError(t, err)
	h, err = eip712.SigningHash(back, nil)
	require.NoError(t, err)
	require.Equal(t, shared.MailSigningHash, h)
}

func TestMatchesRegistryHash(t *testing.T) {
	reg := typestr.Registry{
		"Item": {
			{Name: "id", Type: "uint64"},
			{Name: "delta", Type: "int16"},
			{Name: "tag", Type: "bytes4"},
			{Name: "ok", Type: "bool"},
			{Name: "note", Type: "bytes"},
		},
		"Order": {
			{Name: "items", Type: "Item[]"},
			{Name: "owners", Type: "address[]"},
			{Name: "total", Type: "uint256"},
			{Name: "memo", Type: "string"},
		},
	}
	item := func(id int64, delta int64, ok bool) qp.Assemble {
		return qp.Map(5, func(ma datamodel.MapAssembler) {
			qp.MapEntry(ma, "id", qp.Int(id))
			qp.MapEntry(ma, "delta", qp.Int(delta))
			qp.MapEntry(ma, "tag", qp.Bytes([]byte{0xca, 0xfe, 0xba, 0xbe}))
			qp.MapEntry(ma, "ok", qp.Bool(ok))
			qp.MapEntry(ma, "note", qp.Bytes(shared.RandomBytes(40)))
		})
	}
	order, err := qp.BuildMap(basicnode.Prototype.Any, 4, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "items", qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, item(1, -300, true))
			qp.ListEntry(la, item(2, 7, false))
		}))
		qp.MapEntry(ma, "owners", qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Bytes(shared.RandomAddr().Bytes()))
			qp.ListEntry(la, qp.Bytes(shared.RandomAddr().Bytes()))
		}))
		qp.MapEntry(ma, "total", qp.String("115792089237316195423570985008687907853269984665640564039457584007913129639935"))
		qp.MapEntry(ma, "memo", qp.String("two items"))
	})
	require.NoError(t, err)

	want, err := hashing.HashStruct(reg, "Order", order)
	require.NoError(t, err)

	s, err := value.NewCodec(reg, nil, value.DefaultOptions()).EncodeStruct("Order", order)
	require.NoError(t, err)
	got, err := eip712.HashStruct(s, nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestNestedArrayStructs(t *testing.T) {
	reg := shared.MailTypes()
	reg["Group"] = []typestr.Field{{Name: "members", Type: "Person[2]"}, {Name: "rows", Type: "Person[][]"}}
	cow := shared.PersonNode("Cow", shared.RandomAddr())
	bob := shared.PersonNode("Bob", shared.RandomAddr())
	group, err := qp.BuildMap(basicnode.Prototype.Any, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "members", qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Node(cow))
			qp.ListEntry(la, qp.Node(bob))
		}))
		qp.MapEntry(ma, "rows", qp.List(1, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.List(2, func(row datamodel.ListAssembler) {
				qp.ListEntry(row, qp.Node(bob))
				qp.ListEntry(row, qp.Node(cow))
			}))
		}))
	})
	require.NoError(t, err)

	s, err := value.NewCodec(reg, nil, value.DefaultOptions()).EncodeStruct("Group", group)
	require.NoError(t, err)
	wantType := crypto.Keccak256Hash([]byte("Group(Person[2] members,Person[][] rows)Person(string name,address wallet)"))
	require.Equal(t, schema.Byte32(wantType), s.TypeHash)

	want, err := hashing.HashStruct(reg, "Group", group)
	require.NoError(t, err)
	got, err := eip712.HashStruct(s, nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReferencedHashes(t *testing.T) {
	s := mailStruct(t)
	ref := &schema.Struct{TypeHash: schema.RefCell{Source: 1, Index: 0, Offset: 8}, Values: s.Values}
	msg := &schema.EIP712{DomainSeparator: schema.RefTransaction{Offset: 64}, Message: ref}

	r := resolver{
		cell: append(shared.MailTypeHash.Bytes(), 0xff),
		tx:   shared.MailDomainSeparator.Bytes(),
	}
	h, err := eip712.SigningHash(msg, r)
	require.NoError(t, err)
	require.Equal(t, shared.MailSigningHash, h)

	_, err = eip712.SigningHash(msg, nil)
	require.True(t, errors.Is(err, typedwitness.ErrMalformedInput))

	_, err = eip712.SigningHash(msg, resolver{cell: shared.MailTypeHash.Bytes(), tx: []byte{1, 2, 3}})
	require.True(t, errors.Is(err, typedwitness.ErrMalformedInput))
}

func TestInvalidWireValues(t *testing.T) {
	typeHash := schema.Byte32(common.Hash{1})
	_, err := eip712.HashStruct(&schema.Struct{TypeHash: typeHash, Values: []schema.Value{schema.FixedBytes(make([]byte, 33))}}, nil)
	require.True(t, errors.Is(err, typedwitness.ErrMalformedInput))

	_, err = eip712.HashStruct(&schema.Struct{TypeHash: typeHash, Values: []schema.Value{schema.Uint(make([]byte, 33))}}, nil)
	require.True(t, errors.Is(err, typedwitness.ErrMalformedInput))

	_, err = eip712.HashStruct(nil, nil)
	require.True(t, errors.Is(err, typedwitness.ErrMalformedInput))

	_, err = eip712.SigningHash(nil, nil)
	require.True(t, errors.Is(err, typedwitness.ErrUnknownVariant))
}
