package schema

import (
	"github.com/ethereum/go-ethereum/common"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/molecule"
)

// Hash is a 32 byte hash, either carried inline or referenced from a cell or
// from the transaction
type Hash interface {
	hashVariant() string
}

// Byte32 is an inline hash
type Byte32 common.Hash

// RefCell points at 32 bytes of cell data: cell index within a source, at a byte offset
type RefCell struct {
	Source uint64
	Index  uint32
	Offset uint32
}

// RefTransaction points at 32 bytes of the serialized transaction
type RefTransaction struct {
	Offset uint32
}

func (Byte32) hashVariant() string         { return "Byte32" }
func (RefCell) hashVariant() string        { return "RefCell" }
func (RefTransaction) hashVariant() string { return "RefTransaction" }

// HashUnion is the Molecule union over the Hash variants
var HashUnion = molecule.NewUnion[Hash]("Hash",
	molecule.Variant[Hash]{
		Name: "Byte32", ID: 0,
		Pack: func(h Hash) ([]byte, error) {
			b, ok := h.(Byte32)
			if !ok {
				return nil, variantMismatch("Byte32", h)
			}
			return append([]byte(nil), b[:]...), nil
		},
		Unpack: func(data []byte) (Hash, error) {
			raw, err := molecule.UnpackArray(data, common.HashLength)
			if err != nil {
				return nil, err
			}
			return Byte32(common.BytesToHash(raw)), nil
		},
	},
	molecule.Variant[Hash]{
		Name: "RefCell", ID: 1,
		Pack: func(h Hash) ([]byte, error) {
			r, ok := h.(RefCell)
			if !ok {
				return nil, variantMismatch("RefCell", h)
			}
			return molecule.PackStruct(molecule.PackUint64(r.Source), molecule.PackUint32(r.Index), molecule.PackUint32(r.Offset)), nil
		},
		Unpack: func(data []byte) (Hash, error) {
			fields, err := molecule.UnpackStruct(data, 8, 4, 4)
			if err != nil {
				return nil, err
			}
			source, _ := molecule.UnpackUint64(fields[0])
			index, _ := molecule.UnpackUint32(fields[1])
			offset, _ := molecule.UnpackUint32(fields[2])
			return RefCell{Source: source, Index: index, Offset: offset}, nil
		},
	},
	molecule.Variant[Hash]{
		Name: "RefTransaction", ID: 2,
		Pack: func(h Hash) ([]byte, error) {
			r, ok := h.(RefTransaction)
			if !ok {
				return nil, variantMismatch("RefTransaction", h)
			}
			return molecule.PackUint32(r.Offset), nil
		},
		Unpack: func(data []byte) (Hash, error) {
			offset, err := molecule.UnpackUint32(data)
			if err != nil {
				return nil, err
			}
			return RefTransaction{Offset: offset}, nil
		},
	},
)

// MarshalHash encodes a Hash union
func MarshalHash(h Hash) ([]byte, error) {
	if h == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil Hash")
	}
	switch h.(type) {
	case Byte32, RefCell, RefTransaction:
	default:
		return nil, variantMismatch("Hash", h)
	}
	return HashUnion.Pack(h.hashVariant(), h)
}

// variantMismatch reports a union item whose Go type does not belong to the variant
func variantMismatch(variant string, got interface{}) error {
	return typedwitness.Errorf(typedwitness.KindTypeTagMismatch, "%s cannot carry a %T", variant, got)
}

// UnmarshalHash decodes a Hash union
func UnmarshalHash(data []byte) (Hash, error) {
	_, h, err := HashUnion.Unpack(data)
	return h, err
}
