package hashing

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/datamodel"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

// EmbedTypeHash returns the inline wire hash of a struct type
func EmbedTypeHash(h Hasher, reg typestr.Registry, typeName string) (schema.Hash, error) {
	sum, err := h.HashType(typeName, reg)
	if err != nil {
		return nil, err
	}
	return schema.Byte32(sum), nil
}

// EmbedDomainHash returns the inline wire hash of a domain
func EmbedDomainHash(h Hasher, reg typestr.Registry, domain datamodel.Node) (schema.Hash, error) {
	sum, err := h.HashDomain(domain, reg)
	if err != nil {
		return nil, err
	}
	return schema.Byte32(sum), nil
}

// VerifyTypeHash recomputes the hash of typeName and compares it with an
// inline embedded hash. Referenced hashes are resolved elsewhere and pass.
func VerifyTypeHash(h Hasher, reg typestr.Registry, typeName string, embedded schema.Hash) error {
	inline, ok := embedded.(schema.Byte32)
	if !ok {
		return nil
	}
	want, err := h.HashType(typeName, reg)
	if err != nil {
		return err
	}
	if common.Hash(inline) != want {
		return typedwitness.Errorf(typedwitness.KindTypeHashMismatch, "%s: embedded type hash %x, expected %x", typeName, inline[:], want[:])
	}
	return nil
}

// VerifyDomainHash recomputes the domain separator and compares it with an
// inline embedded hash. Referenced hashes pass.
func VerifyDomainHash(h Hasher, reg typestr.Registry, domain datamodel.Node, embedded schema.Hash) error {
	inline, ok := embedded.(schema.Byte32)
	if !ok {
		return nil
	}
	want, err := h.HashDomain(domain, reg)
	if err != nil {
		return err
	}
	if common.Hash(inline) != want {
		return typedwitness.Errorf(typedwitness.KindDomainHashMismatch, "embedded domain separator %x, expected %x", inline[:], want[:])
	}
	return nil
}
