// Package hashing binds the codec to the EIP-712 hashing capability. The
// codec only consumes a Hasher; Keccak is the default.
package hashing

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/ipld/go-ipld-prime/datamodel"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

// Hasher computes the type hash of a registered struct and the domain
// separator of a domain record. Implementations must be deterministic and
// safe for concurrent use.
type Hasher interface {
	HashType(typeName string, reg typestr.Registry) (common.Hash, error)
	HashDomain(domain datamodel.Node, reg typestr.Registry) (common.Hash, error)
}

// Keccak implements Hasher with keccak256 over the standard EIP-712 encoding
type Keccak struct{}

var _ Hasher = Keccak{}

// HashType returns keccak256 of the EIP-712 encodeType of typeName
func (Keccak) HashType(typeName string, reg typestr.Registry) (common.Hash, error) {
	enc, err := EncodeType(reg, typeName)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(enc)), nil
}

// HashDomain returns the EIP-712 domain separator of domain
func (Keccak) HashDomain(domain datamodel.Node, reg typestr.Registry) (common.Hash, error) {
	fields, err := DomainFields(domain, reg)
	if err != nil {
		return common.Hash{}, err
	}
	withDomain := make(typestr.Registry, len(reg)+1)
	for k, v := range reg {
		withDomain[k] = v
	}
	withDomain[typestr.DomainType] = fields
	return HashStruct(withDomain, typestr.DomainType, domain)
}

// EncodeType renders the EIP-712 encodeType of typeName: its own signature
// followed by the signatures of the struct types it references, sorted by name.
// References through nested and fixed-size arrays count.
func EncodeType(reg typestr.Registry, typeName string) (string, error) {
	deps, err := Dependencies(reg, typeName)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	sig, err := deps.Signature(typeName)
	if err != nil {
		return "", err
	}
	b.WriteString(sig)
	for _, name := range deps.Names() {
		if name == typeName {
			continue
		}
		if sig, err = deps.Signature(name); err != nil {
			return "", err
		}
		b.WriteString(sig)
	}
	return b.String(), nil
}

// HashStruct returns the EIP-712 hashStruct of a struct value
func HashStruct(reg typestr.Registry, typeName string, node datamodel.Node) (common.Hash, error) {
	msg, err := Message(reg, typeName, node)
	if err != nil {
		return common.Hash{}, err
	}
	if _, ok := msg.(map[string]interface{}); !ok {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindUnknownType, "%q is not a struct type", typeName)
	}
	return hashStruct(reg, typeName, msg)
}

// primitives encodes leaf values; it never touches its Types or Domain
var primitives apitypes.TypedData

func hashStruct(reg typestr.Registry, typeName string, msg interface{}) (common.Hash, error) {
	data, ok := msg.(map[string]interface{})
	if !ok {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindValueRange, "%s value must be a struct", typeName)
	}
	typeHash, err := Keccak{}.HashType(typeName, reg)
	if err != nil {
		return common.Hash{}, err
	}
	fields, _ := reg.Lookup(typeName)
	buf := make([]byte, 0, common.HashLength*(len(fields)+1))
	buf = append(buf, typeHash[:]...)
	for _, f := range fields {
		d, err := typestr.Parse(f.Type)
		if err != nil {
			return common.Hash{}, typedwitness.WithPath(err, f.Name)
		}
		enc, err := encodeField(reg, d, data[f.Name])
		if err != nil {
			return common.Hash{}, typedwitness.WithPath(err, f.Name)
		}
		buf = append(buf, enc...)
	}
	return crypto.Keccak256Hash(buf), nil
}

func encodeField(reg typestr.Registry, d typestr.Descriptor, v interface{}) ([]byte, error) {
	switch t := d.(type) {
	case typestr.Named:
		h, err := hashStruct(reg, t.Name, v)
		if err != nil {
			return nil, err
		}
		return h.Bytes(), nil
	case typestr.FixedArray:
		if items, ok := v.([]interface{}); ok && len(items) != t.Len {
			return nil, typedwitness.Errorf(typedwitness.KindArrayLengthMismatch, "%s holds %d items, got %d", t, t.Len, len(items))
		}
		return encodeList(reg, t.Elem, v)
	case typestr.DynamicArray:
		return encodeList(reg, t.Elem, v)
	case typestr.Primitive:
		out, err := primitives.EncodePrimitiveValue(t.String(), v, 0)
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindValueRange).Detail("unable to encode %s", t).Cause(err).Build()
		}
		return out, nil
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported descriptor %v", d)
}

// encodeList hashes the concatenated encodings of the items
func encodeList(reg typestr.Registry, elem typestr.Descriptor, v interface{}) ([]byte, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%s[] value must be a list", elem)
	}
	buf := make([]byte, 0, common.HashLength*len(items))
	for i, item := range items {
		enc, err := encodeField(reg, elem, item)
		if err != nil {
			return nil, typedwitness.WithPath(err, strconv.Itoa(i))
		}
		buf = append(buf, enc...)
	}
	return crypto.Keccak256(buf), nil
}

// SigningHash returns keccak256(0x19 0x01 || domainSeparator || hashStruct(message)),
// the digest an EIP-712 signer signs
func SigningHash(domainSeparator, messageHash common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator[:], messageHash[:]))
}

// DomainFields returns the EIP712Domain field list: the registry's own
// declaration when present, otherwise the standard fields present in domain
func DomainFields(domain datamodel.Node, reg typestr.Registry) ([]typestr.Field, error) {
	if fields, ok := reg.Lookup(typestr.DomainType); ok {
		return fields, nil
	}
	if domain == nil || domain.Kind() != datamodel.Kind_Map {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "domain must be a map")
	}
	var fields []typestr.Field
	for _, f := range StandardDomainFields {
		n, err := domain.LookupByString(f.Name)
		if err != nil || n.IsAbsent() || n.IsNull() {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// StandardDomainFields are the EIP712Domain fields in canonical order
var StandardDomainFields = []typestr.Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
	{Name: "salt", Type: "bytes32"},
}

// Dependencies returns the sub-registry of typeName and every struct type it
// reaches through its fields
func Dependencies(reg typestr.Registry, typeName string) (typestr.Registry, error) {
	deps := make(typestr.Registry)
	var walk func(name string) error
	walk = func(name string) error {
		if _, seen := deps[name]; seen {
			return nil
		}
		fields, ok := reg.Lookup(name)
		if !ok {
			return typedwitness.Errorf(typedwitness.KindUnknownType, "type %q is not registered", name)
		}
		deps[name] = fields
		for _, f := range fields {
			d, err := typestr.Parse(f.Type)
			if err != nil {
				return typedwitness.WithPath(err, name, f.Name)
			}
			if n, ok := typestr.Base(d).(typestr.Named); ok {
				if err := walk(n.Name); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(typeName); err != nil {
		return nil, err
	}
	return deps, nil
}
