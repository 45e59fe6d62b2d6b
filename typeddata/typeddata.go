// Package typeddata reads and writes the EIP-712 typed data document
// {types, primaryType, domain, message} as go-ipld-prime nodes, parsing the
// JSON form with dag-json.
package typeddata

import (
	"bytes"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

const (
	KeyTypes       = "types"
	KeyPrimaryType = "primaryType"
	KeyDomain      = "domain"
	KeyMessage     = "message"
)

// TypedData is a typed data document. Domain may be nil when the caller has
// no domain record.
type TypedData struct {
	Types       typestr.Registry
	PrimaryType string
	Domain      datamodel.Node
	Message     datamodel.Node
}

// Parse decodes a JSON typed data document
func Parse(r io.Reader) (*TypedData, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := dagjson.Decode(nb, r); err != nil {
		return nil, typedwitness.New(typedwitness.KindParse).Detail("invalid typed data JSON").Cause(err).Build()
	}
	return FromNode(nb.Build())
}

// ParseBytes is like Parse over a byte slice
func ParseBytes(data []byte) (*TypedData, error) {
	return Parse(bytes.NewReader(data))
}

// FromNode reads a typed data document from a map node
func FromNode(n datamodel.Node) (*TypedData, error) {
	if n == nil || n.Kind() != datamodel.Kind_Map {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "typed data must be a map")
	}
	td := new(TypedData)
	for _, fn := range requiredReadFuncs {
		if err := fn(td, n); err != nil {
			return nil, err
		}
	}
	return td, nil
}

var requiredReadFuncs = []func(*TypedData, datamodel.Node) error{
	readTypes,
	readPrimaryType,
	readDomain,
	readMessage,
}

func readTypes(td *TypedData, n datamodel.Node) error {
	typesNode, err := n.LookupByString(KeyTypes)
	if err != nil {
		return typedwitness.New(typedwitness.KindParse).Path(KeyTypes).Detail("missing types").Build()
	}
	if typesNode.Kind() != datamodel.Kind_Map {
		return typedwitness.New(typedwitness.KindParse).Path(KeyTypes).Detail("types must be a map").Build()
	}
	reg := make(typestr.Registry, typesNode.Length())
	it := typesNode.MapIterator()
	for !it.Done() {
		k, v, err := it.Next()
		if err != nil {
			return err
		}
		name, err := k.AsString()
		if err != nil {
			return err
		}
		fields, err := readFields(v)
		if err != nil {
			return typedwitness.WithPath(err, KeyTypes, name)
		}
		reg[name] = fields
	}
	td.Types = reg
	return nil
}

func readFields(n datamodel.Node) ([]typestr.Field, error) {
	if n.Kind() != datamodel.Kind_List {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "field list must be a list, got %s", n.Kind())
	}
	fields := make([]typestr.Field, 0, n.Length())
	it := n.ListIterator()
	for !it.Done() {
		_, fn, err := it.Next()
		if err != nil {
			return nil, err
		}
		name, err := lookupString(fn, "name")
		if err != nil {
			return nil, err
		}
		typ, err := lookupString(fn, "type")
		if err != nil {
			return nil, err
		}
		fields = append(fields, typestr.Field{Name: name, Type: typ})
	}
	return fields, nil
}

func lookupString(n datamodel.Node, key string) (string, error) {
	if n.Kind() != datamodel.Kind_Map {
		return "", typedwitness.Errorf(typedwitness.KindParse, "field must be a map, got %s", n.Kind())
	}
	v, err := n.LookupByString(key)
	if err != nil {
		return "", typedwitness.Errorf(typedwitness.KindParse, "field is missing %q", key)
	}
	s, err := v.AsString()
	if err != nil {
		return "", typedwitness.Errorf(typedwitness.KindParse, "field %q must be a string", key)
	}
	return s, nil
}

func readPrimaryType(td *TypedData, n datamodel.Node) error {
	pt, err := n.LookupByString(KeyPrimaryType)
	if err != nil {
		return typedwitness.New(typedwitness.KindParse).Path(KeyPrimaryType).Detail("missing primary type").Build()
	}
	if td.PrimaryType, err = pt.AsString(); err != nil {
		return typedwitness.New(typedwitness.KindParse).Path(KeyPrimaryType).Detail("primary type must be a string").Build()
	}
	return nil
}

func readDomain(td *TypedData, n datamodel.Node) error {
	d, err := n.LookupByString(KeyDomain)
	if err != nil || d.IsNull() {
		// domain is optional
		return nil
	}
	if d.Kind() != datamodel.Kind_Map {
		return typedwitness.New(typedwitness.KindParse).Path(KeyDomain).Detail("domain must be a map").Build()
	}
	td.Domain = d
	return nil
}

func readMessage(td *TypedData, n datamodel.Node) error {
	m, err := n.LookupByString(KeyMessage)
	if err != nil {
		return typedwitness.New(typedwitness.KindParse).Path(KeyMessage).Detail("missing message").Build()
	}
	td.Message = m
	return nil
}

// Node renders the document as a map node; types are emitted in sorted order
func (td *TypedData) Node() (datamodel.Node, error) {
	return qp.BuildMap(basicnode.Prototype.Any, 4, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, KeyTypes, qp.Map(int64(len(td.Types)), func(ma datamodel.MapAssembler) {
			for _, name := range td.Types.Names() {
				fields := td.Types[name]
				qp.MapEntry(ma, name, qp.List(int64(len(fields)), func(la datamodel.ListAssembler) {
					for _, f := range fields {
						qp.ListEntry(la, qp.Map(2, func(ma datamodel.MapAssembler) {
							qp.MapEntry(ma, "name", qp.String(f.Name))
							qp.MapEntry(ma, "type", qp.String(f.Type))
						}))
					}
				}))
			}
		}))
		qp.MapEntry(ma, KeyPrimaryType, qp.String(td.PrimaryType))
		if td.Domain != nil {
			qp.MapEntry(ma, KeyDomain, qp.Node(td.Domain))
		}
		if td.Message != nil {
			qp.MapEntry(ma, KeyMessage, qp.Node(td.Message))
		}
	})
}

// Encode writes the document as dag-json
func (td *TypedData) Encode(w io.Writer) error {
	n, err := td.Node()
	if err != nil {
		return err
	}
	return dagjson.Encode(n, w)
}

// Validate checks that the primary type is registered and every field type parses
func (td *TypedData) Validate(p *typestr.Parser) error {
	if _, ok := td.Types.Lookup(td.PrimaryType); !ok {
		return typedwitness.New(typedwitness.KindUnknownType).Path(KeyPrimaryType).Detail("primary type %q is not registered", td.PrimaryType).Build()
	}
	return td.Types.Validate(p)
}

// DomainFields returns the EIP712Domain fields the domain is hashed with
func (td *TypedData) DomainFields() ([]typestr.Field, error) {
	return hashing.DomainFields(td.Domain, td.Types)
}

// DomainSeparator hashes the domain with h, or hashing.Keccak when h is nil
func (td *TypedData) DomainSeparator(h hashing.Hasher) (common.Hash, error) {
	if td.Domain == nil {
		return common.Hash{}, typedwitness.New(typedwitness.KindValueRange).Path(KeyDomain).Detail("no domain").Build()
	}
	if h == nil {
		h = hashing.Keccak{}
	}
	return h.HashDomain(td.Domain, td.Types)
}

// SigningHash returns the EIP-712 digest of the document
func (td *TypedData) SigningHash() (common.Hash, error) {
	domain, err := td.DomainSeparator(nil)
	if err != nil {
		return common.Hash{}, err
	}
	msg, err := hashing.HashStruct(td.Types, td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, typedwitness.WithPath(err, KeyMessage)
	}
	return hashing.SigningHash(domain, msg), nil
}
