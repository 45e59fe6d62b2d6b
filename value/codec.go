// Package value maps value trees onto wire values and back, walking each
// value against its declared type. Value trees are go-ipld-prime nodes:
// structs are maps keyed by field name, arrays are lists, integers of up to
// 32 bits are Int nodes and wider integers decimal String nodes, and byte
// strings and addresses are Bytes nodes.
package value

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"go.uber.org/zap"

	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

// Options tunes a Codec
type Options struct {
	// ArrayLength decides how T[abc] style array types are read
	ArrayLength typestr.ArrayLengthPolicy
	Logger      *zap.Logger
}

// DefaultOptions returns lenient array parsing and a no-op logger
func DefaultOptions() Options {
	return Options{ArrayLength: typestr.LenientArrayLength, Logger: zap.NewNop()}
}

// Codec encodes and decodes values against a registry. The registry and the
// hasher are only read, so a Codec is safe for concurrent use whenever they are.
type Codec struct {
	reg    typestr.Registry
	hasher hashing.Hasher
	opts   Options
}

// NewCodec returns a Codec over reg. A nil hasher means hashing.Keccak.
func NewCodec(reg typestr.Registry, hasher hashing.Hasher, opts Options) *Codec {
	if hasher == nil {
		hasher = hashing.Keccak{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Codec{reg: reg, hasher: hasher, opts: opts}
}

// Encode encodes node as a value of type typ with default options
func Encode(reg typestr.Registry, hasher hashing.Hasher, typ string, node datamodel.Node) (schema.Value, error) {
	return NewCodec(reg, hasher, DefaultOptions()).Encode(typ, node)
}

// Decode decodes v as a value of type typ into na with default options
func Decode(reg typestr.Registry, hasher hashing.Hasher, typ string, v schema.Value, na datamodel.NodeAssembler) error {
	return NewCodec(reg, hasher, DefaultOptions()).Decode(typ, v, na)
}

// Registry returns the registry the codec resolves struct names against
func (c *Codec) Registry() typestr.Registry {
	return c.reg
}

// Hasher returns the codec's hashing capability
func (c *Codec) Hasher() hashing.Hasher {
	return c.hasher
}

// Logger returns the codec's logger
func (c *Codec) Logger() *zap.Logger {
	return c.opts.Logger
}

// Encode encodes node as a value of type typ
func (c *Codec) Encode(typ string, node datamodel.Node) (schema.Value, error) {
	st := c.newState()
	d, err := st.parser.Parse(typ)
	if err != nil {
		return nil, err
	}
	return st.encode(d, node)
}

// EncodeStruct encodes node as the named struct type
func (c *Codec) EncodeStruct(typeName string, node datamodel.Node) (*schema.Struct, error) {
	return c.newState().encodeStruct(typestr.Named{Name: typeName}, node)
}

// Decode decodes v as a value of type typ, assembling the result into na
func (c *Codec) Decode(typ string, v schema.Value, na datamodel.NodeAssembler) error {
	st := c.newState()
	d, err := st.parser.Parse(typ)
	if err != nil {
		return err
	}
	return st.decode(d, v, na)
}

// DecodeStruct decodes s as the named struct type into na
func (c *Codec) DecodeStruct(typeName string, s *schema.Struct, na datamodel.NodeAssembler) error {
	return c.newState().decodeStruct(typestr.Named{Name: typeName}, s, na)
}

// DecodeNode is like Decode but builds and returns a basicnode tree
func (c *Codec) DecodeNode(typ string, v schema.Value) (datamodel.Node, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := c.Decode(typ, v, nb); err != nil {
		return nil, err
	}
	return nb.Build(), nil
}

// state carries the caches of a single encode or decode call
type state struct {
	*Codec
	parser     *typestr.Parser
	typeHashes map[string]common.Hash
}

func (c *Codec) newState() *state {
	p := typestr.NewParser(c.opts.ArrayLength)
	p.Logger = c.opts.Logger
	return &state{Codec: c, parser: p, typeHashes: make(map[string]common.Hash)}
}

func (st *state) typeHash(name string) (common.Hash, error) {
	if h, ok := st.typeHashes[name]; ok {
		return h, nil
	}
	h, err := st.hasher.HashType(name, st.reg)
	if err != nil {
		return common.Hash{}, err
	}
	st.typeHashes[name] = h
	return h, nil
}
