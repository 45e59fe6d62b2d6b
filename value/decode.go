package value

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/datamodel"
	"go.uber.org/zap"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/primitive"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

func (st *state) decode(d typestr.Descriptor, v schema.Value, na datamodel.NodeAssembler) error {
	if v == nil {
		return typedwitness.Errorf(typedwitness.KindMalformedInput, "missing wire value for %s", d)
	}
	switch t := d.(type) {
	case typestr.Named:
		s, ok := v.(*schema.Struct)
		if !ok {
			return tagMismatch(d, schema.TagStruct, v)
		}
		return st.decodeStruct(t, s, na)
	case typestr.FixedArray:
		a, ok := v.(*schema.Array)
		if !ok {
			return tagMismatch(d, schema.TagArray, v)
		}
		if len(a.Values) != t.Len {
			return typedwitness.Errorf(typedwitness.KindArrayLengthMismatch, "%s expects %d elements, got %d", t, t.Len, len(a.Values))
		}
		return st.decodeArray(t.Elem, a, na)
	case typestr.DynamicArray:
		a, ok := v.(*schema.Array)
		if !ok {
			return tagMismatch(d, schema.TagArray, v)
		}
		return st.decodeArray(t.Elem, a, na)
	case typestr.Primitive:
		return decodePrimitive(t, v, na)
	}
	return typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported type %v", d)
}

func (st *state) decodeStruct(t typestr.Named, s *schema.Struct, na datamodel.NodeAssembler) error {
	fields, err := st.reg.Resolve(t)
	if err != nil {
		return err
	}
	if s == nil {
		return typedwitness.Errorf(typedwitness.KindMalformedInput, "missing %s struct", t.Name)
	}
	// the embedded hash is checked before anything is assembled
	if err := st.verifyTypeHash(t.Name, s.TypeHash); err != nil {
		return err
	}
	if len(s.Values) != len(fields) {
		return typedwitness.Errorf(typedwitness.KindStructFieldMismatch, "%s declares %d fields, wire struct carries %d", t.Name, len(fields), len(s.Values))
	}
	ma, err := na.BeginMap(int64(len(fields)))
	if err != nil {
		return err
	}
	for i, f := range fields {
		fd, err := st.parser.Parse(f.Type)
		if err != nil {
			return typedwitness.WithPath(err, f.Name)
		}
		va, err := ma.AssembleEntry(f.Name)
		if err != nil {
			return typedwitness.WithPath(err, f.Name)
		}
		if err := st.decode(fd, s.Values[i], va); err != nil {
			return typedwitness.WithPath(err, f.Name)
		}
	}
	return ma.Finish()
}

func (st *state) verifyTypeHash(name string, embedded schema.Hash) error {
	err := hashing.VerifyTypeHash(cachedHasher{st}, st.reg, name, embedded)
	if err != nil {
		st.opts.Logger.Debug("type hash mismatch", zap.String("type", name), zap.Error(err))
	}
	return err
}

// cachedHasher answers HashType from the per-call cache
type cachedHasher struct {
	st *state
}

func (c cachedHasher) HashType(typeName string, _ typestr.Registry) (common.Hash, error) {
	return c.st.typeHash(typeName)
}

func (c cachedHasher) HashDomain(domain datamodel.Node, reg typestr.Registry) (common.Hash, error) {
	return c.st.hasher.HashDomain(domain, reg)
}

func (st *state) decodeArray(elem typestr.Descriptor, a *schema.Array, na datamodel.NodeAssembler) error {
	la, err := na.BeginList(int64(len(a.Values)))
	if err != nil {
		return err
	}
	for i, v := range a.Values {
		if err := st.decode(elem, v, la.AssembleValue()); err != nil {
			return typedwitness.WithPath(err, fmt.Sprint(i))
		}
	}
	return la.Finish()
}

func decodePrimitive(p typestr.Primitive, v schema.Value, na datamodel.NodeAssembler) error {
	switch p.Kind {
	case typestr.Bool:
		b, ok := v.(schema.Bool)
		if !ok {
			return tagMismatch(p, schema.TagBool, v)
		}
		return na.AssignBool(bool(b))
	case typestr.String:
		s, ok := v.(schema.String)
		if !ok {
			return tagMismatch(p, schema.TagString, v)
		}
		str, err := primitive.DecodeString([]byte(s))
		if err != nil {
			return err
		}
		return na.AssignString(str)
	case typestr.Bytes:
		b, ok := v.(schema.Bytes)
		if !ok {
			return tagMismatch(p, schema.TagBytes, v)
		}
		return na.AssignBytes(primitive.EncodeBytes(b))
	case typestr.Address:
		a, ok := v.(schema.Address)
		if !ok {
			return tagMismatch(p, schema.TagAddress, v)
		}
		return na.AssignBytes(primitive.EncodeBytes(a[:]))
	case typestr.FixedBytes:
		b, ok := v.(schema.FixedBytes)
		if !ok {
			return tagMismatch(p, schema.TagFixedBytes, v)
		}
		if len(b) != p.Width {
			return typedwitness.Errorf(typedwitness.KindValueRange, "%s must be %d bytes, got %d", p, p.Width, len(b))
		}
		return na.AssignBytes(primitive.EncodeBytes(b))
	case typestr.Uint:
		u, ok := v.(schema.Uint)
		if !ok {
			return tagMismatch(p, schema.TagUint, v)
		}
		n, err := primitive.DecodeUint(p.Width, u)
		if err != nil {
			return err
		}
		if primitive.Native(p.Width) {
			return na.AssignInt(n.Int64())
		}
		return na.AssignString(n.String())
	case typestr.Int:
		i, ok := v.(schema.Int)
		if !ok {
			return tagMismatch(p, schema.TagInt, v)
		}
		n, err := primitive.DecodeInt(p.Width, i)
		if err != nil {
			return err
		}
		if primitive.Native(p.Width) {
			return na.AssignInt(n.Int64())
		}
		return na.AssignString(n.String())
	}
	return typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported primitive %v", p)
}

func tagMismatch(d typestr.Descriptor, want schema.Tag, got schema.Value) error {
	return typedwitness.Errorf(typedwitness.KindTypeTagMismatch, "%s expects a %s wire value, found %s", d, want, got.Tag())
}
