package value

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ipld/go-ipld-prime/datamodel"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/primitive"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/shared"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

func (st *state) encode(d typestr.Descriptor, node datamodel.Node) (schema.Value, error) {
	if node == nil || node.IsAbsent() || node.IsNull() {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "missing value for %s", d)
	}
	switch t := d.(type) {
	case typestr.Named:
		return st.encodeStruct(t, node)
	case typestr.FixedArray:
		if node.Kind() == datamodel.Kind_List && node.Length() != int64(t.Len) {
			return nil, typedwitness.Errorf(typedwitness.KindArrayLengthMismatch, "%s expects %d elements, got %d", t, t.Len, node.Length())
		}
		return st.encodeArray(t.Elem, node)
	case typestr.DynamicArray:
		return st.encodeArray(t.Elem, node)
	case typestr.Primitive:
		return encodePrimitive(t, node)
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported type %v", d)
}

func (st *state) encodeStruct(t typestr.Named, node datamodel.Node) (*schema.Struct, error) {
	fields, err := st.reg.Resolve(t)
	if err != nil {
		return nil, err
	}
	if node.Kind() != datamodel.Kind_Map {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%s value must be a map, got %s", t.Name, node.Kind())
	}
	if err := checkFieldSet(t.Name, fields, node); err != nil {
		return nil, err
	}
	values := make([]schema.Value, len(fields))
	for i, f := range fields {
		fd, err := st.parser.Parse(f.Type)
		if err != nil {
			return nil, typedwitness.WithPath(err, f.Name)
		}
		fn, err := node.LookupByString(f.Name)
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindStructFieldMismatch).Path(f.Name).Cause(err).Build()
		}
		if values[i], err = st.encode(fd, fn); err != nil {
			return nil, typedwitness.WithPath(err, f.Name)
		}
	}
	h, err := st.typeHash(t.Name)
	if err != nil {
		return nil, err
	}
	return &schema.Struct{TypeHash: schema.Byte32(h), Values: values}, nil
}

// checkFieldSet requires the map keys to equal the declared field names
func checkFieldSet(typeName string, fields []typestr.Field, node datamodel.Node) error {
	declared := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = struct{}{}
	}
	present := make(map[string]struct{}, node.Length())
	var extra []string
	it := node.MapIterator()
	for !it.Done() {
		k, _, err := it.Next()
		if err != nil {
			return err
		}
		key, err := k.AsString()
		if err != nil {
			return err
		}
		present[key] = struct{}{}
		if _, ok := declared[key]; !ok {
			extra = append(extra, key)
		}
	}
	var missing []string
	for _, f := range fields {
		if _, ok := present[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return typedwitness.Errorf(typedwitness.KindStructFieldMismatch, "%s fields differ: missing [%s], extra [%s]",
		typeName, strings.Join(missing, ", "), strings.Join(extra, ", "))
}

func (st *state) encodeArray(elem typestr.Descriptor, node datamodel.Node) (*schema.Array, error) {
	if node.Kind() != datamodel.Kind_List {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "array value must be a list, got %s", node.Kind())
	}
	values := make([]schema.Value, 0, node.Length())
	it := node.ListIterator()
	for !it.Done() {
		idx, item, err := it.Next()
		if err != nil {
			return nil, err
		}
		v, err := st.encode(elem, item)
		if err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(idx))
		}
		values = append(values, v)
	}
	return &schema.Array{Values: values}, nil
}

func encodePrimitive(p typestr.Primitive, node datamodel.Node) (schema.Value, error) {
	switch p.Kind {
	case typestr.Bool:
		b, err := node.AsBool()
		if err != nil {
			return nil, kindError(p, node)
		}
		return schema.Bool(b), nil
	case typestr.String:
		s, err := node.AsString()
		if err != nil {
			return nil, kindError(p, node)
		}
		enc, err := primitive.EncodeString(s)
		if err != nil {
			return nil, err
		}
		return schema.String(enc), nil
	case typestr.Bytes:
		b, err := shared.NodeToBytes(node)
		if err != nil {
			return nil, err
		}
		return schema.Bytes(primitive.EncodeBytes(b)), nil
	case typestr.Address:
		b, err := shared.NodeToBytes(node)
		if err != nil {
			return nil, err
		}
		if len(b) != typestr.AddressSize {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "address must be %d bytes, got %d", typestr.AddressSize, len(b))
		}
		var a schema.Address
		copy(a[:], b)
		return a, nil
	case typestr.FixedBytes:
		b, err := shared.NodeToBytes(node)
		if err != nil {
			return nil, err
		}
		if len(b) != p.Width {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%s must be %d bytes, got %d", p, p.Width, len(b))
		}
		return schema.FixedBytes(primitive.EncodeBytes(b)), nil
	case typestr.Uint:
		v, err := shared.NodeToBig(node)
		if err != nil {
			return nil, err
		}
		enc, err := primitive.EncodeUint(p.Width, v)
		if err != nil {
			return nil, err
		}
		return schema.Uint(enc), nil
	case typestr.Int:
		v, err := shared.NodeToBig(node)
		if err != nil {
			return nil, err
		}
		enc, err := primitive.EncodeInt(p.Width, v)
		if err != nil {
			return nil, err
		}
		return schema.Int(enc), nil
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported primitive %v", p)
}

func kindError(p typestr.Primitive, node datamodel.Node) error {
	return typedwitness.Errorf(typedwitness.KindValueRange, "%s value cannot be a %s node", p, node.Kind())
}
