package hashing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/datamodel"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/shared"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

// Message converts a value node of the given type into the shape go-ethereum's
// EIP-712 encoder expects: structs become map[string]interface{}, arrays
// []interface{}, integers *big.Int, addresses checksummed hex and byte strings []byte.
func Message(reg typestr.Registry, typ string, node datamodel.Node) (interface{}, error) {
	d, err := typestr.Parse(typ)
	if err != nil {
		return nil, err
	}
	return toMessage(reg, d, node)
}

func toMessage(reg typestr.Registry, d typestr.Descriptor, node datamodel.Node) (interface{}, error) {
	switch t := d.(type) {
	case typestr.Named:
		fields, err := reg.Resolve(t)
		if err != nil {
			return nil, err
		}
		if node.Kind() != datamodel.Kind_Map {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%s value must be a map, got %s", t.Name, node.Kind())
		}
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			fn, err := node.LookupByString(f.Name)
			if err != nil {
				return nil, typedwitness.New(typedwitness.KindStructFieldMismatch).Path(f.Name).Detail("missing field of %s", t.Name).Build()
			}
			fd, err := typestr.Parse(f.Type)
			if err != nil {
				return nil, typedwitness.WithPath(err, f.Name)
			}
			if out[f.Name], err = toMessage(reg, fd, fn); err != nil {
				return nil, typedwitness.WithPath(err, f.Name)
			}
		}
		return out, nil
	case typestr.FixedArray:
		return listMessage(reg, t.Elem, node)
	case typestr.DynamicArray:
		return listMessage(reg, t.Elem, node)
	case typestr.Primitive:
		return primitiveMessage(t, node)
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported descriptor %v", d)
}

func listMessage(reg typestr.Registry, elem typestr.Descriptor, node datamodel.Node) (interface{}, error) {
	if node.Kind() != datamodel.Kind_List {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "array value must be a list, got %s", node.Kind())
	}
	out := make([]interface{}, 0, node.Length())
	it := node.ListIterator()
	for !it.Done() {
		idx, v, err := it.Next()
		if err != nil {
			return nil, err
		}
		item, err := toMessage(reg, elem, v)
		if err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(idx))
		}
		out = append(out, item)
	}
	return out, nil
}

func primitiveMessage(p typestr.Primitive, node datamodel.Node) (interface{}, error) {
	switch p.Kind {
	case typestr.Bool:
		return node.AsBool()
	case typestr.String:
		return node.AsString()
	case typestr.Address:
		b, err := shared.NodeToBytes(node)
		if err != nil {
			return nil, err
		}
		if len(b) != typestr.AddressSize {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "address must be %d bytes, got %d", typestr.AddressSize, len(b))
		}
		return common.BytesToAddress(b).Hex(), nil
	case typestr.Bytes, typestr.FixedBytes:
		return shared.NodeToBytes(node)
	case typestr.Uint, typestr.Int:
		return shared.NodeToBig(node)
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "unsupported primitive %v", p)
}
