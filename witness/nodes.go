package witness

import (
	"fmt"
	"math"

	"github.com/ipld/go-ipld-prime"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

/*
	The structural view of a witness is a keyed union at every union position:

	type Witness union {
	    | SighashWithAction "SighashWithAction"
	    | Sighash "Sighash"
	    | Otx "Otx"
	    | OtxStart "OtxStart"
	} representation keyed

	type Hash union {
	    | Bytes "Byte32"
	    | RefCell "RefCell"
	    | RefTransaction "RefTransaction"
	} representation keyed

	type Struct struct {
	    typeHash Hash
	    values [Value]
	}

	type Value union {
	    | Bool "Bool"
	    | Bytes "Bytes"
	    | String "String"
	    | Bytes "Address"
	    | Bytes "FixedBytes"
	    | Bytes "Uint"
	    | Bytes "Int"
	    | Struct "Struct"
	    | [Value] "Array"
	} representation keyed
*/

const (
	hashByte32         = "Byte32"
	hashRefCell        = "RefCell"
	hashRefTransaction = "RefTransaction"
	messageEIP712      = "EIP712"
)

// unionEntry returns the single key and value of a keyed union node
func unionEntry(node ipld.Node) (string, ipld.Node, error) {
	if node.Kind() != ipld.Kind_Map || node.Length() != 1 {
		return "", nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "keyed union must be a single entry map")
	}
	k, v, err := node.MapIterator().Next()
	if err != nil {
		return "", nil, err
	}
	key, err := k.AsString()
	if err != nil {
		return "", nil, err
	}
	return key, v, nil
}

func lookupBytes(node ipld.Node, key string) ([]byte, error) {
	n, err := node.LookupByString(key)
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(key).Cause(err).Build()
	}
	b, err := n.AsBytes()
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(key).Cause(err).Build()
	}
	return b, nil
}

func lookupUint(node ipld.Node, key string, max uint64) (uint64, error) {
	n, err := node.LookupByString(key)
	if err != nil {
		return 0, typedwitness.New(typedwitness.KindMalformedInput).Path(key).Cause(err).Build()
	}
	i, err := n.AsInt()
	if err != nil {
		return 0, typedwitness.New(typedwitness.KindMalformedInput).Path(key).Cause(err).Build()
	}
	if i < 0 || uint64(i) > max {
		return 0, typedwitness.New(typedwitness.KindValueRange).Path(key).Detail("%d is out of range", i).Build()
	}
	return uint64(i), nil
}

func lookupUint32(node ipld.Node, key string) (uint32, error) {
	v, err := lookupUint(node, key, math.MaxUint32)
	return uint32(v), err
}

func packHash(node ipld.Node) (schema.Hash, error) {
	variant, item, err := unionEntry(node)
	if err != nil {
		return nil, err
	}
	switch variant {
	case hashByte32:
		b, err := item.AsBytes()
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant).Cause(err).Build()
		}
		if len(b) != 32 {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "Byte32 hash must be 32 bytes, got %d", len(b))
		}
		var h schema.Byte32
		copy(h[:], b)
		return h, nil
	case hashRefCell:
		source, err := lookupUint(item, "source", math.MaxInt64)
		if err != nil {
			return nil, err
		}
		index, err := lookupUint32(item, "index")
		if err != nil {
			return nil, err
		}
		offset, err := lookupUint32(item, "offset")
		if err != nil {
			return nil, err
		}
		return schema.RefCell{Source: source, Index: index, Offset: offset}, nil
	case hashRefTransaction:
		offset, err := lookupUint32(item, "offset")
		if err != nil {
			return nil, err
		}
		return schema.RefTransaction{Offset: offset}, nil
	}
	return nil, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unknown Hash variant %q", variant)
}

func unpackHash(na ipld.NodeAssembler, h schema.Hash) error {
	ma, err := na.BeginMap(1)
	if err != nil {
		return err
	}
	switch v := h.(type) {
	case schema.Byte32:
		if err := ma.AssembleKey().AssignString(hashByte32); err != nil {
			return err
		}
		if err := ma.AssembleValue().AssignBytes(v[:]); err != nil {
			return err
		}
	case schema.RefCell:
		if v.Source > math.MaxInt64 {
			return typedwitness.Errorf(typedwitness.KindValueRange, "cell source %d does not fit an int", v.Source)
		}
		va, err := ma.AssembleEntry(hashRefCell)
		if err != nil {
			return err
		}
		if err := assignInts(va, []string{"source", "index", "offset"}, int64(v.Source), int64(v.Index), int64(v.Offset)); err != nil {
			return err
		}
	case schema.RefTransaction:
		va, err := ma.AssembleEntry(hashRefTransaction)
		if err != nil {
			return err
		}
		if err := assignInts(va, []string{"offset"}, int64(v.Offset)); err != nil {
			return err
		}
	default:
		return typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported hash %T", h)
	}
	return ma.Finish()
}

// assignInts assembles a map of the given keys to integer values
func assignInts(na ipld.NodeAssembler, keys []string, values ...int64) error {
	ma, err := na.BeginMap(int64(len(keys)))
	if err != nil {
		return err
	}
	for i, k := range keys {
		if err := ma.AssembleKey().AssignString(k); err != nil {
			return err
		}
		if err := ma.AssembleValue().AssignInt(values[i]); err != nil {
			return err
		}
	}
	return ma.Finish()
}

func packStruct(node ipld.Node) (*schema.Struct, error) {
	if node.Kind() != ipld.Kind_Map {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "struct must be a map")
	}
	th, err := node.LookupByString("typeHash")
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path("typeHash").Cause(err).Build()
	}
	typeHash, err := packHash(th)
	if err != nil {
		return nil, typedwitness.WithPath(err, "typeHash")
	}
	vs, err := node.LookupByString("values")
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path("values").Cause(err).Build()
	}
	values, err := packValues(vs)
	if err != nil {
		return nil, typedwitness.WithPath(err, "values")
	}
	return &schema.Struct{TypeHash: typeHash, Values: values}, nil
}

func packValues(node ipld.Node) ([]schema.Value, error) {
	if node.Kind() != ipld.Kind_List {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "values must be a list")
	}
	values := make([]schema.Value, 0, node.Length())
	it := node.ListIterator()
	for !it.Done() {
		idx, item, err := it.Next()
		if err != nil {
			return nil, err
		}
		v, err := packValue(item)
		if err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(idx))
		}
		values = append(values, v)
	}
	return values, nil
}

func packValue(node ipld.Node) (schema.Value, error) {
	variant, item, err := unionEntry(node)
	if err != nil {
		return nil, err
	}
	tag, ok := schema.ParseTag(variant)
	if !ok {
		return nil, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unknown Value variant %q", variant)
	}
	switch tag {
	case schema.TagBool:
		b, err := item.AsBool()
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant).Cause(err).Build()
		}
		return schema.Bool(b), nil
	case schema.TagString:
		s, err := item.AsString()
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant).Cause(err).Build()
		}
		return schema.String(s), nil
	case schema.TagStruct:
		s, err := packStruct(item)
		if err != nil {
			return nil, typedwitness.WithPath(err, variant)
		}
		return s, nil
	case schema.TagArray:
		values, err := packValues(item)
		if err != nil {
			return nil, typedwitness.WithPath(err, variant)
		}
		return &schema.Array{Values: values}, nil
	}
	b, err := item.AsBytes()
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant).Cause(err).Build()
	}
	switch tag {
	case schema.TagBytes:
		return schema.Bytes(b), nil
	case schema.TagAddress:
		if len(b) != typestr.AddressSize {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "address must be %d bytes, got %d", typestr.AddressSize, len(b))
		}
		var a schema.Address
		copy(a[:], b)
		return a, nil
	case schema.TagFixedBytes:
		return schema.FixedBytes(b), nil
	case schema.TagUint:
		return schema.Uint(b), nil
	default:
		return schema.Int(b), nil
	}
}

func unpackStruct(na ipld.NodeAssembler, s *schema.Struct) error {
	if s == nil {
		return typedwitness.Errorf(typedwitness.KindMalformedInput, "missing struct")
	}
	ma, err := na.BeginMap(2)
	if err != nil {
		return err
	}
	va, err := ma.AssembleEntry("typeHash")
	if err != nil {
		return err
	}
	if err := unpackHash(va, s.TypeHash); err != nil {
		return typedwitness.WithPath(err, "typeHash")
	}
	va, err = ma.AssembleEntry("values")
	if err != nil {
		return err
	}
	if err := unpackValues(va, s.Values); err != nil {
		return typedwitness.WithPath(err, "values")
	}
	return ma.Finish()
}

func unpackValues(na ipld.NodeAssembler, values []schema.Value) error {
	la, err := na.BeginList(int64(len(values)))
	if err != nil {
		return err
	}
	for i, v := range values {
		if err := unpackValue(la.AssembleValue(), v); err != nil {
			return typedwitness.WithPath(err, fmt.Sprint(i))
		}
	}
	return la.Finish()
}

func unpackValue(na ipld.NodeAssembler, v schema.Value) error {
	if v == nil {
		return typedwitness.Errorf(typedwitness.KindMalformedInput, "missing value")
	}
	ma, err := na.BeginMap(1)
	if err != nil {
		return err
	}
	va, err := ma.AssembleEntry(v.Tag().String())
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case schema.Bool:
		err = va.AssignBool(bool(t))
	case schema.String:
		err = va.AssignString(string(t))
	case schema.Bytes:
		err = va.AssignBytes(t)
	case schema.Address:
		err = va.AssignBytes(t[:])
	case schema.FixedBytes:
		err = va.AssignBytes(t)
	case schema.Uint:
		err = va.AssignBytes(t)
	case schema.Int:
		err = va.AssignBytes(t)
	case *schema.Struct:
		err = unpackStruct(va, t)
	case *schema.Array:
		err = unpackValues(va, t.Values)
	default:
		err = typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported value %T", v)
	}
	if err != nil {
		return typedwitness.WithPath(err, v.Tag().String())
	}
	return ma.Finish()
}

func packTypedMessage(node ipld.Node) (schema.TypedMessage, error) {
	variant, item, err := unionEntry(node)
	if err != nil {
		return nil, err
	}
	if variant != messageEIP712 {
		return nil, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unknown TypedMessage variant %q", variant)
	}
	ds, err := item.LookupByString("domainSeparator")
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant, "domainSeparator").Cause(err).Build()
	}
	domain, err := packHash(ds)
	if err != nil {
		return nil, typedwitness.WithPath(err, variant, "domainSeparator")
	}
	m, err := item.LookupByString("message")
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path(variant, "message").Cause(err).Build()
	}
	message, err := packStruct(m)
	if err != nil {
		return nil, typedwitness.WithPath(err, variant, "message")
	}
	return &schema.EIP712{DomainSeparator: domain, Message: message}, nil
}

func unpackTypedMessage(na ipld.NodeAssembler, msg schema.TypedMessage) error {
	m, ok := msg.(*schema.EIP712)
	if !ok || m == nil {
		return typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported typed message %T", msg)
	}
	ma, err := na.BeginMap(1)
	if err != nil {
		return err
	}
	va, err := ma.AssembleEntry(messageEIP712)
	if err != nil {
		return err
	}
	inner, err := va.BeginMap(2)
	if err != nil {
		return err
	}
	da, err := inner.AssembleEntry("domainSeparator")
	if err != nil {
		return err
	}
	if err := unpackHash(da, m.DomainSeparator); err != nil {
		return typedwitness.WithPath(err, messageEIP712, "domainSeparator")
	}
	sa, err := inner.AssembleEntry("message")
	if err != nil {
		return err
	}
	if err := unpackStruct(sa, m.Message); err != nil {
		return typedwitness.WithPath(err, messageEIP712, "message")
	}
	if err := inner.Finish(); err != nil {
		return err
	}
	return ma.Finish()
}
