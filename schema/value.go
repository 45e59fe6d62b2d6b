// Package schema defines the wire-level types of a typed witness and their
// Molecule encoding: the Value union, Struct and Array tables, the Hash union,
// the TypedMessage union and the ExtendedWitness envelope.
package schema

import (
	"fmt"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/molecule"
)

// Tag is the discriminant of a Value; ids follow declaration order
type Tag uint32

const (
	TagBool Tag = iota
	TagBytes
	TagString
	TagAddress
	TagFixedBytes
	TagUint
	TagInt
	TagStruct
	TagArray
)

var tagNames = [...]string{"Bool", "Bytes", "String", "Address", "FixedBytes", "Uint", "Int", "Struct", "Array"}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint32(t))
}

// ParseTag maps a variant name back to its Tag
func ParseTag(name string) (Tag, bool) {
	for i, n := range tagNames {
		if n == name {
			return Tag(i), true
		}
	}
	return 0, false
}

// Value is a self-describing wire value
type Value interface {
	Tag() Tag
}

// Bool is a one byte boolean
type Bool bool

// Bytes is a variable length byte string
type Bytes []byte

// String is a variable length UTF-8 string
type String string

// Address is a 20 byte account address
type Address [20]byte

// FixedBytes is a bytesN payload; its length is checked against N by the value codec
type FixedBytes []byte

// Uint is a big-endian unsigned integer of width len*8
type Uint []byte

// Int is a big-endian two's-complement integer of width len*8
type Int []byte

// Struct is a struct value: the hash of its type and one value per declared
// field, in declaration order
type Struct struct {
	TypeHash Hash
	Values   []Value
}

// Array is an ordered sequence of homogeneous values
type Array struct {
	Values []Value
}

func (Bool) Tag() Tag       { return TagBool }
func (Bytes) Tag() Tag      { return TagBytes }
func (String) Tag() Tag     { return TagString }
func (Address) Tag() Tag    { return TagAddress }
func (FixedBytes) Tag() Tag { return TagFixedBytes }
func (Uint) Tag() Tag       { return TagUint }
func (Int) Tag() Tag        { return TagInt }
func (*Struct) Tag() Tag    { return TagStruct }
func (*Array) Tag() Tag     { return TagArray }

// ValueUnion is the Molecule union over the nine Value variants
var ValueUnion *molecule.Union[Value]

// set in init: Struct and Array items recurse through ValueUnion
func init() {
	ValueUnion = newValueUnion()
}

func newValueUnion() *molecule.Union[Value] {
	return molecule.NewUnion[Value]("Value",
		molecule.Variant[Value]{
			Name: TagBool.String(), ID: uint32(TagBool),
			Pack: func(v Value) ([]byte, error) {
				b, ok := v.(Bool)
				if !ok {
					return nil, mismatch(TagBool, v)
				}
				if b {
					return []byte{1}, nil
				}
				return []byte{0}, nil
			},
			Unpack: func(data []byte) (Value, error) {
				if len(data) != 1 {
					return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "Bool must be 1 byte, got %d", len(data))
				}
				switch data[0] {
				case 0:
					return Bool(false), nil
				case 1:
					return Bool(true), nil
				}
				return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "invalid Bool byte %#x", data[0])
			},
		},
		bytesVariant(TagBytes, func(b []byte) Value { return Bytes(b) }),
		bytesVariant(TagString, func(b []byte) Value { return String(b) }),
		molecule.Variant[Value]{
			Name: TagAddress.String(), ID: uint32(TagAddress),
			Pack: func(v Value) ([]byte, error) {
				a, ok := v.(Address)
				if !ok {
					return nil, mismatch(TagAddress, v)
				}
				return append([]byte(nil), a[:]...), nil
			},
			Unpack: func(data []byte) (Value, error) {
				raw, err := molecule.UnpackArray(data, len(Address{}))
				if err != nil {
					return nil, err
				}
				var a Address
				copy(a[:], raw)
				return a, nil
			},
		},
		bytesVariant(TagFixedBytes, func(b []byte) Value { return FixedBytes(b) }),
		bytesVariant(TagUint, func(b []byte) Value { return Uint(b) }),
		bytesVariant(TagInt, func(b []byte) Value { return Int(b) }),
		molecule.Variant[Value]{
			Name: TagStruct.String(), ID: uint32(TagStruct),
			Pack: func(v Value) ([]byte, error) {
				s, ok := v.(*Struct)
				if !ok {
					return nil, mismatch(TagStruct, v)
				}
				return MarshalStruct(s)
			},
			Unpack: func(data []byte) (Value, error) {
				return UnmarshalStruct(data)
			},
		},
		molecule.Variant[Value]{
			Name: TagArray.String(), ID: uint32(TagArray),
			Pack: func(v Value) ([]byte, error) {
				a, ok := v.(*Array)
				if !ok {
					return nil, mismatch(TagArray, v)
				}
				return MarshalArray(a)
			},
			Unpack: func(data []byte) (Value, error) {
				return UnmarshalArray(data)
			},
		},
	)
}

func bytesVariant(tag Tag, wrap func([]byte) Value) molecule.Variant[Value] {
	return molecule.Variant[Value]{
		Name: tag.String(),
		ID:   uint32(tag),
		Pack: func(v Value) ([]byte, error) {
			if v == nil || v.Tag() != tag {
				return nil, mismatch(tag, v)
			}
			return molecule.PackFixVec(payload(v)), nil
		},
		Unpack: func(data []byte) (Value, error) {
			raw, err := molecule.UnpackFixVec(data)
			if err != nil {
				return nil, err
			}
			return wrap(append([]byte{}, raw...)), nil
		},
	}
}

// payload returns the raw bytes of the Bytes-shaped variants
func payload(v Value) []byte {
	switch t := v.(type) {
	case Bytes:
		return t
	case String:
		return []byte(t)
	case FixedBytes:
		return t
	case Uint:
		return t
	case Int:
		return t
	}
	return nil
}

func mismatch(want Tag, got Value) error {
	if got == nil {
		return typedwitness.Errorf(typedwitness.KindTypeTagMismatch, "expected %s value, got nil", want)
	}
	return typedwitness.Errorf(typedwitness.KindTypeTagMismatch, "expected %s value, got %s", want, got.Tag())
}

// MarshalValue encodes a Value union
func MarshalValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil Value")
	}
	return ValueUnion.Pack(v.Tag().String(), v)
}

// UnmarshalValue decodes a Value union
func UnmarshalValue(data []byte) (Value, error) {
	_, v, err := ValueUnion.Unpack(data)
	return v, err
}

// MarshalStruct encodes the Struct table
func MarshalStruct(s *Struct) ([]byte, error) {
	if s == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil Struct")
	}
	hash, err := MarshalHash(s.TypeHash)
	if err != nil {
		return nil, err
	}
	values, err := marshalValues(s.Values)
	if err != nil {
		return nil, err
	}
	return molecule.PackTable(hash, values), nil
}

// UnmarshalStruct decodes the Struct table
func UnmarshalStruct(data []byte) (*Struct, error) {
	fields, err := molecule.UnpackTable(data, 2)
	if err != nil {
		return nil, err
	}
	hash, err := UnmarshalHash(fields[0])
	if err != nil {
		return nil, typedwitness.WithPath(err, "type_hash")
	}
	values, err := unmarshalValues(fields[1])
	if err != nil {
		return nil, err
	}
	return &Struct{TypeHash: hash, Values: values}, nil
}

// MarshalArray encodes the Array table
func MarshalArray(a *Array) ([]byte, error) {
	if a == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil Array")
	}
	values, err := marshalValues(a.Values)
	if err != nil {
		return nil, err
	}
	return molecule.PackTable(values), nil
}

// UnmarshalArray decodes the Array table
func UnmarshalArray(data []byte) (*Array, error) {
	fields, err := molecule.UnpackTable(data, 1)
	if err != nil {
		return nil, err
	}
	values, err := unmarshalValues(fields[0])
	if err != nil {
		return nil, err
	}
	return &Array{Values: values}, nil
}

// marshalValues encodes values as a BytesVec of serialized Value unions
func marshalValues(values []Value) ([]byte, error) {
	items := make([][]byte, len(values))
	for i, v := range values {
		enc, err := MarshalValue(v)
		if err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(i))
		}
		items[i] = molecule.PackFixVec(enc)
	}
	return molecule.PackDynVec(items), nil
}

func unmarshalValues(data []byte) ([]Value, error) {
	items, err := molecule.UnpackDynVec(data)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(items))
	for i, item := range items {
		raw, err := molecule.UnpackFixVec(item)
		if err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(i))
		}
		if values[i], err = UnmarshalValue(raw); err != nil {
			return nil, typedwitness.WithPath(err, fmt.Sprint(i))
		}
	}
	return values, nil
}
