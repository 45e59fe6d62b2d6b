package molecule

import (
	"encoding/binary"
	"fmt"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

// Variant is one alternative of a Union: its name, its discriminant and the
// codec for its item
type Variant[T any] struct {
	Name   string
	ID     uint32
	Pack   func(T) ([]byte, error)
	Unpack func([]byte) (T, error)
}

// Union is a closed set of named alternatives, each identified on the wire by
// a 4-byte little-endian discriminant followed by the item encoding.
// A Union is immutable after construction and safe for concurrent use.
type Union[T any] struct {
	name   string
	byName map[string]Variant[T]
	byID   map[uint32]Variant[T]
}

// NewUnion builds a union from its variants. Two variants sharing a name or a
// discriminant is a programming error and panics.
func NewUnion[T any](name string, variants ...Variant[T]) *Union[T] {
	u := &Union[T]{
		name:   name,
		byName: make(map[string]Variant[T], len(variants)),
		byID:   make(map[uint32]Variant[T], len(variants)),
	}
	for _, v := range variants {
		if _, ok := u.byName[v.Name]; ok {
			panic(fmt.Sprintf("molecule: union %s declares variant %s twice", name, v.Name))
		}
		if other, ok := u.byID[v.ID]; ok {
			panic(fmt.Sprintf("molecule: union %s variants %s and %s share id %#x", name, other.Name, v.Name, v.ID))
		}
		u.byName[v.Name] = v
		u.byID[v.ID] = v
	}
	return u
}

// Name returns the union's name
func (u *Union[T]) Name() string {
	return u.name
}

// ID returns the discriminant of the named variant
func (u *Union[T]) ID(variant string) (uint32, bool) {
	v, ok := u.byName[variant]
	return v.ID, ok
}

// VariantName returns the name of the variant carrying id
func (u *Union[T]) VariantName(id uint32) (string, bool) {
	v, ok := u.byID[id]
	return v.Name, ok
}

// Pack encodes item as the named variant
func (u *Union[T]) Pack(variant string, item T) ([]byte, error) {
	v, ok := u.byName[variant]
	if !ok {
		return nil, typedwitness.Errorf(typedwitness.KindUnknownVariant, "union %s has no variant %s", u.name, variant)
	}
	body, err := v.Pack(item)
	if err != nil {
		return nil, err
	}
	out := make([]byte, NumberSize, NumberSize+len(body))
	binary.LittleEndian.PutUint32(out, v.ID)
	return append(out, body...), nil
}

// PeekID returns the discriminant of encoded union bytes without decoding the item
func (u *Union[T]) PeekID(data []byte) (uint32, error) {
	if len(data) < NumberSize {
		return 0, typedwitness.Errorf(typedwitness.KindMalformedInput, "union %s needs a %d byte discriminant, got %d bytes", u.name, NumberSize, len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Unpack decodes union bytes, returning the variant name and its item
func (u *Union[T]) Unpack(data []byte) (string, T, error) {
	var zero T
	id, err := u.PeekID(data)
	if err != nil {
		return "", zero, err
	}
	v, ok := u.byID[id]
	if !ok {
		return "", zero, typedwitness.Errorf(typedwitness.KindUnknownVariant, "union %s has no variant with id %#x", u.name, id)
	}
	item, err := v.Unpack(data[NumberSize:])
	if err != nil {
		return "", zero, err
	}
	return v.Name, item, nil
}
