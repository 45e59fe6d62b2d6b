// Package typestr parses EIP-712 type strings into descriptors and holds the
// caller-supplied registry of named struct types they resolve against.
package typestr

import (
	"fmt"
)

// Kind identifies a primitive type
type Kind int

const (
	Bool Kind = iota
	Bytes
	String
	Address
	FixedBytes
	Uint
	Int
)

// AddressSize is the byte length of an address
const AddressSize = 20

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	case String:
		return "string"
	case Address:
		return "address"
	case FixedBytes:
		return "bytesN"
	case Uint:
		return "uint"
	case Int:
		return "int"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor is a parsed type string: one of Primitive, FixedArray,
// DynamicArray or Named
type Descriptor interface {
	String() string
	isDescriptor()
}

// Primitive is a leaf type. Width is the bit width for Uint and Int, the byte
// length for FixedBytes and Address, and zero otherwise.
type Primitive struct {
	Kind  Kind
	Width int
}

// FixedArray is T[N]
type FixedArray struct {
	Elem Descriptor
	Len  int
}

// DynamicArray is T[]
type DynamicArray struct {
	Elem Descriptor
}

// Named refers to a struct type in the Registry; it is resolved at encode or
// decode time, not at parse time
type Named struct {
	Name string
}

func (Primitive) isDescriptor()    {}
func (FixedArray) isDescriptor()   {}
func (DynamicArray) isDescriptor() {}
func (Named) isDescriptor()        {}

func (p Primitive) String() string {
	switch p.Kind {
	case FixedBytes:
		return fmt.Sprintf("bytes%d", p.Width)
	case Uint, Int:
		return fmt.Sprintf("%s%d", p.Kind, p.Width)
	default:
		return p.Kind.String()
	}
}

func (a FixedArray) String() string {
	return fmt.Sprintf("%s[%d]", a.Elem, a.Len)
}

func (a DynamicArray) String() string {
	return a.Elem.String() + "[]"
}

func (n Named) String() string {
	return n.Name
}
