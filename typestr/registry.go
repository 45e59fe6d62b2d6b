package typestr

import (
	"fmt"
	"sort"
	"strings"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

// DomainType is the name of the EIP-712 domain pseudo-type
const DomainType = "EIP712Domain"

// Field is one declared member of a struct type
type Field struct {
	Name string
	Type string
}

// Registry maps struct type names to their ordered fields. It is owned by the
// caller and only read by the codec.
type Registry map[string][]Field

// Lookup returns the fields of the named struct
func (r Registry) Lookup(name string) ([]Field, bool) {
	fields, ok := r[name]
	return fields, ok
}

// Resolve returns the fields of a Named descriptor, or UnknownType
func (r Registry) Resolve(n Named) ([]Field, error) {
	fields, ok := r[n.Name]
	if !ok {
		return nil, typedwitness.Errorf(typedwitness.KindUnknownType, "type %q is neither a primitive nor a registered struct", n.Name)
	}
	return fields, nil
}

// Names returns the registered type names in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature renders the struct as Name(type1 name1,type2 name2)
func (r Registry) Signature(name string) (string, error) {
	fields, ok := r[name]
	if !ok {
		return "", typedwitness.Errorf(typedwitness.KindUnknownType, "type %q is not registered", name)
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s %s", f.Type, f.Name)
	}
	return name + "(" + strings.Join(parts, ",") + ")", nil
}

// Validate parses every field type of every struct and checks that named
// references resolve and field names are unique
func (r Registry) Validate(p *Parser) error {
	if p == nil {
		p = NewParser(LenientArrayLength)
	}
	for _, name := range r.Names() {
		seen := make(map[string]struct{}, len(r[name]))
		for _, f := range r[name] {
			if _, dup := seen[f.Name]; dup {
				return typedwitness.New(typedwitness.KindParse).Path(name, f.Name).Detail("duplicate field").Build()
			}
			seen[f.Name] = struct{}{}
			d, err := p.Parse(f.Type)
			if err != nil {
				return typedwitness.WithPath(err, name, f.Name)
			}
			if n, ok := Base(d).(Named); ok {
				if _, err := r.Resolve(n); err != nil {
					return typedwitness.WithPath(err, name, f.Name)
				}
			}
		}
	}
	return nil
}

// Base strips array layers off a descriptor
func Base(d Descriptor) Descriptor {
	for {
		switch a := d.(type) {
		case FixedArray:
			d = a.Elem
		case DynamicArray:
			d = a.Elem
		default:
			return d
		}
	}
}
