package typestr

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/primitive"
)

// ArrayLengthPolicy decides what a non-numeric array length such as T[abc] means
type ArrayLengthPolicy int

const (
	// LenientArrayLength reads a bracket that is not a non-negative decimal as T[]
	LenientArrayLength ArrayLengthPolicy = iota
	// StrictArrayLength rejects it with a parse error
	StrictArrayLength
)

// Parser parses type strings and memoizes the results. A Parser is meant to
// live for a single encode or decode call and is not safe for concurrent use.
type Parser struct {
	ArrayLength ArrayLengthPolicy
	Logger      *zap.Logger

	cache map[string]Descriptor
}

// NewParser returns a Parser with the given policy and a no-op logger
func NewParser(policy ArrayLengthPolicy) *Parser {
	return &Parser{ArrayLength: policy, Logger: zap.NewNop()}
}

// Parse parses a type string with the lenient array length policy
func Parse(s string) (Descriptor, error) {
	return NewParser(LenientArrayLength).Parse(s)
}

// Parse parses s, returning a cached descriptor when s was seen before
func (p *Parser) Parse(s string) (Descriptor, error) {
	if d, ok := p.cache[s]; ok {
		return d, nil
	}
	d, err := p.parse(s)
	if err != nil {
		return nil, err
	}
	if p.cache == nil {
		p.cache = make(map[string]Descriptor)
	}
	p.cache[s] = d
	return d, nil
}

func (p *Parser) parse(s string) (Descriptor, error) {
	if s == "" {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "empty type string")
	}
	if strings.HasSuffix(s, "]") {
		return p.parseArray(s)
	}
	return parseScalar(s)
}

func (p *Parser) parseArray(s string) (Descriptor, error) {
	open := strings.LastIndexByte(s, '[')
	if open <= 0 {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "malformed array type %q", s)
	}
	bracket := s[open+1 : len(s)-1]
	// T[2][3] is a length-3 array of T[2]
	elem, err := p.Parse(s[:open])
	if err != nil {
		return nil, err
	}
	if bracket == "" {
		return DynamicArray{Elem: elem}, nil
	}
	if n, ok := parseLength(bracket); ok {
		return FixedArray{Elem: elem, Len: n}, nil
	}
	if p.ArrayLength == StrictArrayLength {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "array length %q in %q is not a non-negative integer", bracket, s)
	}
	if p.Logger != nil {
		p.Logger.Debug("treating malformed array length as dynamic", zap.String("type", s), zap.String("length", bracket))
	}
	return DynamicArray{Elem: elem}, nil
}

func parseLength(s string) (int, bool) {
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseScalar(s string) (Descriptor, error) {
	switch s {
	case "bool":
		return Primitive{Kind: Bool}, nil
	case "bytes":
		return Primitive{Kind: Bytes}, nil
	case "string":
		return Primitive{Kind: String}, nil
	case "address":
		return Primitive{Kind: Address, Width: AddressSize}, nil
	case "uint":
		return Primitive{Kind: Uint, Width: primitive.MaxBits}, nil
	case "int":
		return Primitive{Kind: Int, Width: primitive.MaxBits}, nil
	}
	for _, pfx := range []struct {
		prefix string
		kind   Kind
	}{{"bytes", FixedBytes}, {"uint", Uint}, {"int", Int}} {
		rest := strings.TrimPrefix(s, pfx.prefix)
		if rest == s || !isDigits(rest) {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindParse).Detail("bad width in %q", s).Cause(err).Build()
		}
		if pfx.kind == FixedBytes {
			if n < 1 || n > 32 {
				return nil, typedwitness.Errorf(typedwitness.KindParse, "%q: fixed bytes length must be in [1, 32]", s)
			}
			return Primitive{Kind: FixedBytes, Width: n}, nil
		}
		if err := primitive.ValidWidth(n); err != nil {
			return nil, typedwitness.New(typedwitness.KindParse).Detail("%q", s).Cause(err).Build()
		}
		return Primitive{Kind: pfx.kind, Width: n}, nil
	}
	if !isIdentifier(s) {
		return nil, typedwitness.Errorf(typedwitness.KindParse, "%q is not a primitive type or a type name", s)
	}
	return Named{Name: s}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
