package typedwitness

import (
	"fmt"
	"strings"
)

// Kind categorizes a codec failure
type Kind string

const (
	KindParse                Kind = "parse_error"
	KindStructFieldMismatch  Kind = "struct_field_mismatch"
	KindArrayLengthMismatch  Kind = "array_length_mismatch"
	KindValueRange           Kind = "value_range_error"
	KindUnknownType          Kind = "unknown_type"
	KindUnknownVariant       Kind = "unknown_variant"
	KindTypeTagMismatch      Kind = "type_tag_mismatch"
	KindTypeHashMismatch     Kind = "type_hash_mismatch"
	KindDomainHashMismatch   Kind = "domain_hash_mismatch"
	KindWrongWitness         Kind = "wrong_witness_variant"
	KindMalformedInput       Kind = "malformed_input"
	KindDuplicateAction      Kind = "duplicate_action"
	KindNotTypedTransaction  Kind = "not_typed_transaction"
	KindNotSighashVariant    Kind = "not_sighash_variant"
	KindNonEmptyGroupWitness Kind = "non_empty_group_witness"
)

// Sentinels for errors.Is matching; an *Error matches the sentinel of its Kind.
var (
	ErrParse                = &Error{Kind: KindParse}
	ErrStructFieldMismatch  = &Error{Kind: KindStructFieldMismatch}
	ErrArrayLengthMismatch  = &Error{Kind: KindArrayLengthMismatch}
	ErrValueRange           = &Error{Kind: KindValueRange}
	ErrUnknownType          = &Error{Kind: KindUnknownType}
	ErrUnknownVariant       = &Error{Kind: KindUnknownVariant}
	ErrTypeTagMismatch      = &Error{Kind: KindTypeTagMismatch}
	ErrTypeHashMismatch     = &Error{Kind: KindTypeHashMismatch}
	ErrDomainHashMismatch   = &Error{Kind: KindDomainHashMismatch}
	ErrWrongWitness         = &Error{Kind: KindWrongWitness}
	ErrMalformedInput       = &Error{Kind: KindMalformedInput}
	ErrDuplicateAction      = &Error{Kind: KindDuplicateAction}
	ErrNotTypedTransaction  = &Error{Kind: KindNotTypedTransaction}
	ErrNotSighashVariant    = &Error{Kind: KindNotSighashVariant}
	ErrNonEmptyGroupWitness = &Error{Kind: KindNonEmptyGroupWitness}
)

// Error is the structured error returned by every package of this module
type Error struct {
	Cause  error
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// WithPath returns a copy of the error with segments prepended to its path.
// Errors of other types are wrapped as MalformedInput.
func WithPath(err error, segments ...string) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{Kind: KindMalformedInput, Path: segments, Cause: err}
	}
	cp := *e
	cp.Path = append(append([]string{}, segments...), e.Path...)
	return &cp
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...interface{}) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Errorf is shorthand for New(kind).Detail(msg, args...).Build()
func Errorf(kind Kind, msg string, args ...interface{}) *Error {
	return New(kind).Detail(msg, args...).Build()
}
