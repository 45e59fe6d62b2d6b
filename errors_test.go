package typedwitness_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

func TestErrorIs(t *testing.T) {
	err := typedwitness.Errorf(typedwitness.KindTypeHashMismatch, "Person: embedded %x", []byte{1})
	require.True(t, errors.Is(err, typedwitness.ErrTypeHashMismatch))
	require.False(t, errors.Is(err, typedwitness.ErrDomainHashMismatch))

	wrapped := fmt.Errorf("invalid typed witness form (%w)", err)
	require.True(t, errors.Is(wrapped, typedwitness.ErrTypeHashMismatch))
	require.Equal(t, "type_hash_mismatch: Person: embedded 01", err.Error())
}

func TestWithPath(t *testing.T) {
	inner := typedwitness.New(typedwitness.KindValueRange).Path("wallet").Detail("too short").Build()
	outer := typedwitness.WithPath(typedwitness.WithPath(inner, "from"), "message")

	var e *typedwitness.Error
	require.True(t, errors.As(outer, &e))
	require.Equal(t, []string{"message", "from", "wallet"}, e.Path)
	require.Equal(t, "value_range_error at message.from.wallet: too short", outer.Error())
	// the input error keeps its own path
	require.Equal(t, []string{"wallet"}, inner.Path)

	require.NoError(t, typedwitness.WithPath(nil, "x"))

	foreign := typedwitness.WithPath(io.ErrUnexpectedEOF, "lock")
	require.True(t, errors.Is(foreign, typedwitness.ErrMalformedInput))
	require.True(t, errors.Is(foreign, io.ErrUnexpectedEOF))
}

func TestBuilderCause(t *testing.T) {
	err := typedwitness.New(typedwitness.KindParse).Detail("bad %s", "json").Cause(io.EOF).Build()
	require.True(t, errors.Is(err, io.EOF))
	require.Equal(t, "parse_error: bad json (caused by: EOF)", err.Error())
}
