package witness

import (
	"go.uber.org/zap"

	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/value"
)

// Options configures the envelope operations
type Options struct {
	Logger *zap.Logger
	// Hasher computes type hashes and domain separators; nil means hashing.Keccak
	Hasher hashing.Hasher
	Value  value.Options
}

// DefaultOptions returns Keccak hashing, lenient array parsing and no logging
func DefaultOptions() Options {
	return Options{
		Logger: zap.NewNop(),
		Hasher: hashing.Keccak{},
		Value:  value.DefaultOptions(),
	}
}

func (o Options) normalize() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Hasher == nil {
		o.Hasher = hashing.Keccak{}
	}
	if o.Value.Logger == nil {
		o.Value.Logger = o.Logger
	}
	return o
}
