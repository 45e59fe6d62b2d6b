// Package primitive holds the fixed-width and variable-width encoders for the
// leaf values of a typed message: booleans, big-endian signed and unsigned
// integers of 8 to 256 bits, raw bytes and UTF-8 strings.
//
// Integers cross the API as *big.Int regardless of width. Widths up to
// NativeBits are surfaced to value trees as native integers by the callers;
// wider ones as decimal strings (see Native).
package primitive

import (
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

const (
	MinBits = 8
	MaxBits = 256
	// NativeBits is the widest integer surfaced as a native int in value trees
	NativeBits = 32
)

// Native reports whether integers of the given width round-trip as native integers
func Native(bits int) bool {
	return bits <= NativeBits
}

// ValidWidth checks that bits is a multiple of 8 in [8, 256]
func ValidWidth(bits int) error {
	if bits < MinBits || bits > MaxBits || bits%8 != 0 {
		return typedwitness.Errorf(typedwitness.KindParse, "integer width %d must be a multiple of 8 in [%d, %d]", bits, MinBits, MaxBits)
	}
	return nil
}

// MaxUint returns 2^bits - 1
func MaxUint(bits int) *big.Int {
	return new(big.Int).Sub(math.BigPow(2, int64(bits)), big.NewInt(1))
}

// MaxInt returns 2^(bits-1) - 1
func MaxInt(bits int) *big.Int {
	return new(big.Int).Sub(math.BigPow(2, int64(bits-1)), big.NewInt(1))
}

// MinInt returns -2^(bits-1)
func MinInt(bits int) *big.Int {
	return new(big.Int).Neg(math.BigPow(2, int64(bits-1)))
}

// EncodeUint encodes v as a bits/8 byte big-endian integer
func EncodeUint(bits int, v *big.Int) ([]byte, error) {
	if err := ValidWidth(bits); err != nil {
		return nil, err
	}
	if v == nil || v.Sign() < 0 || v.Cmp(MaxUint(bits)) > 0 {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%v is out of range for uint%d", v, bits)
	}
	u, _ := uint256.FromBig(v)
	word := u.Bytes32()
	return append([]byte(nil), word[32-bits/8:]...), nil
}

// DecodeUint decodes a bits/8 byte big-endian unsigned integer
func DecodeUint(bits int, data []byte) (*big.Int, error) {
	if err := checkPayload(bits, data); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(data).ToBig(), nil
}

// EncodeInt encodes v as a bits/8 byte big-endian two's-complement integer
func EncodeInt(bits int, v *big.Int) ([]byte, error) {
	if err := ValidWidth(bits); err != nil {
		return nil, err
	}
	if v == nil || v.Cmp(MinInt(bits)) < 0 || v.Cmp(MaxInt(bits)) > 0 {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%v is out of range for int%d", v, bits)
	}
	// FromBig stores negatives as 2^256 + v; the low bits/8 bytes are 2^bits + v
	u, _ := uint256.FromBig(v)
	word := u.Bytes32()
	return append([]byte(nil), word[32-bits/8:]...), nil
}

// DecodeInt decodes a bits/8 byte big-endian two's-complement integer
func DecodeInt(bits int, data []byte) (*big.Int, error) {
	if err := checkPayload(bits, data); err != nil {
		return nil, err
	}
	u := new(uint256.Int).SetBytes(data)
	if data[0]&0x80 != 0 {
		u.ExtendSign(u, uint256.NewInt(uint64(len(data)-1)))
	}
	return math.S256(u.ToBig()), nil
}

// EncodeBool encodes a boolean as a single 0x00 or 0x01 byte
func EncodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBool decodes a single byte boolean; anything but 0x00 and 0x01 is rejected
func DecodeBool(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, typedwitness.Errorf(typedwitness.KindMalformedInput, "bool must be 1 byte, got %d", len(data))
	}
	switch data[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, typedwitness.Errorf(typedwitness.KindMalformedInput, "invalid bool byte %#x", data[0])
	}
}

// EncodeBytes is a passthrough copy
func EncodeBytes(b []byte) []byte {
	return append([]byte{}, b...)
}

// EncodeString returns the UTF-8 bytes of s
func EncodeString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "string is not valid UTF-8")
	}
	return []byte(s), nil
}

// DecodeString decodes UTF-8 bytes
func DecodeString(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", typedwitness.Errorf(typedwitness.KindMalformedInput, "string payload is not valid UTF-8")
	}
	return string(data), nil
}

func checkPayload(bits int, data []byte) error {
	if err := ValidWidth(bits); err != nil {
		return err
	}
	if len(data) != bits/8 {
		return typedwitness.Errorf(typedwitness.KindValueRange, "%d bit integer needs %d bytes, got %d", bits, bits/8, len(data))
	}
	return nil
}
