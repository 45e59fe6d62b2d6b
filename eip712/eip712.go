// Package eip712 computes the EIP-712 signing hash of a typed message straight
// from its wire form, without the type registry: the embedded type hash and
// domain separator stand in for the declarations.
package eip712

import (
	"hash"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
)

const wordSize = 32

// HashResolver loads the 32 bytes a referenced hash points at. Cell and
// transaction loading belongs to the caller's execution environment.
type HashResolver interface {
	ResolveCell(ref schema.RefCell) ([]byte, error)
	ResolveTransaction(ref schema.RefTransaction) ([]byte, error)
}

// SigningHash returns keccak256(0x19 0x01 || domainSeparator || hashStruct(message))
func SigningHash(msg schema.TypedMessage, r HashResolver) (common.Hash, error) {
	m, ok := msg.(*schema.EIP712)
	if !ok || m == nil {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported typed message %T", msg)
	}
	domain, err := FetchHash(m.DomainSeparator, r)
	if err != nil {
		return common.Hash{}, typedwitness.WithPath(err, "domain_separator")
	}
	msgHash, err := HashStruct(m.Message, r)
	if err != nil {
		return common.Hash{}, typedwitness.WithPath(err, "message")
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{0x19, 0x01})
	h.Write(domain[:])
	h.Write(msgHash[:])
	return sum(h), nil
}

// FetchHash returns an inline hash or resolves a referenced one
func FetchHash(h schema.Hash, r HashResolver) (common.Hash, error) {
	var (
		data []byte
		err  error
	)
	switch v := h.(type) {
	case schema.Byte32:
		return common.Hash(v), nil
	case schema.RefCell:
		if r == nil {
			return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "no resolver for cell reference %+v", v)
		}
		data, err = r.ResolveCell(v)
	case schema.RefTransaction:
		if r == nil {
			return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "no resolver for transaction reference %+v", v)
		}
		data, err = r.ResolveTransaction(v)
	default:
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported hash %T", h)
	}
	if err != nil {
		return common.Hash{}, typedwitness.New(typedwitness.KindMalformedInput).Detail("unable to resolve hash").Cause(err).Build()
	}
	if len(data) < wordSize {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "resolved hash is %d bytes, need %d", len(data), wordSize)
	}
	return common.BytesToHash(data[:wordSize]), nil
}

// HashStruct returns keccak256(typeHash || enc(value1) || ... || enc(valueN))
func HashStruct(s *schema.Struct, r HashResolver) (common.Hash, error) {
	if s == nil {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "missing struct")
	}
	typeHash, err := FetchHash(s.TypeHash, r)
	if err != nil {
		return common.Hash{}, typedwitness.WithPath(err, "type_hash")
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(typeHash[:])
	for i, v := range s.Values {
		if err := encodeValue(h, v, r); err != nil {
			return common.Hash{}, typedwitness.WithPath(err, strconv.Itoa(i))
		}
	}
	return sum(h), nil
}

func encodeValue(h hash.Hash, v schema.Value, r HashResolver) error {
	switch t := v.(type) {
	case *schema.Struct:
		sh, err := HashStruct(t, r)
		if err != nil {
			return err
		}
		h.Write(sh[:])
	case *schema.Array:
		// arrays hash to keccak256 of their concatenated element encodings
		ah := sha3.NewLegacyKeccak256()
		for i, item := range t.Values {
			if err := encodeValue(ah, item, r); err != nil {
				return typedwitness.WithPath(err, strconv.Itoa(i))
			}
		}
		h.Write(ah.Sum(nil))
	case schema.Bool:
		if t {
			return writeNumber(h, []byte{1}, false)
		}
		return writeNumber(h, []byte{0}, false)
	case schema.Bytes:
		h.Write(keccak(t))
	case schema.String:
		h.Write(keccak([]byte(t)))
	case schema.Address:
		// encoded as uint160
		return writeNumber(h, t[:], false)
	case schema.FixedBytes:
		if len(t) > wordSize {
			return typedwitness.Errorf(typedwitness.KindMalformedInput, "fixed bytes of %d bytes exceed a word", len(t))
		}
		var word [wordSize]byte
		copy(word[:], t)
		h.Write(word[:])
	case schema.Uint:
		return writeNumber(h, t, false)
	case schema.Int:
		return writeNumber(h, t, true)
	default:
		return typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported value %T", v)
	}
	return nil
}

// writeNumber left pads a big-endian number to a word, sign extending when signed
func writeNumber(h hash.Hash, be []byte, signed bool) error {
	if len(be) == 0 || len(be) > wordSize {
		return typedwitness.Errorf(typedwitness.KindMalformedInput, "number of %d bytes does not fit a word", len(be))
	}
	var word [wordSize]byte
	if signed && be[0]&0x80 != 0 {
		for i := range word {
			word[i] = 0xff
		}
	}
	copy(word[wordSize-len(be):], be)
	h.Write(word[:])
	return nil
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func sum(h hash.Hash) common.Hash {
	return common.BytesToHash(h.Sum(nil))
}
