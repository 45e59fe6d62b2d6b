package witness

import (
	"encoding/binary"

	"github.com/dchest/blake2b"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/molecule"
	"github.com/vulcanize/go-codec-typedwitness/schema"
)

// SighashPersonalization personalizes the blake2b digest of SighashAllHash
const SighashPersonalization = "ckb-default-hash"

// SighashAllHash returns the blake2b-256 digest a Sighash or SighashWithAction
// lock signs over. groupWitnesses are the witnesses of the lock's input group,
// in order; extraWitnesses are the transaction witnesses past its inputs.
//
// The digest covers txHash, a marker byte (1 followed by the message bytes for
// SighashWithAction, 0 for Sighash), then each extra witness prefixed by its
// length as a little-endian uint64. Group witnesses after the first must be empty.
func SighashAllHash(txHash []byte, groupWitnesses [][]byte, extraWitnesses [][]byte) (common.Hash, error) {
	return DefaultOptions().SighashAllHash(txHash, groupWitnesses, extraWitnesses)
}

// SighashAllHash is like the package function, logging through o.Logger
func (o Options) SighashAllHash(txHash []byte, groupWitnesses [][]byte, extraWitnesses [][]byte) (common.Hash, error) {
	o = o.normalize()
	if len(txHash) != common.HashLength {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "transaction hash must be %d bytes, got %d", common.HashLength, len(txHash))
	}
	if len(groupWitnesses) == 0 {
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindMalformedInput, "input group has no witness")
	}
	h, err := blake2b.New(&blake2b.Config{Size: common.HashLength, Person: []byte(SighashPersonalization)})
	if err != nil {
		return common.Hash{}, err
	}
	h.Write(txHash)

	first := groupWitnesses[0]
	wit, err := schema.UnmarshalWitness(first)
	if err != nil {
		return common.Hash{}, typedwitness.WithPath(err, "0")
	}
	switch wit.(type) {
	case *schema.SighashWithAction:
		fields, err := molecule.UnpackTable(first[molecule.NumberSize:], 2)
		if err != nil {
			return common.Hash{}, typedwitness.WithPath(err, "0")
		}
		h.Write([]byte{1})
		h.Write(fields[1])
	case *schema.Sighash:
		h.Write([]byte{0})
	default:
		return common.Hash{}, typedwitness.Errorf(typedwitness.KindNotSighashVariant, "first group witness is %s", wit.WitnessVariant())
	}

	for i, w := range groupWitnesses[1:] {
		if len(w) > 0 {
			return common.Hash{}, typedwitness.Errorf(typedwitness.KindNonEmptyGroupWitness, "group witness %d carries %d bytes", i+1, len(w))
		}
	}

	var length [8]byte
	for _, w := range extraWitnesses {
		binary.LittleEndian.PutUint64(length[:], uint64(len(w)))
		h.Write(length[:])
		h.Write(w)
	}
	var out common.Hash
	copy(out[:], h.Sum(nil))
	o.Logger.Debug("computed sighash-all digest",
		zap.String("variant", wit.WitnessVariant()),
		zap.Int("extraWitnesses", len(extraWitnesses)),
		zap.Stringer("hash", out))
	return out, nil
}
