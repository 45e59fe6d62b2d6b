package witness

import (
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	"github.com/multiformats/go-multihash"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/shared"
)

var (
	// MultiCodecType is a private-use multicodec code for typed witness bytes
	MultiCodecType = uint64(0x300001)
	MultiHashType  = uint64(multihash.KECCAK_256)
)

// Cid returns the keccak-256 CIDv1 of encoded witness bytes
func Cid(data []byte) (cid.Cid, error) {
	return shared.RawToCid(MultiCodecType, data)
}

// Decode provides an IPLD codec decode interface for typed witness IPLDs.
// This function is registered via the go-ipld-prime link loader for
// MultiCodecType when the plugin package is loaded.
func Decode(na ipld.NodeAssembler, in io.Reader) error {
	src, err := shared.ReadAll(in)
	if err != nil {
		return err
	}
	return DecodeBytes(na, src)
}

// DecodeBytes is like Decode, but it uses an input buffer directly.
// Decode will grab or read all the bytes from an io.Reader anyway, so this can
// save having to copy the bytes or create a bytes.Buffer.
func DecodeBytes(na ipld.NodeAssembler, src []byte) error {
	wit, err := schema.UnmarshalWitness(src)
	if err != nil {
		return fmt.Errorf("invalid typed witness binary (%w)", err)
	}
	return DecodeWitness(na, wit)
}

// DecodeWitness assembles the keyed-union view of a wire witness
func DecodeWitness(na ipld.NodeAssembler, wit schema.Witness) error {
	if wit == nil {
		return fmt.Errorf("invalid typed witness binary (%w)",
			typedwitness.Errorf(typedwitness.KindMalformedInput, "missing witness"))
	}
	upFuncs, ok := witnessUnpackFuncs[wit.WitnessVariant()]
	if !ok {
		return fmt.Errorf("invalid typed witness binary (%w)",
			typedwitness.Errorf(typedwitness.KindUnknownVariant, "unknown witness variant %q", wit.WitnessVariant()))
	}
	ma, err := na.BeginMap(1)
	if err != nil {
		return err
	}
	va, err := ma.AssembleEntry(wit.WitnessVariant())
	if err != nil {
		return err
	}
	inner, err := va.BeginMap(int64(len(upFuncs)))
	if err != nil {
		return err
	}
	for _, upFunc := range upFuncs {
		if err := upFunc(inner, wit); err != nil {
			return fmt.Errorf("invalid typed witness binary (%w)", typedwitness.WithPath(err, wit.WitnessVariant()))
		}
	}
	if err := inner.Finish(); err != nil {
		return err
	}
	return ma.Finish()
}

var witnessUnpackFuncs = map[string][]func(ipld.MapAssembler, schema.Witness) error{
	schema.VariantSighashWithAction: {unpackLock, unpackMessage},
	schema.VariantSighash:           {unpackLock},
	schema.VariantOtx: {
		unpackLock,
		unpackOtxCount("inputCells", func(o *schema.Otx) uint32 { return o.InputCells }),
		unpackOtxCount("outputCells", func(o *schema.Otx) uint32 { return o.OutputCells }),
		unpackOtxCount("cellDeps", func(o *schema.Otx) uint32 { return o.CellDeps }),
		unpackOtxCount("headerDeps", func(o *schema.Otx) uint32 { return o.HeaderDeps }),
		unpackMessage,
	},
	schema.VariantOtxStart: {
		unpackOtxStart("startInputCell", func(s *schema.OtxStart) uint32 { return s.StartInputCell }),
		unpackOtxStart("startOutputCell", func(s *schema.OtxStart) uint32 { return s.StartOutputCell }),
		unpackOtxStart("startCellDeps", func(s *schema.OtxStart) uint32 { return s.StartCellDeps }),
		unpackOtxStart("startHeaderDeps", func(s *schema.OtxStart) uint32 { return s.StartHeaderDeps }),
	},
}

func unpackLock(ma ipld.MapAssembler, wit schema.Witness) error {
	var lock []byte
	switch w := wit.(type) {
	case *schema.SighashWithAction:
		lock = w.Lock
	case *schema.Sighash:
		lock = w.Lock
	case *schema.Otx:
		lock = w.Lock
	}
	if err := ma.AssembleKey().AssignString("lock"); err != nil {
		return err
	}
	if err := ma.AssembleValue().AssignBytes(lock); err != nil {
		return err
	}
	return nil
}

func unpackMessage(ma ipld.MapAssembler, wit schema.Witness) error {
	var msg schema.TypedMessage
	switch w := wit.(type) {
	case *schema.SighashWithAction:
		msg = w.Message
	case *schema.Otx:
		msg = w.Message
	}
	va, err := ma.AssembleEntry("message")
	if err != nil {
		return err
	}
	if err := unpackTypedMessage(va, msg); err != nil {
		return typedwitness.WithPath(err, "message")
	}
	return nil
}

func unpackOtxCount(key string, get func(*schema.Otx) uint32) func(ipld.MapAssembler, schema.Witness) error {
	return func(ma ipld.MapAssembler, wit schema.Witness) error {
		if err := ma.AssembleKey().AssignString(key); err != nil {
			return err
		}
		return ma.AssembleValue().AssignInt(int64(get(wit.(*schema.Otx))))
	}
}

func unpackOtxStart(key string, get func(*schema.OtxStart) uint32) func(ipld.MapAssembler, schema.Witness) error {
	return func(ma ipld.MapAssembler, wit schema.Witness) error {
		if err := ma.AssembleKey().AssignString(key); err != nil {
			return err
		}
		return ma.AssembleValue().AssignInt(int64(get(wit.(*schema.OtxStart))))
	}
}
