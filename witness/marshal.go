package witness

import (
	"fmt"
	"io"

	"github.com/ipld/go-ipld-prime"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/shared"
)

// Encode provides an IPLD codec encode interface for typed witness IPLDs.
// This function is registered via the go-ipld-prime link loader for
// MultiCodecType when the plugin package is loaded.
func Encode(node ipld.Node, w io.Writer) error {
	// 1KiB can be allocated on the stack, and covers most small nodes
	// without having to grow the buffer and cause allocations.
	enc := make([]byte, 0, 1024)

	enc, err := AppendEncode(enc, node)
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

// AppendEncode is like Encode, but it uses a destination buffer directly.
// This means less copying of bytes, and if the destination has enough capacity,
// fewer allocations.
func AppendEncode(enc []byte, inNode ipld.Node) ([]byte, error) {
	wit, err := EncodeWitness(inNode)
	if err != nil {
		return enc, err
	}
	data, err := schema.MarshalWitness(wit)
	if err != nil {
		return enc, fmt.Errorf("invalid typed witness form (unable to encode witness: %w)", err)
	}
	wbs := shared.NewWriteableByteSlice(&enc)
	if _, err := wbs.Write(data); err != nil {
		return enc, err
	}
	return enc, nil
}

// EncodeWitness packs the keyed-union node into a wire witness
func EncodeWitness(inNode ipld.Node) (schema.Witness, error) {
	variant, item, err := unionEntry(inNode)
	if err != nil {
		return nil, fmt.Errorf("invalid typed witness form (%w)", err)
	}
	pack, ok := witnessPackFuncs[variant]
	if !ok {
		return nil, fmt.Errorf("invalid typed witness form (%w)",
			typedwitness.Errorf(typedwitness.KindUnknownVariant, "unknown witness variant %q", variant))
	}
	if item.Kind() != ipld.Kind_Map {
		return nil, fmt.Errorf("invalid typed witness form (%w)",
			typedwitness.Errorf(typedwitness.KindMalformedInput, "%s must be a map", variant))
	}
	wit, err := pack(item)
	if err != nil {
		return nil, fmt.Errorf("invalid typed witness form (%w)", typedwitness.WithPath(err, variant))
	}
	return wit, nil
}

var witnessPackFuncs = map[string]func(ipld.Node) (schema.Witness, error){
	schema.VariantSighashWithAction: packSighashWithAction,
	schema.VariantSighash:           packSighash,
	schema.VariantOtx:               packOtx,
	schema.VariantOtxStart:          packOtxStart,
}

func packSighashWithAction(node ipld.Node) (schema.Witness, error) {
	lock, err := lookupBytes(node, "lock")
	if err != nil {
		return nil, err
	}
	msg, err := packMessage(node)
	if err != nil {
		return nil, err
	}
	return &schema.SighashWithAction{Lock: lock, Message: msg}, nil
}

func packSighash(node ipld.Node) (schema.Witness, error) {
	lock, err := lookupBytes(node, "lock")
	if err != nil {
		return nil, err
	}
	return &schema.Sighash{Lock: lock}, nil
}

var requiredOtxPackFuncs = []func(*schema.Otx, ipld.Node) error{
	packOtxLock,
	packInputCells,
	packOutputCells,
	packCellDeps,
	packHeaderDeps,
	packOtxMessage,
}

func packOtx(node ipld.Node) (schema.Witness, error) {
	otx := new(schema.Otx)
	for _, pFunc := range requiredOtxPackFuncs {
		if err := pFunc(otx, node); err != nil {
			return nil, err
		}
	}
	return otx, nil
}

func packOtxLock(otx *schema.Otx, node ipld.Node) (err error) {
	otx.Lock, err = lookupBytes(node, "lock")
	return err
}

func packInputCells(otx *schema.Otx, node ipld.Node) (err error) {
	otx.InputCells, err = lookupUint32(node, "inputCells")
	return err
}

func packOutputCells(otx *schema.Otx, node ipld.Node) (err error) {
	otx.OutputCells, err = lookupUint32(node, "outputCells")
	return err
}

func packCellDeps(otx *schema.Otx, node ipld.Node) (err error) {
	otx.CellDeps, err = lookupUint32(node, "cellDeps")
	return err
}

func packHeaderDeps(otx *schema.Otx, node ipld.Node) (err error) {
	otx.HeaderDeps, err = lookupUint32(node, "headerDeps")
	return err
}

func packOtxMessage(otx *schema.Otx, node ipld.Node) (err error) {
	otx.Message, err = packMessage(node)
	return err
}

func packMessage(node ipld.Node) (schema.TypedMessage, error) {
	m, err := node.LookupByString("message")
	if err != nil {
		return nil, typedwitness.New(typedwitness.KindMalformedInput).Path("message").Cause(err).Build()
	}
	msg, err := packTypedMessage(m)
	if err != nil {
		return nil, typedwitness.WithPath(err, "message")
	}
	return msg, nil
}

func packOtxStart(node ipld.Node) (schema.Witness, error) {
	start := new(schema.OtxStart)
	fields := []struct {
		key string
		dst *uint32
	}{
		{"startInputCell", &start.StartInputCell},
		{"startOutputCell", &start.StartOutputCell},
		{"startCellDeps", &start.StartCellDeps},
		{"startHeaderDeps", &start.StartHeaderDeps},
	}
	for _, f := range fields {
		v, err := lookupUint32(node, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return start, nil
}
