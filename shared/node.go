package shared

import (
	"io"
	"io/ioutil"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ipld/go-ipld-prime/datamodel"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

// ReadAll grabs the bytes behind in, without copying when in exposes them
func ReadAll(in io.Reader) ([]byte, error) {
	if buf, ok := in.(interface{ Bytes() []byte }); ok {
		return buf.Bytes(), nil
	}
	return ioutil.ReadAll(in)
}

// NodeToBytes reads a byte string from a Bytes node or a 0x-prefixed hex String node
func NodeToBytes(n datamodel.Node) ([]byte, error) {
	switch n.Kind() {
	case datamodel.Kind_Bytes:
		return n.AsBytes()
	case datamodel.Kind_String:
		s, err := n.AsString()
		if err != nil {
			return nil, err
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, typedwitness.New(typedwitness.KindValueRange).Detail("%q is not 0x-prefixed hex", s).Cause(err).Build()
		}
		return b, nil
	default:
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "expected bytes or hex string, got %s", n.Kind())
	}
}

// NodeToBig reads an integer from an Int node, or from a String node holding a
// decimal (optionally negative) or 0x-prefixed hex number
func NodeToBig(n datamodel.Node) (*big.Int, error) {
	switch n.Kind() {
	case datamodel.Kind_Int:
		i, err := n.AsInt()
		if err != nil {
			return nil, err
		}
		return big.NewInt(i), nil
	case datamodel.Kind_String:
		s, err := n.AsString()
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		v, ok := math.ParseBig256(s)
		if !ok || s == "" {
			return nil, typedwitness.Errorf(typedwitness.KindValueRange, "%q is not a 256 bit integer", s)
		}
		return v, nil
	default:
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "expected integer or numeric string, got %s", n.Kind())
	}
}
