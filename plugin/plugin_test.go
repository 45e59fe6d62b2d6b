package plugin

import (
	"bytes"
	"testing"

	_ "github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/multicodec"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/stretchr/testify/require"

	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/witness"
)

func TestRegister(t *testing.T) {
	require.Len(t, Plugins, 1)
	p := Plugins[0].(*typedWitnessPlugin)
	require.NoError(t, p.Init(nil))

	// the registry is passed by value, so its tables must exist before Register;
	// dag-json populates the default one on import
	reg := multicodec.DefaultRegistry
	require.NoError(t, p.Register(reg))

	data, err := schema.MarshalWitness(&schema.Sighash{Lock: []byte{0xAA, 0xBB}})
	require.NoError(t, err)

	dec, err := reg.LookupDecoder(witness.MultiCodecType)
	require.NoError(t, err)
	nb := basicnode.Prototype.Any.NewBuilder()
	require.NoError(t, dec(nb, bytes.NewReader(data)))

	enc, err := reg.LookupEncoder(witness.MultiCodecType)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, enc(nb.Build(), &buf))
	require.Equal(t, data, buf.Bytes())
}
