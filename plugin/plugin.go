package plugin

import (
	"github.com/ipfs/kubo/plugin"
	"github.com/ipld/go-ipld-prime/multicodec"

	"github.com/vulcanize/go-codec-typedwitness/witness"
)

// Plugins is exported list of plugins that will be loaded
var Plugins = []plugin.Plugin{
	&typedWitnessPlugin{},
}

type typedWitnessPlugin struct{}

var _ plugin.PluginIPLD = (*typedWitnessPlugin)(nil)

// Name satisfies the Plugin interface
func (*typedWitnessPlugin) Name() string {
	return "ipld-typed-witness"
}

// Version satisfies the Plugin interface
func (*typedWitnessPlugin) Version() string {
	return "0.0.1"
}

// Init satisfies the Plugin interface
func (*typedWitnessPlugin) Init(_ *plugin.Environment) error {
	return nil
}

// Register satisfies the PluginIPLD interface
func (*typedWitnessPlugin) Register(reg multicodec.Registry) error {
	reg.RegisterDecoder(witness.MultiCodecType, witness.Decode)
	reg.RegisterEncoder(witness.MultiCodecType, witness.Encode)
	return nil
}
