package witness

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"go.uber.org/zap"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/hashing"
	"github.com/vulcanize/go-codec-typedwitness/schema"
	"github.com/vulcanize/go-codec-typedwitness/typeddata"
	"github.com/vulcanize/go-codec-typedwitness/typestr"
	"github.com/vulcanize/go-codec-typedwitness/value"
)

// BuildMessageWitness wraps msg and lock into SighashWithAction witness bytes
func BuildMessageWitness(msg schema.TypedMessage, lock []byte) ([]byte, error) {
	if msg == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "missing typed message")
	}
	return schema.MarshalWitness(&schema.SighashWithAction{Lock: lock, Message: msg})
}

// ParseMessageWitness unpacks witness bytes that must hold a SighashWithAction
// and returns its message and lock. The lock is returned uninterpreted.
func ParseMessageWitness(data []byte) (schema.TypedMessage, []byte, error) {
	wit, err := schema.UnmarshalWitness(data)
	if err != nil {
		return nil, nil, err
	}
	sa, ok := wit.(*schema.SighashWithAction)
	if !ok {
		return nil, nil, typedwitness.Errorf(typedwitness.KindWrongWitness, "expected %s witness, got %s",
			schema.VariantSighashWithAction, wit.WitnessVariant())
	}
	return sa.Message, sa.Lock, nil
}

// EncodeMessage encodes the message of td as its primary type and embeds the
// domain separator of td.Domain
func EncodeMessage(td *typeddata.TypedData, opts Options) (*schema.EIP712, error) {
	opts = opts.normalize()
	if td == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "missing typed data")
	}
	if td.Domain == nil {
		return nil, typedwitness.New(typedwitness.KindValueRange).Path(typeddata.KeyDomain).Detail("a domain is required to build a message").Build()
	}
	domain, err := hashing.EmbedDomainHash(opts.Hasher, td.Types, td.Domain)
	if err != nil {
		return nil, typedwitness.WithPath(err, typeddata.KeyDomain)
	}
	codec := value.NewCodec(td.Types, opts.Hasher, opts.Value)
	s, err := codec.EncodeStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, typedwitness.WithPath(err, typeddata.KeyMessage)
	}
	return &schema.EIP712{DomainSeparator: domain, Message: s}, nil
}

// DecodeMessage decodes msg as primaryType against reg. When domain is not
// nil the embedded domain separator is checked against it. A nil domain skips
// that check: the result is then unverified for its domain and carries none.
func DecodeMessage(msg schema.TypedMessage, reg typestr.Registry, primaryType string, domain datamodel.Node, opts Options) (*typeddata.TypedData, error) {
	opts = opts.normalize()
	m, ok := msg.(*schema.EIP712)
	if !ok || m == nil {
		return nil, typedwitness.Errorf(typedwitness.KindUnknownVariant, "unsupported typed message %T", msg)
	}
	if domain != nil {
		if err := hashing.VerifyDomainHash(opts.Hasher, reg, domain, m.DomainSeparator); err != nil {
			opts.Logger.Debug("domain separator mismatch", zap.Error(err))
			return nil, typedwitness.WithPath(err, typeddata.KeyDomain)
		}
	} else {
		opts.Logger.Debug("domain separator not verified, no domain given", zap.String("primaryType", primaryType))
	}
	codec := value.NewCodec(reg, opts.Hasher, opts.Value)
	node, err := codec.DecodeNode(primaryType, m.Message)
	if err != nil {
		return nil, typedwitness.WithPath(err, typeddata.KeyMessage)
	}
	return &typeddata.TypedData{Types: reg, PrimaryType: primaryType, Domain: domain, Message: node}, nil
}

// BuildFromTypedData encodes td and wraps it with lock into witness bytes
func BuildFromTypedData(td *typeddata.TypedData, lock []byte, opts Options) ([]byte, error) {
	msg, err := EncodeMessage(td, opts)
	if err != nil {
		return nil, err
	}
	return BuildMessageWitness(msg, lock)
}

// ParseToTypedData parses SighashWithAction witness bytes and decodes the
// message as primaryType against reg, returning it with the lock
func ParseToTypedData(data []byte, reg typestr.Registry, primaryType string, domain datamodel.Node, opts Options) (*typeddata.TypedData, []byte, error) {
	msg, lock, err := ParseMessageWitness(data)
	if err != nil {
		return nil, nil, err
	}
	td, err := DecodeMessage(msg, reg, primaryType, domain, opts)
	if err != nil {
		return nil, nil, err
	}
	return td, lock, nil
}
