package schema

import (
	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/molecule"
)

// TypedMessage is the union of signable message formats. EIP712 is the only variant.
type TypedMessage interface {
	typedMessageVariant() string
}

// EIP712 is an EIP-712 message: its domain separator and root struct
type EIP712 struct {
	DomainSeparator Hash
	Message         *Struct
}

func (*EIP712) typedMessageVariant() string { return "EIP712" }

// TypedMessageUnion is the Molecule union over TypedMessage variants
var TypedMessageUnion = molecule.NewUnion[TypedMessage]("TypedMessage",
	molecule.Variant[TypedMessage]{
		Name: "EIP712", ID: 0,
		Pack: func(m TypedMessage) ([]byte, error) {
			e, ok := m.(*EIP712)
			if !ok || e == nil {
				return nil, variantMismatch("EIP712", m)
			}
			domain, err := MarshalHash(e.DomainSeparator)
			if err != nil {
				return nil, typedwitness.WithPath(err, "domain_separator")
			}
			message, err := MarshalStruct(e.Message)
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return molecule.PackTable(domain, message), nil
		},
		Unpack: func(data []byte) (TypedMessage, error) {
			fields, err := molecule.UnpackTable(data, 2)
			if err != nil {
				return nil, err
			}
			domain, err := UnmarshalHash(fields[0])
			if err != nil {
				return nil, typedwitness.WithPath(err, "domain_separator")
			}
			message, err := UnmarshalStruct(fields[1])
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return &EIP712{DomainSeparator: domain, Message: message}, nil
		},
	},
)

// MarshalTypedMessage encodes a TypedMessage union
func MarshalTypedMessage(m TypedMessage) ([]byte, error) {
	if m == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil TypedMessage")
	}
	return TypedMessageUnion.Pack(m.typedMessageVariant(), m)
}

// UnmarshalTypedMessage decodes a TypedMessage union
func UnmarshalTypedMessage(data []byte) (TypedMessage, error) {
	_, m, err := TypedMessageUnion.Unpack(data)
	return m, err
}

// Witness variant names
const (
	VariantSighashWithAction = "SighashWithAction"
	VariantSighash           = "Sighash"
	VariantOtx               = "Otx"
	VariantOtxStart          = "OtxStart"
)

// Witness discriminants. They live in a reserved high range so that an
// ExtendedWitness never collides with a union using position-based ids.
const (
	SighashWithActionID uint32 = 0xFF000001
	SighashID           uint32 = 0xFF000002
	OtxID               uint32 = 0xFF000003
	OtxStartID          uint32 = 0xFF000004
)

// Witness is the ExtendedWitness envelope
type Witness interface {
	WitnessVariant() string
}

// SighashWithAction carries a typed message and the signature over it
type SighashWithAction struct {
	Lock    []byte
	Message TypedMessage
}

// Sighash carries a signature only
type Sighash struct {
	Lock []byte
}

// Otx is an open transaction segment: its signature, the number of inputs,
// outputs, cell deps and header deps it covers, and its message
type Otx struct {
	Lock        []byte
	InputCells  uint32
	OutputCells uint32
	CellDeps    uint32
	HeaderDeps  uint32
	Message     TypedMessage
}

// OtxStart marks where the open transaction segments begin
type OtxStart struct {
	StartInputCell  uint32
	StartOutputCell uint32
	StartCellDeps   uint32
	StartHeaderDeps uint32
}

func (*SighashWithAction) WitnessVariant() string { return VariantSighashWithAction }
func (*Sighash) WitnessVariant() string           { return VariantSighash }
func (*Otx) WitnessVariant() string               { return VariantOtx }
func (*OtxStart) WitnessVariant() string          { return VariantOtxStart }

// WitnessUnion is the Molecule union over the ExtendedWitness variants
var WitnessUnion = molecule.NewUnion[Witness]("ExtendedWitness",
	molecule.Variant[Witness]{
		Name: VariantSighashWithAction, ID: SighashWithActionID,
		Pack: func(w Witness) ([]byte, error) {
			s, ok := w.(*SighashWithAction)
			if !ok || s == nil {
				return nil, variantMismatch(VariantSighashWithAction, w)
			}
			message, err := MarshalTypedMessage(s.Message)
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return molecule.PackTable(molecule.PackFixVec(s.Lock), message), nil
		},
		Unpack: func(data []byte) (Witness, error) {
			fields, err := molecule.UnpackTable(data, 2)
			if err != nil {
				return nil, err
			}
			lock, err := molecule.UnpackFixVec(fields[0])
			if err != nil {
				return nil, typedwitness.WithPath(err, "lock")
			}
			message, err := UnmarshalTypedMessage(fields[1])
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return &SighashWithAction{Lock: append([]byte{}, lock...), Message: message}, nil
		},
	},
	molecule.Variant[Witness]{
		Name: VariantSighash, ID: SighashID,
		Pack: func(w Witness) ([]byte, error) {
			s, ok := w.(*Sighash)
			if !ok || s == nil {
				return nil, variantMismatch(VariantSighash, w)
			}
			return molecule.PackTable(molecule.PackFixVec(s.Lock)), nil
		},
		Unpack: func(data []byte) (Witness, error) {
			fields, err := molecule.UnpackTable(data, 1)
			if err != nil {
				return nil, err
			}
			lock, err := molecule.UnpackFixVec(fields[0])
			if err != nil {
				return nil, typedwitness.WithPath(err, "lock")
			}
			return &Sighash{Lock: append([]byte{}, lock...)}, nil
		},
	},
	molecule.Variant[Witness]{
		Name: VariantOtx, ID: OtxID,
		Pack: func(w Witness) ([]byte, error) {
			o, ok := w.(*Otx)
			if !ok || o == nil {
				return nil, variantMismatch(VariantOtx, w)
			}
			message, err := MarshalTypedMessage(o.Message)
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return molecule.PackTable(
				molecule.PackFixVec(o.Lock),
				molecule.PackUint32(o.InputCells),
				molecule.PackUint32(o.OutputCells),
				molecule.PackUint32(o.CellDeps),
				molecule.PackUint32(o.HeaderDeps),
				message,
			), nil
		},
		Unpack: func(data []byte) (Witness, error) {
			fields, err := molecule.UnpackTable(data, 6)
			if err != nil {
				return nil, err
			}
			lock, err := molecule.UnpackFixVec(fields[0])
			if err != nil {
				return nil, typedwitness.WithPath(err, "lock")
			}
			counts := make([]uint32, 4)
			for i := range counts {
				if counts[i], err = molecule.UnpackUint32(fields[i+1]); err != nil {
					return nil, err
				}
			}
			message, err := UnmarshalTypedMessage(fields[5])
			if err != nil {
				return nil, typedwitness.WithPath(err, "message")
			}
			return &Otx{
				Lock:        append([]byte{}, lock...),
				InputCells:  counts[0],
				OutputCells: counts[1],
				CellDeps:    counts[2],
				HeaderDeps:  counts[3],
				Message:     message,
			}, nil
		},
	},
	molecule.Variant[Witness]{
		Name: VariantOtxStart, ID: OtxStartID,
		Pack: func(w Witness) ([]byte, error) {
			o, ok := w.(*OtxStart)
			if !ok || o == nil {
				return nil, variantMismatch(VariantOtxStart, w)
			}
			return molecule.PackStruct(
				molecule.PackUint32(o.StartInputCell),
				molecule.PackUint32(o.StartOutputCell),
				molecule.PackUint32(o.StartCellDeps),
				molecule.PackUint32(o.StartHeaderDeps),
			), nil
		},
		Unpack: func(data []byte) (Witness, error) {
			fields, err := molecule.UnpackStruct(data, 4, 4, 4, 4)
			if err != nil {
				return nil, err
			}
			start := make([]uint32, 4)
			for i := range start {
				start[i], _ = molecule.UnpackUint32(fields[i])
			}
			return &OtxStart{
				StartInputCell:  start[0],
				StartOutputCell: start[1],
				StartCellDeps:   start[2],
				StartHeaderDeps: start[3],
			}, nil
		},
	},
)

// MarshalWitness encodes an ExtendedWitness union
func MarshalWitness(w Witness) ([]byte, error) {
	if w == nil {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "cannot marshal a nil Witness")
	}
	return WitnessUnion.Pack(w.WitnessVariant(), w)
}

// UnmarshalWitness decodes an ExtendedWitness union
func UnmarshalWitness(data []byte) (Witness, error) {
	_, w, err := WitnessUnion.Unpack(data)
	return w, err
}
