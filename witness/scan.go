package witness

import (
	"go.uber.org/zap"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
	"github.com/vulcanize/go-codec-typedwitness/schema"
)

// FindSighashWithAction returns the index and content of the only
// SighashWithAction among a transaction's witnesses. Witnesses that do not
// decode as an ExtendedWitness are skipped.
func FindSighashWithAction(witnesses [][]byte) (int, *schema.SighashWithAction, error) {
	return DefaultOptions().FindSighashWithAction(witnesses)
}

// FindSighashWithAction is like the package function, logging through o.Logger
func (o Options) FindSighashWithAction(witnesses [][]byte) (int, *schema.SighashWithAction, error) {
	o = o.normalize()
	found := -1
	var action *schema.SighashWithAction
	for i, data := range witnesses {
		wit, err := schema.UnmarshalWitness(data)
		if err != nil {
			o.Logger.Debug("skipping witness", zap.Int("index", i), zap.Error(err))
			continue
		}
		sa, ok := wit.(*schema.SighashWithAction)
		if !ok {
			continue
		}
		if found >= 0 {
			return -1, nil, typedwitness.Errorf(typedwitness.KindDuplicateAction, "witnesses %d and %d both carry %s", found, i, schema.VariantSighashWithAction)
		}
		found, action = i, sa
	}
	if found < 0 {
		return -1, nil, typedwitness.Errorf(typedwitness.KindNotTypedTransaction, "no %s witness among %d", schema.VariantSighashWithAction, len(witnesses))
	}
	o.Logger.Debug("found action witness", zap.Int("index", found))
	return found, action, nil
}

// IsTypedTransaction reports whether exactly one witness is a SighashWithAction
func IsTypedTransaction(witnesses [][]byte) bool {
	_, _, err := FindSighashWithAction(witnesses)
	return err == nil
}
