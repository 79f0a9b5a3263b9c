// Package model fits and applies the phase classifiers: a scale-only feature
// scaler composed with a gradient-boosted ensemble, a random forest or a
// regularized logistic regression.
package model

import (
	"fmt"
	"strings"

	"eosphase/domain/core"
)

// Kind names a classifier family.
type Kind string

const (
	KindGBT    Kind = "gbt"
	KindForest Kind = "rf"
	KindLogReg Kind = "logreg"
)

// Kinds lists every supported classifier family.
func Kinds() []Kind {
	return []Kind{KindGBT, KindForest, KindLogReg}
}

// ParseKind validates a model name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", core.NewConfigError("model", fmt.Sprintf("unknown model kind %q (want gbt, rf or logreg)", s))
}

func (k Kind) String() string { return string(k) }
