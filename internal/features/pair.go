package features

import (
	"fmt"
	"strings"

	"eosphase/domain/core"
	"eosphase/domain/eos"
)

// FitMode selects where standardization statistics come from.
type FitMode string

const (
	// PerSplit normalizes every record set with its own statistics.
	// Evaluation features then do not share the training scale.
	PerSplit FitMode = "per_split"
	// TrainOnly fits statistics on the training split and reuses them everywhere else.
	TrainOnly FitMode = "train_only"
)

// ParseFitMode validates a fit_stats_on value.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(strings.ToLower(strings.TrimSpace(s))) {
	case PerSplit, "":
		return PerSplit, nil
	case TrainOnly:
		return TrainOnly, nil
	default:
		return "", core.NewConfigError("fit_stats_on", fmt.Sprintf("unknown mode %q (want per_split or train_only)", s))
	}
}

// Pair holds the featurized train and eval splits.
type Pair struct {
	TrainX *FeatureMatrix
	TrainY []int
	EvalX  *FeatureMatrix
	EvalY  []int
	// Stats is set in TrainOnly mode; it must travel with the model so prediction uses the same scale.
	Stats *Stats
}

// BuildPair featurizes both splits under the given mode.
func BuildPair(train, eval *eos.RecordSet, mode FitMode) (*Pair, error) {
	var (
		p   Pair
		err error
	)
	switch mode {
	case PerSplit:
		if p.TrainX, p.TrainY, err = Build(train); err != nil {
			return nil, fmt.Errorf("train features: %w", err)
		}
		if p.EvalX, p.EvalY, err = Build(eval); err != nil {
			return nil, fmt.Errorf("eval features: %w", err)
		}
	case TrainOnly:
		if p.Stats, err = FitStats(train); err != nil {
			return nil, fmt.Errorf("train statistics: %w", err)
		}
		if p.TrainX, p.TrainY, err = BuildWith(train, p.Stats); err != nil {
			return nil, fmt.Errorf("train features: %w", err)
		}
		if p.EvalX, p.EvalY, err = BuildWith(eval, p.Stats); err != nil {
			return nil, fmt.Errorf("eval features: %w", err)
		}
	default:
		return nil, core.NewConfigError("fit_stats_on", fmt.Sprintf("unknown mode %q", mode))
	}
	return &p, nil
}
