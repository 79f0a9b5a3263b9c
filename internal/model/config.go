package model

import (
	"fmt"
	"runtime"

	"eosphase/domain/core"
)

// DefaultSeed seeds the tree ensembles.
const DefaultSeed int64 = 42

// GBTConfig holds gradient boosting hyperparameters.
type GBTConfig struct {
	Stages          int     `json:"stages"`
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	Subsample       float64 `json:"subsample"`
	Seed            int64   `json:"seed"`
}

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"` // 0: grow until leaves are pure
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"` // 0: floor(sqrt(n_features))
	Bootstrap       bool  `json:"bootstrap"`
	Seed            int64 `json:"seed"`
	Workers         int   `json:"-"` // 0: GOMAXPROCS; does not affect the fitted model
}

// LogRegConfig holds logistic regression hyperparameters.
type LogRegConfig struct {
	C             float64 `json:"c"` // inverse L2 regularization strength
	MaxIter       int     `json:"max_iter"`
	GradTolerance float64 `json:"grad_tolerance"`
}

// Config selects a classifier and carries the hyperparameters of every kind;
// only the block matching Kind is used.
type Config struct {
	Kind   Kind         `json:"kind"`
	GBT    GBTConfig    `json:"gbt"`
	Forest ForestConfig `json:"rf"`
	LogReg LogRegConfig `json:"logreg"`
}

// DefaultGBTConfig mirrors the usual boosting defaults: 100 depth-3 stages at rate 0.1.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		Stages:          100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1.0,
		Seed:            DefaultSeed,
	}
}

// DefaultForestConfig is a 300-tree bootstrap forest with sqrt feature sampling.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           300,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            DefaultSeed,
	}
}

// DefaultLogRegConfig is C=1 with a 500 iteration cap.
func DefaultLogRegConfig() LogRegConfig {
	return LogRegConfig{
		C:             1.0,
		MaxIter:       500,
		GradTolerance: 1e-6,
	}
}

// DefaultConfig returns defaults for every kind with the given kind selected.
func DefaultConfig(kind Kind) Config {
	return Config{
		Kind:   kind,
		GBT:    DefaultGBTConfig(),
		Forest: DefaultForestConfig(),
		LogReg: DefaultLogRegConfig(),
	}
}

// Validate rejects unknown kinds and out-of-range hyperparameters of the selected kind.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	switch c.Kind {
	case KindGBT:
		g := c.GBT
		if g.Stages < 1 {
			return core.NewConfigError("gbt.stages", fmt.Sprintf("must be >= 1, got %d", g.Stages))
		}
		if g.LearningRate <= 0 {
			return core.NewConfigError("gbt.learning_rate", fmt.Sprintf("must be > 0, got %g", g.LearningRate))
		}
		if g.MaxDepth < 1 {
			return core.NewConfigError("gbt.max_depth", fmt.Sprintf("must be >= 1, got %d", g.MaxDepth))
		}
		if g.Subsample <= 0 || g.Subsample > 1 {
			return core.NewConfigError("gbt.subsample", fmt.Sprintf("must be in (0,1], got %g", g.Subsample))
		}
		return validateLeafSizes("gbt", g.MinSamplesSplit, g.MinSamplesLeaf)
	case KindForest:
		f := c.Forest
		if f.Trees < 1 {
			return core.NewConfigError("rf.trees", fmt.Sprintf("must be >= 1, got %d", f.Trees))
		}
		if f.MaxDepth < 0 || f.MaxFeatures < 0 || f.Workers < 0 {
			return core.NewConfigError("rf", "max_depth, max_features and workers must be >= 0")
		}
		return validateLeafSizes("rf", f.MinSamplesSplit, f.MinSamplesLeaf)
	case KindLogReg:
		l := c.LogReg
		if l.C <= 0 {
			return core.NewConfigError("logreg.c", fmt.Sprintf("must be > 0, got %g", l.C))
		}
		if l.MaxIter < 1 {
			return core.NewConfigError("logreg.max_iter", fmt.Sprintf("must be >= 1, got %d", l.MaxIter))
		}
	}
	return nil
}

func validateLeafSizes(prefix string, minSplit, minLeaf int) error {
	if minSplit < 2 {
		return core.NewConfigError(prefix+".min_samples_split", fmt.Sprintf("must be >= 2, got %d", minSplit))
	}
	if minLeaf < 1 {
		return core.NewConfigError(prefix+".min_samples_leaf", fmt.Sprintf("must be >= 1, got %d", minLeaf))
	}
	return nil
}

func (f ForestConfig) workers() int {
	w := f.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > f.Trees {
		w = f.Trees
	}
	return w
}
