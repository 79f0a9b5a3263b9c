package evaluation

import (
	"fmt"

	"eosphase/domain/eos"
	"eosphase/internal"
	"eosphase/internal/features"
	"eosphase/internal/model"
	"eosphase/internal/split"

	"github.com/montanaflynn/stats"
)

// CVResult summarizes k-fold cross-validation accuracy.
type CVResult struct {
	Folds  int       `json:"folds"`
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	// Std is the population standard deviation of Scores.
	Std float64 `json:"std"`
}

// CrossValidator runs stratified k-fold cross-validation of one model configuration.
type CrossValidator struct {
	config model.Config
	mode   features.FitMode
	logger *internal.Logger
}

// NewCrossValidator creates a cross-validator. Each fold is featurized under mode.
func NewCrossValidator(cfg model.Config, mode features.FitMode) *CrossValidator {
	return &CrossValidator{config: cfg, mode: mode, logger: internal.NewDefaultLogger("crossval")}
}

// WithLogger replaces the cross-validator's logger.
func (c *CrossValidator) WithLogger(logger *internal.Logger) *CrossValidator {
	c.logger = logger
	return c
}

// CrossValidate scores cfg on k stratified folds of the labeled record set rs.
func CrossValidate(rs *eos.RecordSet, k int, cfg model.Config, mode features.FitMode, seed int64) (*CVResult, error) {
	return NewCrossValidator(cfg, mode).Run(rs, k, seed)
}

// Run fits one model per fold on the other k-1 folds and records its accuracy
// on the held-out fold. Folds depend only on rs, k and seed.
func (c *CrossValidator) Run(rs *eos.RecordSet, k int, seed int64) (*CVResult, error) {
	folds, err := split.StratifiedKFold(rs, k, seed)
	if err != nil {
		return nil, err
	}
	trainer := model.NewTrainer(c.config).WithLogger(c.logger)

	res := &CVResult{Folds: k, Scores: make([]float64, 0, k)}
	for i, f := range folds {
		pair, err := features.BuildPair(rs.Subset(f.Train), rs.Subset(f.Test), c.mode)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i+1, err)
		}
		m, err := trainer.Fit(pair.TrainX, pair.TrainY)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i+1, err)
		}
		metrics, err := Evaluate(m, pair.EvalX, pair.EvalY)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i+1, err)
		}
		res.Scores = append(res.Scores, metrics.Accuracy)
		c.logger.Debug("fold %d/%d: %d train / %d test rows, accuracy %.4f",
			i+1, k, len(f.Train), len(f.Test), metrics.Accuracy)
	}

	if res.Mean, err = stats.Mean(res.Scores); err != nil {
		return nil, err
	}
	if res.Std, err = stats.StandardDeviationPopulation(res.Scores); err != nil {
		return nil, err
	}
	c.logger.Info("%d-fold cross-validation: accuracy %.4f (+/- %.4f)", k, res.Mean, 2*res.Std)
	return res, nil
}
