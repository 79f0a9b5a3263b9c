package model

import (
	"fmt"
	"time"

	"eosphase/domain/core"
	"eosphase/internal"
	"eosphase/internal/features"

	"github.com/dustin/go-humanize"
)

// Trainer fits models of one configuration.
type Trainer struct {
	config Config
	logger *internal.Logger
}

// NewTrainer creates a trainer. The configuration is validated on Fit.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{config: cfg, logger: internal.NewDefaultLogger("model")}
}

// WithLogger replaces the trainer's logger.
func (t *Trainer) WithLogger(logger *internal.Logger) *Trainer {
	t.logger = logger
	return t
}

// Train fits a model of the given kind with default hyperparameters.
func Train(X *features.FeatureMatrix, y []int, kind Kind) (*Model, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	return TrainWithConfig(X, y, DefaultConfig(kind))
}

// TrainWithConfig fits a model with explicit hyperparameters.
func TrainWithConfig(X *features.FeatureMatrix, y []int, cfg Config) (*Model, error) {
	return NewTrainer(cfg).Fit(X, y)
}

// Fit scales X, fits the configured classifier and returns the pipeline.
// The fitted model records FitMode PerSplit; callers using train-only
// statistics attach them afterwards.
func (t *Trainer) Fit(X *features.FeatureMatrix, y []int) (*Model, error) {
	cfg := t.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if X == nil || X.Rows() == 0 {
		return nil, core.NewInsufficientDataError("no training rows")
	}
	if len(y) != X.Rows() {
		return nil, fmt.Errorf("got %d labels for %d rows", len(y), X.Rows())
	}

	target := make([]float64, len(y))
	counts := [2]int{}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("label %d at row %d is not 0 or 1", label, i)
		}
		counts[label]++
		target[i] = float64(label)
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, core.NewInsufficientDataError(
			fmt.Sprintf("training data needs both phases, got %d hadron and %d quark rows", counts[0], counts[1]))
	}

	rows := make([][]float64, X.Rows())
	for i := range rows {
		rows[i] = X.Row(i)
	}
	scaler, err := FitScaler(rows)
	if err != nil {
		return nil, err
	}
	scaled := scaler.TransformAll(rows)

	start := time.Now()
	m := &Model{
		Kind:         cfg.Kind,
		Config:       cfg,
		FeatureNames: X.Names(),
		FitMode:      features.PerSplit,
		Scaler:       scaler,
		TrainRows:    X.Rows(),
	}
	switch cfg.Kind {
	case KindGBT:
		m.GBT = fitGBT(scaled, target, cfg.GBT)
	case KindForest:
		m.Forest = fitForest(scaled, target, cfg.Forest)
	case KindLogReg:
		if m.LogReg, err = fitLogReg(scaled, target, cfg.LogReg); err != nil {
			return nil, err
		}
		t.logger.Debug("logreg finished after %d iterations: %s", m.LogReg.Iterations, m.LogReg.Status)
	}

	t.logger.Info("trained %s on %s rows (%s hadron, %s quark) in %s",
		cfg.Kind,
		humanize.Comma(int64(X.Rows())),
		humanize.Comma(int64(counts[0])),
		humanize.Comma(int64(counts[1])),
		time.Since(start).Round(time.Millisecond))
	return m, nil
}

// WithStats returns a shallow copy of m that standardizes new data with st.
func (m *Model) WithStats(mode features.FitMode, st *features.Stats) *Model {
	cp := *m
	cp.FitMode = mode
	cp.Stats = st
	return &cp
}
