package app

import (
	"math"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal/features"
	"eosphase/internal/model"
)

// PredictInput is one state point with the six base fields.
type PredictInput struct {
	YQ   float64 `json:"YQ"`
	T    float64 `json:"T"`
	MuBH float64 `json:"muB_H"`
	MuBQ float64 `json:"muB_Q"`
	MuQH float64 `json:"muQ_H"`
	MuQQ float64 `json:"muQ_Q"`
}

// Prediction is the classified phase with the model's quark probability.
type Prediction struct {
	Phase       eos.Phase `json:"phase_pred"`
	Probability float64   `json:"probability"`
}

// Predictor classifies single inputs with one loaded model. It holds no
// mutable state, so one Predictor may serve concurrent callers.
type Predictor struct {
	model *model.Model
}

// NewPredictor wraps a loaded model.
func NewPredictor(m *model.Model) *Predictor {
	return &Predictor{model: m}
}

// Model returns the wrapped model.
func (p *Predictor) Model() *model.Model { return p.model }

func (in PredictInput) validate() error {
	for name, v := range map[string]float64{
		eos.ColYQ: in.YQ, eos.ColT: in.T, eos.ColMuBH: in.MuBH,
		eos.ColMuBQ: in.MuBQ, eos.ColMuQH: in.MuQH, eos.ColMuQQ: in.MuQQ,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewConfigError(name, "must be a finite number")
		}
	}
	return nil
}

// records turns the input into a one-row record set. The phase column is a
// placeholder so the features can be built; it never reaches the model.
func (in PredictInput) records() (*eos.RecordSet, error) {
	order := append(append([]string(nil), features.BaseColumns...), eos.ColPhase)
	return eos.FromRecords(order, []eos.Record{{
		eos.ColYQ:    in.YQ,
		eos.ColT:     in.T,
		eos.ColMuBH:  in.MuBH,
		eos.ColMuBQ:  in.MuBQ,
		eos.ColMuQH:  in.MuQH,
		eos.ColMuQQ:  in.MuQQ,
		eos.ColPhase: float64(eos.PhaseHadron),
	}})
}

// Predict classifies one input. A per-split model standardizes the single
// row against itself, which maps every feature to zero.
func (p *Predictor) Predict(in PredictInput) (Prediction, error) {
	if err := in.validate(); err != nil {
		return Prediction{}, err
	}
	rs, err := in.records()
	if err != nil {
		return Prediction{}, err
	}
	X, _, err := Featurize(p.model, rs)
	if err != nil {
		return Prediction{}, err
	}
	proba, err := p.model.PredictProba(X)
	if err != nil {
		return Prediction{}, err
	}
	phase := eos.PhaseHadron
	if proba[0] > 0.5 {
		phase = eos.PhaseQuark
	}
	return Prediction{Phase: phase, Probability: proba[0]}, nil
}
