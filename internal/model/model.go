package model

import (
	"fmt"
	"sort"

	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal/features"
)

// Model is a fitted scaler-plus-classifier pipeline. Exactly one of GBT,
// Forest and LogReg is set, matching Kind. A Model is never mutated after
// training, so it is safe for concurrent prediction.
type Model struct {
	Kind         Kind             `json:"kind"`
	Config       Config           `json:"config"`
	FeatureNames []string         `json:"feature_names"`
	FitMode      features.FitMode `json:"fit_stats_on"`
	// Stats holds the training statistics when FitMode is TrainOnly.
	Stats     *features.Stats `json:"stats,omitempty"`
	Scaler    *Scaler         `json:"scaler"`
	TrainRows int             `json:"train_rows"`

	GBT    *GBT    `json:"gbt,omitempty"`
	Forest *Forest `json:"rf,omitempty"`
	LogReg *LogReg `json:"logreg,omitempty"`
}

// FeatureImportance pairs a feature with its normalized importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Validate checks that the model is internally consistent: the classifier
// matches Kind and every stored index is in range.
func (m *Model) Validate() error {
	if _, err := ParseKind(string(m.Kind)); err != nil {
		return err
	}
	nFeat := len(m.FeatureNames)
	if nFeat == 0 {
		return fmt.Errorf("model has no feature names")
	}
	if m.Scaler == nil || len(m.Scaler.Scale) != nFeat {
		return fmt.Errorf("scaler does not cover %d features", nFeat)
	}
	for j, s := range m.Scaler.Scale {
		if s <= 0 {
			return fmt.Errorf("scaler entry %d is not positive", j)
		}
	}
	if m.FitMode == features.TrainOnly && m.Stats == nil {
		return fmt.Errorf("train_only model carries no statistics")
	}

	set := 0
	for _, present := range []bool{m.GBT != nil, m.Forest != nil, m.LogReg != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected exactly one classifier, found %d", set)
	}

	switch m.Kind {
	case KindGBT:
		if m.GBT == nil {
			return fmt.Errorf("kind %s without gbt parameters", m.Kind)
		}
		if len(m.GBT.Trees) == 0 {
			return fmt.Errorf("gbt has no stages")
		}
		return validateTrees(m.GBT.Trees, nFeat)
	case KindForest:
		if m.Forest == nil {
			return fmt.Errorf("kind %s without forest parameters", m.Kind)
		}
		if len(m.Forest.Trees) == 0 {
			return fmt.Errorf("forest has no trees")
		}
		return validateTrees(m.Forest.Trees, nFeat)
	case KindLogReg:
		if m.LogReg == nil {
			return fmt.Errorf("kind %s without logreg parameters", m.Kind)
		}
		if len(m.LogReg.Coef) != nFeat {
			return fmt.Errorf("logreg has %d coefficients for %d features", len(m.LogReg.Coef), nFeat)
		}
	}
	return nil
}

func validateTrees(trees []*Tree, nFeat int) error {
	for ti, t := range trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				continue
			}
			// Children always come after their parent, which also rules out cycles.
			if n.Feature >= nFeat || n.Left <= ni || n.Right <= ni ||
				n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return nil
}

// checkColumns verifies that X has the columns the model was trained on.
func (m *Model) checkColumns(X *features.FeatureMatrix) error {
	names := X.Names()
	for j, name := range m.FeatureNames {
		if j >= len(names) || names[j] != name {
			return core.NewSchemaError(name)
		}
	}
	if len(names) != len(m.FeatureNames) {
		return fmt.Errorf("%w: model expects %d features, got %d", core.ErrSchema, len(m.FeatureNames), len(names))
	}
	return nil
}

// ProbaRow returns P(quark) for one unscaled feature row.
func (m *Model) ProbaRow(row []float64) float64 {
	x := m.Scaler.Transform(row)
	switch {
	case m.GBT != nil:
		return m.GBT.Proba(x)
	case m.Forest != nil:
		return m.Forest.Proba(x)
	default:
		return m.LogReg.Proba(x)
	}
}

// PredictRow classifies one unscaled feature row.
func (m *Model) PredictRow(row []float64) eos.Phase {
	if m.ProbaRow(row) > 0.5 {
		return eos.PhaseQuark
	}
	return eos.PhaseHadron
}

// PredictProba returns P(quark) for every row of X.
func (m *Model) PredictProba(X *features.FeatureMatrix) ([]float64, error) {
	if err := m.checkColumns(X); err != nil {
		return nil, err
	}
	out := make([]float64, X.Rows())
	for i := range out {
		out[i] = m.ProbaRow(X.Row(i))
	}
	return out, nil
}

// Predict returns the 0/1 phase label for every row of X.
func (m *Model) Predict(X *features.FeatureMatrix) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = int(eos.PhaseQuark)
		}
	}
	return out, nil
}

// FeatureImportances returns impurity importances sorted from most to least
// important. Logistic regression reports the absolute coefficient share instead.
func (m *Model) FeatureImportances() []FeatureImportance {
	var raw []float64
	switch {
	case m.GBT != nil:
		raw = m.GBT.Importances
	case m.Forest != nil:
		raw = m.Forest.Importances
	case m.LogReg != nil:
		raw = make([]float64, len(m.LogReg.Coef))
		for j, c := range m.LogReg.Coef {
			if c < 0 {
				c = -c
			}
			raw[j] = c
		}
		raw = normalizeImportance(raw)
	}

	out := make([]FeatureImportance, 0, len(raw))
	for j, v := range raw {
		if j < len(m.FeatureNames) {
			out = append(out, FeatureImportance{Feature: m.FeatureNames[j], Importance: v})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}
