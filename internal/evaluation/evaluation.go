// Package evaluation scores a fitted model against labeled features.
package evaluation

import (
	"fmt"

	"eosphase/internal/features"
	"eosphase/internal/model"
)

// ClassReport holds the per-class scores of a classification report.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   float64 `json:"support"`
}

// Report is keyed like a classification report: "0", "1", "accuracy",
// "macro avg" and "weighted avg".
type Report struct {
	Hadron   ClassReport `json:"0"`
	Quark    ClassReport `json:"1"`
	Accuracy float64     `json:"accuracy"`
	Macro    ClassReport `json:"macro avg"`
	Weighted ClassReport `json:"weighted avg"`
}

// Metrics is the evaluation result of one split.
type Metrics struct {
	Accuracy float64 `json:"accuracy"`
	Report   Report  `json:"report"`
	// ConfusionMatrix is [[tn, fp], [fn, tp]] with quark as the positive class.
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
}

// Evaluate predicts X with m and compares the result to y.
func Evaluate(m *model.Model, X *features.FeatureMatrix, y []int) (Metrics, error) {
	if len(y) != X.Rows() {
		return Metrics{}, fmt.Errorf("got %d labels for %d rows", len(y), X.Rows())
	}
	pred, err := m.Predict(X)
	if err != nil {
		return Metrics{}, err
	}
	return Score(y, pred)
}

// Score builds metrics from true and predicted 0/1 labels.
func Score(yTrue, yPred []int) (Metrics, error) {
	if len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("got %d predictions for %d labels", len(yPred), len(yTrue))
	}
	var cm [2][2]int
	for i, t := range yTrue {
		p := yPred[i]
		if t < 0 || t > 1 || p < 0 || p > 1 {
			return Metrics{}, fmt.Errorf("row %d: labels must be 0 or 1, got %d and %d", i, t, p)
		}
		cm[t][p]++
	}

	n := len(yTrue)
	correct := cm[0][0] + cm[1][1]
	acc := ratio(float64(correct), float64(n))

	// Class 0 treats hadron as positive, class 1 quark.
	hadron := classReport(cm[0][0], cm[1][0], cm[0][1])
	quark := classReport(cm[1][1], cm[0][1], cm[1][0])

	return Metrics{
		Accuracy: acc,
		Report: Report{
			Hadron:   hadron,
			Quark:    quark,
			Accuracy: acc,
			Macro:    average(hadron, quark, 0.5, 0.5, float64(n)),
			Weighted: average(hadron, quark,
				ratio(hadron.Support, float64(n)), ratio(quark.Support, float64(n)), float64(n)),
		},
		ConfusionMatrix: cm,
	}, nil
}

func classReport(tp, fp, fn int) ClassReport {
	precision := ratio(float64(tp), float64(tp+fp))
	recall := ratio(float64(tp), float64(tp+fn))
	return ClassReport{
		Precision: precision,
		Recall:    recall,
		F1:        ratio(2*precision*recall, precision+recall),
		Support:   float64(tp + fn),
	}
}

func average(a, b ClassReport, wa, wb, support float64) ClassReport {
	return ClassReport{
		Precision: wa*a.Precision + wb*b.Precision,
		Recall:    wa*a.Recall + wb*b.Recall,
		F1:        wa*a.F1 + wb*b.F1,
		Support:   support,
	}
}

// ratio returns 0 when the denominator is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
