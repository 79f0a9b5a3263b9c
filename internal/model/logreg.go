package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogReg is an L2-regularized logistic regression. The intercept is not penalized.
type LogReg struct {
	Coef       []float64 `json:"coef"`
	Intercept  float64   `json:"intercept"`
	Iterations int       `json:"iterations"`
	Status     string    `json:"status"`
}

// logLoss returns log(1+exp(-m)) without overflow.
func logLoss(m float64) float64 {
	if m > 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}

func fitLogReg(x [][]float64, y []float64, cfg LogRegConfig) (*LogReg, error) {
	nFeat := len(x[0])
	signs := make([]float64, len(y))
	for i, v := range y {
		signs[i] = 2*v - 1
	}

	// params = [w_0 .. w_{d-1}, b]
	objective := func(params []float64) float64 {
		w, b := params[:nFeat], params[nFeat]
		loss := 0.0
		for i, row := range x {
			loss += logLoss(signs[i] * (floats.Dot(w, row) + b))
		}
		return 0.5*floats.Dot(w, w) + cfg.C*loss
	}
	gradient := func(grad, params []float64) {
		w, b := params[:nFeat], params[nFeat]
		copy(grad[:nFeat], w)
		grad[nFeat] = 0
		for i, row := range x {
			m := signs[i] * (floats.Dot(w, row) + b)
			// d/dm log(1+exp(-m)) = -sigmoid(-m)
			coef := -cfg.C * signs[i] * sigmoid(-m)
			floats.AddScaled(grad[:nFeat], coef, row)
			grad[nFeat] += coef
		}
	}

	problem := optimize.Problem{Func: objective, Grad: gradient}
	settings := &optimize.Settings{
		MajorIterations:   cfg.MaxIter,
		GradientThreshold: cfg.GradTolerance,
	}
	result, err := optimize.Minimize(problem, make([]float64, nFeat+1), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("logistic regression: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("logistic regression diverged (status %s)", result.Status)
		}
	}
	// A line search that stalls near the optimum still leaves a usable solution.
	status := result.Status.String()
	if err != nil {
		status = fmt.Sprintf("%s: %v", status, err)
	}

	return &LogReg{
		Coef:       append([]float64(nil), result.X[:nFeat]...),
		Intercept:  result.X[nFeat],
		Iterations: result.Stats.MajorIterations,
		Status:     status,
	}, nil
}

// DecisionFunction returns w·x + b for one scaled sample.
func (l *LogReg) DecisionFunction(x []float64) float64 {
	return floats.Dot(l.Coef, x) + l.Intercept
}

// Proba returns P(quark) for one scaled sample.
func (l *LogReg) Proba(x []float64) float64 {
	return sigmoid(l.DecisionFunction(x))
}
