package model

import (
	"math"
	"math/rand"
)

// GBT is a gradient-boosted ensemble of regression trees fitted to the
// binomial deviance. Scores are log-odds of the quark phase.
type GBT struct {
	Init         float64   `json:"init"`
	LearningRate float64   `json:"learning_rate"`
	Trees        []*Tree   `json:"trees"`
	Importances  []float64 `json:"importances"`
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func fitGBT(x [][]float64, y []float64, cfg GBTConfig) *GBT {
	n := len(x)
	nFeat := len(x[0])

	pos := 0.0
	for _, v := range y {
		pos += v
	}
	prior := pos / float64(n)
	g := &GBT{
		Init:         math.Log(prior / (1 - prior)),
		LearningRate: cfg.LearningRate,
		Trees:        make([]*Tree, 0, cfg.Stages),
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = g.Init
	}
	residual := make([]float64, n)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	importance := make([]float64, nFeat)
	rng := rand.New(rand.NewSource(cfg.Seed))

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	sampleSize := n
	if cfg.Subsample < 1 {
		sampleSize = max(1, int(cfg.Subsample*float64(n)))
	}

	params := treeParams{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		rng:             rng,
	}

	for stage := 0; stage < cfg.Stages; stage++ {
		for i := range residual {
			residual[i] = y[i] - sigmoid(raw[i])
		}

		samples := all
		if sampleSize < n {
			samples = rng.Perm(n)[:sampleSize]
		}
		tree, imp := growTree(x, residual, ones, samples, params)

		// Replace the mean residual in each leaf with one Newton step on the deviance.
		num := make([]float64, len(tree.Nodes))
		den := make([]float64, len(tree.Nodes))
		for _, i := range samples {
			leaf := tree.leaf(x[i])
			p := sigmoid(raw[i])
			num[leaf] += residual[i]
			den[leaf] += p * (1 - p)
		}
		for k := range tree.Nodes {
			if tree.Nodes[k].Feature >= 0 {
				continue
			}
			if math.Abs(den[k]) < 1e-150 {
				tree.Nodes[k].Value = 0
			} else {
				tree.Nodes[k].Value = num[k] / den[k]
			}
		}

		for i := range raw {
			raw[i] += cfg.LearningRate * tree.Predict(x[i])
		}
		g.Trees = append(g.Trees, tree)
		for j, v := range normalizeImportance(imp) {
			importance[j] += v
		}
	}

	g.Importances = normalizeImportance(importance)
	return g
}

// DecisionFunction returns the log-odds score for one scaled sample.
func (g *GBT) DecisionFunction(x []float64) float64 {
	score := g.Init
	for _, t := range g.Trees {
		score += g.LearningRate * t.Predict(x)
	}
	return score
}

// Proba returns P(quark) for one scaled sample.
func (g *GBT) Proba(x []float64) float64 {
	return sigmoid(g.DecisionFunction(x))
}
