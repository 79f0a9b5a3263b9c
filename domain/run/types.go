package run

import (
	"crypto/sha256"
	"fmt"

	"eosphase/domain/core"
)

// RunFingerprint ensures deterministic replay of a training run
type RunFingerprint struct {
	DataHash     core.Hash `json:"data_hash"`
	ModelKind    string    `json:"model_kind"`
	Seed         int64     `json:"seed"`
	TestFraction float64   `json:"test_fraction"`
	FitStatsOn   string    `json:"fit_stats_on"`
	CodeVersion  string    `json:"code_version"`
	Fingerprint  core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(dataHash core.Hash, modelKind string, seed int64,
	testFraction float64, fitStatsOn string, codeVersion string) RunFingerprint {

	return RunFingerprint{
		DataHash:     dataHash,
		ModelKind:    modelKind,
		Seed:         seed,
		TestFraction: testFraction,
		FitStatsOn:   fitStatsOn,
		CodeVersion:  codeVersion,
		Fingerprint:  computeRunFingerprint(dataHash, modelKind, seed, testFraction, fitStatsOn, codeVersion),
	}
}

func computeRunFingerprint(dataHash core.Hash, modelKind string, seed int64,
	testFraction float64, fitStatsOn string, codeVersion string) core.Hash {

	data := fmt.Sprintf("data:%s|model:%s|seed:%d|test_frac:%g|fit_stats_on:%s|code:%s",
		dataHash, modelKind, seed, testFraction, fitStatsOn, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
