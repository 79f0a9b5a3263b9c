package run

import (
	"time"

	"eosphase/domain/core"
)

// CodeVersion is recorded in every manifest so artifacts can be traced to a build.
const CodeVersion = "eosphase/1"

// RunManifest describes one completed training run.
// It is written to the ledger after the model artifact and metrics are on disk.
type RunManifest struct {
	RunID         core.RunID     `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	DataPath      string         `json:"data_path"`
	ModelPath     string         `json:"model_path"`
	TrainRows     int            `json:"train_rows"`
	EvalRows      int            `json:"eval_rows"`
	TrainAccuracy float64        `json:"train_accuracy"`
	TestAccuracy  float64        `json:"test_accuracy"`
	Fingerprint   RunFingerprint `json:"fingerprint"`
}

// NewRunManifest stamps a new run ID and creation time.
func NewRunManifest(fp RunFingerprint, dataPath, modelPath string) *RunManifest {
	return &RunManifest{
		RunID:       core.NewRunID(),
		CreatedAt:   time.Now().UTC(),
		DataPath:    dataPath,
		ModelPath:   modelPath,
		Fingerprint: fp,
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewConfigError("run_manifest", "run_id cannot be empty")
	}
	if r.Fingerprint.DataHash.IsEmpty() {
		return core.NewConfigError("run_manifest", "data_hash cannot be empty")
	}
	if r.Fingerprint.ModelKind == "" {
		return core.NewConfigError("run_manifest", "model_kind cannot be empty")
	}
	if r.ModelPath == "" {
		return core.NewConfigError("run_manifest", "model_path cannot be empty")
	}
	return nil
}
