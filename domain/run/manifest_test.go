package run

import (
	"testing"

	"eosphase/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	dataHash := core.NewHash([]byte("0.1 120 1 2 0 0 900 910 -10 -12"))

	fp1 := NewRunFingerprint(dataHash, "gbt", 42, 0.2, "per_split", CodeVersion)
	fp2 := NewRunFingerprint(dataHash, "gbt", 42, 0.2, "per_split", CodeVersion)

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs 42", fp1.Seed)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	dataHash := core.NewHash([]byte("data"))
	base := NewRunFingerprint(dataHash, "gbt", 42, 0.2, "per_split", CodeVersion)

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different data", NewRunFingerprint(core.NewHash([]byte("other")), "gbt", 42, 0.2, "per_split", CodeVersion)},
		{"different model", NewRunFingerprint(dataHash, "rf", 42, 0.2, "per_split", CodeVersion)},
		{"different seed", NewRunFingerprint(dataHash, "gbt", 7, 0.2, "per_split", CodeVersion)},
		{"different fraction", NewRunFingerprint(dataHash, "gbt", 42, 0.3, "per_split", CodeVersion)},
		{"different stats mode", NewRunFingerprint(dataHash, "gbt", 42, 0.2, "train_only", CodeVersion)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Validate(t *testing.T) {
	fp := NewRunFingerprint(core.NewHash([]byte("data")), "logreg", 42, 0.2, "per_split", CodeVersion)
	m := NewRunManifest(fp, "eos.dat", "out/model.joblib")
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	m.ModelPath = ""
	if err := m.Validate(); !core.IsConfigError(err) {
		t.Errorf("expected config error for empty model path, got %v", err)
	}
}
