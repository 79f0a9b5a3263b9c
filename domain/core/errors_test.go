package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorConstructors_WrapSentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  int
	}{
		{"parse", NewParseError("eos.dat", "row 3 has 4 columns"), IsParseError, 2},
		{"schema", NewSchemaError("F_quark"), IsSchemaError, 3},
		{"insufficient", NewInsufficientDataError("stratum 2 has 1 record"), IsInsufficientDataError, 4},
		{"config", NewConfigError("model", "unknown kind \"svm\""), IsConfigError, 5},
		{"deserialization", NewDeserializationError("model.joblib", "checksum mismatch"), IsDeserializationError, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.code, ExitCode(tt.err))

			wrapped := fmt.Errorf("pipeline: %w", tt.err)
			assert.True(t, tt.check(wrapped), "sentinel must survive wrapping")
			assert.Equal(t, tt.code, ExitCode(wrapped))
		})
	}
}

func TestExitCode_GenericAndNil(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("disk full")))
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseRunID("  ")
	assert.Error(t, err)
	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}
