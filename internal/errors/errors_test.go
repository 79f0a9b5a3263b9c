package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"eosphase/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_CodeFromDomainError(t *testing.T) {
	tests := []struct {
		err  error
		code string
		exit int
	}{
		{core.NewParseError("a.dat", "no data rows"), CodeParseError, 2},
		{core.NewSchemaError("T"), CodeSchemaError, 3},
		{core.NewInsufficientDataError("stratum 3 has 1 row"), CodeInsufficient, 4},
		{core.NewConfigError("model", "unknown"), CodeConfigInvalid, 5},
		{core.NewDeserializationError("m.joblib", "checksum mismatch"), CodeDeserialization, 6},
		{fmt.Errorf("disk full"), CodeInternalError, 1},
	}
	for _, tt := range tests {
		wrapped := Wrap(tt.err, "train failed")
		assert.Equal(t, tt.code, GetCode(wrapped))
		assert.Equal(t, tt.exit, ExitCode(wrapped))
		assert.True(t, stderrors.Is(wrapped, tt.err))
	}
}

func TestWrap_KeepsAppErrorCode(t *testing.T) {
	inner := New(CodeDatabaseError, "ledger unavailable")
	outer := Wrapf(inner, "record run %d", 3)
	assert.Equal(t, CodeDatabaseError, GetCode(outer))
	assert.Equal(t, "record run 3: ledger unavailable", outer.Error())
	assert.Equal(t, 1, ExitCode(outer))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

func TestExitCode_ConfigInvalid(t *testing.T) {
	assert.Equal(t, 5, ExitCode(New(CodeConfigInvalid, "EOS_SEED must be an integer")))
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
	assert.True(t, IsAppError(NotFound("run")))
}
