package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/ledger"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	warnings := []ledger.Warning{{Code: ledger.WarnUnknownSetup, Message: "setup \"x\" does not exist"}}
	err := formatter.Success(map[string]string{"result": "success"}, "ignored in json", warnings)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, []CLIWarning{{Code: "UNKNOWN_SETUP", Message: `setup "x" does not exist`}}, resp.Warnings)
	assert.NotContains(t, buf.String(), "ignored in json")
}

func TestOutputFormatter_JSONSuccessOmitsEmptyWarnings(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success([]string{}, "", nil))
	assert.NotContains(t, buf.String(), "warnings")
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(nil, "SUCCESS: Added version api@1.0.0", nil)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS: Added version api@1.0.0\n", buf.String())
}

func TestOutputFormatter_TextSuccessEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success([]string{}, "", nil))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_JSONFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	lerr := ledger.NewValidationError("versions must be given for exactly the components of setup %q", "full")
	lerr.Details = map[string]string{"missing": "db"}
	err := formatter.Fail("failed to add test", lerr)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, lerr)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)
	assert.Equal(t, `versions must be given for exactly the components of setup "full"`, resp.Error.Message)
	assert.Equal(t, map[string]string{"missing": "db"}, resp.Error.Details)
}

func TestOutputFormatter_JSONFailPlainError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail("boom", errors.New("disk full"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ERROR", resp.Error.Code)
	assert.Equal(t, "disk full", resp.Error.Message)
}

func TestOutputFormatter_TextFailWritesNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail("failed to load ledger", &ledger.Error{Code: ledger.ErrCodeConflict, Message: "changed"})
	assert.Equal(t, ExitConflict, GetExitCode(err))
	assert.Equal(t, "failed to load ledger: changed", err.Error())
	assert.Empty(t, buf.String())
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		code ledger.ErrorCode
		want int
	}{
		{ledger.ErrCodeValidation, ExitFailure},
		{ledger.ErrCodeNotFound, ExitFailure},
		{ledger.ErrCodeConflict, ExitConflict},
		{ledger.ErrCodeStoreUnreachable, ExitCommandError},
		{ledger.ErrCodeCorruptDocument, ExitCommandError},
		{ledger.ErrCodeVerifyFailed, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(&ledger.Error{Code: tt.code}))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, "bad: cause", WrapExitError(ExitFailure, "bad", errors.New("cause")).Error())
}
