package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/ledger/internal/ledger"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input or unknown setup/component
	ExitCommandError = 2 // Command error (bad config, store unreachable, corrupt document, etc.)
	ExitConflict     = 3 // Another writer won every attempt; re-run the command
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor maps a ledger error code to a process exit code.
func exitCodeFor(err error) int {
	switch ledger.CodeOf(err) {
	case ledger.ErrCodeValidation, ledger.ErrCodeNotFound:
		return ExitFailure
	case ledger.ErrCodeConflict:
		return ExitConflict
	default:
		return ExitCommandError
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status   string       `json:"status"`             // "ok" or "error"
	Data     any          `json:"data,omitempty"`     // success payload
	Warnings []CLIWarning `json:"warnings,omitempty"` // advisory conditions on success
	Error    *CLIError    `json:"error,omitempty"`    // error details
}

// CLIWarning is one advisory condition in a CLI response.
type CLIWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string            `json:"code"`              // ledger error code, e.g. "VALIDATION"
	Message string            `json:"message"`           // human-readable message
	Details map[string]string `json:"details,omitempty"` // additional context
}

// Success outputs a result. JSON output carries data and warnings; text
// output prints text, since warnings already went to the log.
func (f *OutputFormatter) Success(data any, text string, warnings []ledger.Warning) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: data}
		for _, w := range warnings {
			resp.Warnings = append(resp.Warnings, CLIWarning{Code: string(w.Code), Message: w.Message})
		}
		return json.NewEncoder(f.Writer).Encode(resp)
	}

	if text != "" {
		fmt.Fprintln(f.Writer, text)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// In JSON mode the error is also written to the output as a response.
func (f *OutputFormatter) Fail(message string, err error) error {
	exitErr := WrapExitError(exitCodeFor(err), message, err)
	if f.Format != "json" {
		return exitErr
	}

	cliErr := &CLIError{Code: "ERROR", Message: err.Error()}
	var lerr *ledger.Error
	if errors.As(err, &lerr) {
		cliErr.Code = string(lerr.Code)
		cliErr.Message = lerr.Message
		cliErr.Details = lerr.Details
	}
	if encErr := json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr}); encErr != nil {
		return errors.Join(exitErr, encErr)
	}
	return exitErr
}
