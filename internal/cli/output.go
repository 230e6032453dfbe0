package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/deferq/internal/config"
	"github.com/roach88/deferq/internal/provider"
	"github.com/roach88/deferq/internal/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query ran but the result violated its contract (no rows for First, etc.)
	ExitCommandError = 2 // Command error (bad config, unknown table, invalid criteria, etc.)
)

// Error codes - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeConfig          = "E002" // Config file invalid or unreadable
	ErrCodeProvider        = "E003" // Provider missing, ambiguous or unknown
	ErrCodeUsage           = "E004" // Invalid query construction
	ErrCodeQuery           = "E005" // Compile or execution failure
	ErrCodeNoRows          = "E006" // Result required a row and had none
	ErrCodeMultipleRows    = "E007" // Result allowed one row and had more
	ErrCodeMultipleColumns = "E008" // Scalar result had more than one column
	ErrCodeFixtures        = "E009" // Fixtures invalid or seeding failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
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

// classify maps an error to an error code and exit code.
func classify(err error) (string, int) {
	var cfgErr *config.Error
	switch {
	case errors.Is(err, query.ErrNoRows):
		return ErrCodeNoRows, ExitFailure
	case errors.Is(err, query.ErrMultipleRows):
		return ErrCodeMultipleRows, ExitFailure
	case errors.Is(err, query.ErrMultipleColumns):
		return ErrCodeMultipleColumns, ExitFailure
	case errors.Is(err, query.ErrUsage):
		return ErrCodeUsage, ExitCommandError
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError
	case errors.Is(err, provider.ErrNoProvider),
		errors.Is(err, provider.ErrMultipleProviders),
		errors.Is(err, provider.ErrUnknownProvider):
		return ErrCodeProvider, ExitCommandError
	default:
		return ErrCodeGeneric, GetExitCode(err)
	}
}

// fail reports err through the formatter and returns the matching ExitError.
// fallback replaces the generic code for errors classify does not know.
func fail(f *OutputFormatter, fallback string, err error) error {
	code, exit := classify(err)
	if code == ErrCodeGeneric && fallback != "" {
		code = fallback
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
