package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a mutation rolled back, a load or scenario failed, the config is invalid
	ExitCommandError = 2 // bad flags or paths, or the database could not be opened
)

// Codes carried in the JSON error envelope.
const (
	ErrCodeGeneric  = "E001"
	ErrCodeMutation = "E002"
	ErrCodeLoad     = "E003"
	ErrCodeConfig   = "E004"
	ErrCodeNotFound = "E005"
)

// ExitError carries the exit code a command failure should end the process
// with. main reads it through GetExitCode.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that carry no
// ExitError end the process with ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope every --format json command writes.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error half of CLIResponse.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a CLIResponse.
// Diagnostics go to ErrWriter when set so they never interleave with JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data; in text mode it is printed with its default format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Lines writes data as JSON, or lines one per row as text.
func (f *OutputFormatter) Lines(data interface{}, lines []string) error {
	if f.isJSON() {
		return f.Success(data)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Error writes an error report. Text mode prints details only when verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Fail reports a controller failure and returns the ExitFailure error the
// command should return.
func (f *OutputFormatter) Fail(code, message string) error {
	if err := f.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitFailure, code+": "+message)
}

// VerboseLog writes a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, or Writer when none is set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
