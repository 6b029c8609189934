package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "Failed to create list", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "Failed to create list", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"file": "pantry.cue", "line": "3"}
	err := formatter.Error("E002", "window.size out of range", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("created list 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "created list 1")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E001", "Failed to create list", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "Failed to create list")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "pantry.cue"}
	err := formatter.Error("E001", "Failed to create list", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "pantry.cue")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Processing pantry.cue")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E100",
		Message: "Invalid list",
		Details: []string{"name failed required"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E100", decoded.Code)
	assert.Equal(t, "Invalid list", decoded.Message)
}

func TestOutputFormatter_Lines(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Lines([]int{1, 2}, []string{"one", "two"}))
	assert.Equal(t, "one\ntwo\n", buf.String())

	buf.Reset()
	formatter.Format = "json"
	require.NoError(t, formatter.Lines([]int{1, 2}, []string{"one", "two"}))

	var resp struct {
		Status string `json:"status"`
		Data   []int  `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []int{1, 2}, resp.Data)
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(ErrCodeMutation, "List not found")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E002: List not found", err.Error())
	assert.Equal(t, "Error [E002]: List not found\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "open", errors.New("denied")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: open: denied", wrapped.Error())
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("loaded %d", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "loaded 3\n", errOut.String())
	assert.Equal(t, errOut, formatter.GetErrWriter())
}
