package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configTestdata = filepath.Join("..", "config", "testdata")

func TestValidate_Valid(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun("validate", filepath.Join(configTestdata, "custom.cue"))
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "window.size  25")
	assert.Contains(t, out, "pages.next   10")
	assert.Contains(t, out, "log.level    debug")
}

func TestValidate_ValidJSON(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun("--format", "json", "validate", filepath.Join(configTestdata, "partial.cue"))

	var res ValidationResult
	decodeData(t, out, &res)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Config)
	assert.Equal(t, 5, res.Config.Pages.Next)
	assert.Equal(t, 50, res.Config.Pages.First)
}

func TestValidate_Invalid(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("--format", "json", "validate", filepath.Join(configTestdata, "unknown_field.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "colour")
}

func TestValidate_MissingFile(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("validate", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, out, "Error [E004]")
}
