package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.Window.Size)
	assert.Equal(t, 50, cfg.Pages.First)
	assert.Equal(t, 20, cfg.Pages.Next)
	assert.Equal(t, "pantry.db", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Custom(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "custom.cue"))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Window.Size)
	assert.Equal(t, 40, cfg.Pages.First)
	assert.Equal(t, 10, cfg.Pages.Next)
	assert.Equal(t, "/var/lib/pantry/pantry.db", cfg.DB.Path)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "partial.cue"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Pages.Next)
	assert.Equal(t, 50, cfg.Pages.First)
	assert.Equal(t, 50, cfg.Window.Size)
}

func TestLoad_RejectsOutOfRange(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid_size.cue"))
	require.Error(t, err)

	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_field.cue"))
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoad_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte("window: {"), 0o644))

	_, err := Load(path)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, cfgErr.Pos.IsValid())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_WrongType(t *testing.T) {
	_, err := Parse("inline.cue", []byte(`pages: first: "many"`))
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LogConfig{}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
}
