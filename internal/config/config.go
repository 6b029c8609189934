// Package config loads pantry configuration from CUE.
//
// A configuration file is unified with an embedded schema (schema.cue), so
// unknown fields, wrong types and out-of-range values are rejected with the
// CUE position of the offending value, and omitted fields take the schema
// defaults.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Window WindowConfig `json:"window"`
	Pages  PagesConfig  `json:"pages"`
	DB     DBConfig     `json:"db"`
	Log    LogConfig    `json:"log"`
}

// WindowConfig sizes live windows.
type WindowConfig struct {
	Size int `json:"size"`
}

// PagesConfig sizes paginated fetches.
type PagesConfig struct {
	First int `json:"first"`
	Next  int `json:"next"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Path string `json:"path"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `json:"level"`
}

// SlogLevel converts Level to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error is a configuration error with its CUE position, if known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse("", nil)
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the CUE file at path. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the schema and decodes it. name is used in
// error positions.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(name))
		if err := user.Err(); err != nil {
			return Config{}, convertCUEError(err)
		}
		value = def.Unify(user)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, convertCUEError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, convertCUEError(err)
	}
	return cfg, nil
}

// convertCUEError keeps the first CUE error with its position.
func convertCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := first.Path(); len(path) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(path, "."), msg)
	}
	return &Error{Message: msg, Pos: first.Position()}
}
