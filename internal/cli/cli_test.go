package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliEnv runs commands against one temporary database.
type cliEnv struct {
	t      *testing.T
	dir    string
	dbPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, dbPath: filepath.Join(dir, "pantry.db")}
}

// run executes the root command with --db set and returns stdout, stderr
// and the command error.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	return e.runContext(context.Background(), &bytes.Buffer{}, args...)
}

// outputBuffer is where a command writes its stdout.
type outputBuffer interface {
	io.Writer
	String() string
}

func (e *cliEnv) runContext(ctx context.Context, out outputBuffer, args ...string) (string, string, error) {
	e.t.Helper()
	cmd := NewRootCommand()
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", e.dbPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// mustRun fails the test if the command errors.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", errOut)
	return out
}

// writeConfig writes a pantry.cue into the environment's directory.
func (e *cliEnv) writeConfig(content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, "pantry.cue")
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// decodeData decodes the data field of a JSON response.
func decodeData(t *testing.T, out string, dst interface{}) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	require.Equal(t, "ok", resp.Status)
	if len(resp.Data) == 0 {
		return
	}
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

// syncBuffer is a bytes.Buffer safe for one writer goroutine and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
