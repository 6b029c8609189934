package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllScenariosPass(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Steps))
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "section_update.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ReportsFailedExpectation(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectation
description: "The create succeeds, the scenario claims it fails"
collection: purchases
steps:
  - op: create
    args: { list_id: "l", item_name: "eggs", quantity: 12 }
    expect:
      ok: false
assertions:
  - type: projection
    entries: [purchase-9]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected ok=false, got true")
	assert.Contains(t, result.Errors[1], "Assertion failed: projection")
}

func TestRun_BadArgs(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_args
description: "quantity is not a number"
collection: purchases
steps:
  - op: create
    args: { list_id: "l", item_name: "eggs", quantity: "a dozen" }
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode args")
}

func TestRun_SeedFailure(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_seed
description: "seed input does not decode"
collection: lists
seed:
  - { name: 42 }
steps:
  - op: load
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed 0")
}

func TestRun_LoadFailure(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: load_failure
description: "a failed load keeps the projection"
collection: lists
steps:
  - op: create
    args: { name: "A" }
  - op: load
    fail: "no such table"
    expect:
      ok: false
      error: "Failed to load lists"
      entries: [list-1]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
