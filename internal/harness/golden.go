package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Collection   string       `json:"collection,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	if s.Trace == nil {
		s.Trace = []TraceEvent{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Collection:   scenario.Collection,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}

// AssertGolden compares an existing result's trace against the scenario's
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Collection:   scenario.Collection,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
