package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of controller operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection selects the controller: lists, sections, purchases or
	// searches.
	Collection string `yaml:"collection"`

	// Seed inputs are created directly in the repository before the steps.
	Seed []map[string]interface{} `yaml:"seed,omitempty"`

	// Steps run in order against the controller.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final projection.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one controller operation.
type Step struct {
	// Op is the operation (see the Op constants).
	Op string `yaml:"op"`

	// ID is the target record (update, delete, set_count) or the parent
	// (load_by_parent).
	ID string `yaml:"id,omitempty"`

	// Args is the create input or update patch.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Count is the value for set_count.
	Count int `yaml:"count,omitempty"`

	// Fail makes the repository call of this step fail with this message.
	Fail string `yaml:"fail,omitempty"`

	// Reject makes a delete report that nothing was deleted.
	Reject bool `yaml:"reject,omitempty"`

	// Expect optionally checks the step's outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect checks one step. Unset fields are not checked.
type Expect struct {
	OK      *bool    `yaml:"ok,omitempty"`
	Error   *string  `yaml:"error,omitempty"`
	Result  string   `yaml:"result,omitempty"`
	Entries []string `yaml:"entries,omitempty"`
}

// Assertion validates the outcome of the whole scenario.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Entries is the expected projection (projection).
	Entries []string `yaml:"entries,omitempty"`

	// Message is the expected error message (error).
	Message string `yaml:"message"`

	// ID is the record checked by final_state and count.
	ID string `yaml:"id,omitempty"`

	// Expect holds expected field values (final_state); subset match.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected count (count, trace_count).
	Count int `yaml:"count,omitempty"`

	// Op and OK filter trace events (trace_count).
	Op string `yaml:"op,omitempty"`
	OK *bool  `yaml:"ok,omitempty"`
}

// Step operations.
const (
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpLoad         = "load"
	OpLoadByParent = "load_by_parent"
	OpClear        = "clear"
	OpClearError   = "clear_error"
	OpSetCount     = "set_count"
)

// Assertion type constants.
const (
	AssertProjection = "projection"
	AssertError      = "error"
	AssertFinalState = "final_state"
	AssertCount      = "count"
	AssertTraceCount = "trace_count"
)

// Collections a scenario may target.
var collections = map[string]bool{
	"lists":     true,
	"sections":  true,
	"purchases": true,
	"searches":  true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !collections[s.Collection] {
		return fmt.Errorf("collection %q is not one of lists, sections, purchases, searches", s.Collection)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpCreate:
		if st.Args == nil {
			return fmt.Errorf("steps[%d]: create requires args", index)
		}
	case OpUpdate:
		if st.ID == "" || st.Args == nil {
			return fmt.Errorf("steps[%d]: update requires id and args", index)
		}
	case OpDelete, OpSetCount, OpLoadByParent:
		if st.ID == "" {
			return fmt.Errorf("steps[%d]: %s requires id", index, st.Op)
		}
	case OpLoad, OpClear, OpClearError:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	if st.Reject && st.Op != OpDelete {
		return fmt.Errorf("steps[%d]: reject only applies to delete", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertProjection, AssertError:
	case AssertFinalState:
		if a.ID == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: final_state requires id and expect", index)
		}
	case AssertCount:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: count requires id", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: trace_count requires op", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
