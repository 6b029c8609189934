package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s ok=%v %v\n", event.Seq, event.Op, event.ID, event.OK, event.Entries)
		}
	}

	return buf.String()
}

// assertProjection checks the projection ids, in order.
func assertProjection(state State, trace []TraceEvent, assertion Assertion) error {
	actual := state.Entries()
	expected := assertion.Entries
	if expected == nil {
		expected = []string{}
	}
	if !equalStrings(expected, actual) {
		return &AssertionError{
			Type:     AssertProjection,
			Expected: fmt.Sprintf("entries %v", expected),
			Actual:   fmt.Sprintf("entries %v", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertError checks the controller's error message. An empty message
// asserts that there is no error.
func assertError(state State, trace []TraceEvent, assertion Assertion) error {
	if actual := state.Error(); actual != assertion.Message {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %q", assertion.Message),
			Actual:   fmt.Sprintf("error %q", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the fields of one projected record using subset
// semantics.
func assertFinalState(state State, assertion Assertion) error {
	actual, ok := state.Record(assertion.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s in projection", assertion.ID),
			Actual:   "record not found",
		}
	}

	// Sort keys for deterministic failure messages.
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present on %s", key, assertion.ID),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// assertCount checks the auxiliary count kept for a record.
func assertCount(state State, assertion Assertion) error {
	if actual := state.Count(assertion.ID); actual != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("count(%s) = %d", assertion.ID, assertion.Count),
			Actual:   fmt.Sprintf("count(%s) = %d", assertion.ID, actual),
		}
	}
	return nil
}

// assertTraceCount checks how many steps of an op ran, optionally only
// those with the given outcome.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op != assertion.Op {
			continue
		}
		if assertion.OK != nil && event.OK != *assertion.OK {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Op
		if assertion.OK != nil {
			what = fmt.Sprintf("%s (ok=%v)", assertion.Op, *assertion.OK)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// stateValuesEqual compares a YAML-parsed expected value with a value
// decoded from a record's JSON form, where every number is a float64.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if actualNum, ok := actual.(float64); ok {
		switch exp := expected.(type) {
		case int:
			return float64(exp) == actualNum
		case int64:
			return float64(exp) == actualNum
		case float64:
			return exp == actualNum
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// EvaluateAssertions evaluates all assertions against the result and the
// final controller state. Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, state State) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertProjection:
			err = assertProjection(state, result.Trace, assertion)
		case AssertError:
			err = assertError(state, result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(state, assertion)
		case AssertCount:
			err = assertCount(state, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
