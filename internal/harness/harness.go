package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/pantry/internal/optimistic"
	"github.com/roach88/pantry/internal/record"
	"github.com/roach88/pantry/internal/testutil"
)

// State is the read side of a scenario's controller, used by assertions.
type State interface {
	Entries() []string
	Error() string
	Record(id string) (map[string]interface{}, bool)
	Count(id string) int
}

// driver runs steps against one typed controller.
type driver interface {
	State
	seed(ctx context.Context, args map[string]interface{}) error
	execute(ctx context.Context, step Step) (TraceEvent, error)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory repository. Deterministic
// helpers ensure reproducible traces.
//
// Execution flow:
// 1. Create the repository and controller for the scenario's collection
// 2. Seed the repository
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	drv, err := newDriver(scenario.Collection)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	for i, args := range scenario.Seed {
		if err := drv.seed(ctx, args); err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := drv.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.AddTrace(ev)
		for _, msg := range checkExpect(i, step.Expect, result.Trace[len(result.Trace)-1]) {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, drv) {
		result.AddError(msg)
	}
	return result, nil
}

func newDriver(collection string) (driver, error) {
	clock := testutil.NewSteppingClock(time.Second)
	switch collection {
	case "lists":
		return newCollection(testutil.NewListRepository(clock), optimistic.ListShape(), clock), nil
	case "sections":
		return newCollection(testutil.NewSectionRepository(clock), optimistic.SectionShape(), clock), nil
	case "purchases":
		return newCollection(testutil.NewPurchaseRepository(clock), optimistic.PurchaseShape(), clock), nil
	case "searches":
		return newCollection(testutil.NewSearchRepository(clock), optimistic.SearchShape(), clock), nil
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
}

type collection[T record.Record, C any, U any] struct {
	repo *testutil.Repository[T, C, U]
	ctl  *optimistic.Controller[T, C, U]
}

func newCollection[T record.Record, C any, U any](repo *testutil.Repository[T, C, U], shape optimistic.Shape[T, C, U], clock *testutil.ManualClock) *collection[T, C, U] {
	ctl := optimistic.New[T, C, U](repo, shape,
		optimistic.WithClock(clock.Now),
		optimistic.WithTempIDs(record.TempIDGenerator{Base: testutil.NewSequenceGenerator("tmp")}),
		optimistic.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in scenarios
	)
	return &collection[T, C, U]{repo: repo, ctl: ctl}
}

func (c *collection[T, C, U]) seed(ctx context.Context, args map[string]interface{}) error {
	var in C
	if err := decodeArgs(args, &in); err != nil {
		return err
	}
	_, err := c.repo.Create(ctx, in)
	return err
}

func (c *collection[T, C, U]) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{Op: step.Op, ID: step.ID}
	if step.Fail != "" {
		c.repo.FailNext(repoOp(step.Op), errors.New(step.Fail))
	}
	if step.Reject {
		c.repo.RejectNextDelete()
	}

	switch step.Op {
	case OpCreate:
		var in C
		if err := decodeArgs(step.Args, &in); err != nil {
			return ev, err
		}
		rec, ok := c.ctl.Create(ctx, in)
		ev.OK = ok
		if ok {
			ev.Result = rec.RecordID()
		}
	case OpUpdate:
		var patch U
		if err := decodeArgs(step.Args, &patch); err != nil {
			return ev, err
		}
		rec, ok := c.ctl.Update(ctx, step.ID, patch)
		ev.OK = ok
		if ok {
			ev.Result = rec.RecordID()
		}
	case OpDelete:
		ev.OK = c.ctl.Delete(ctx, step.ID)
	case OpLoad:
		ev.OK = c.ctl.LoadAll(ctx)
	case OpLoadByParent:
		ev.OK = c.ctl.LoadByParent(ctx, step.ID)
	case OpClear:
		c.ctl.Clear()
		ev.OK = true
	case OpClearError:
		c.ctl.ClearError()
		ev.OK = true
	case OpSetCount:
		c.ctl.SetCount(step.ID, step.Count)
		ev.OK = true
	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}

	ev.Error = c.ctl.Error()
	ev.Entries = c.Entries()
	return ev, nil
}

func (c *collection[T, C, U]) Entries() []string {
	entries := c.ctl.Entries()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.RecordID()
	}
	return ids
}

func (c *collection[T, C, U]) Error() string {
	return c.ctl.Error()
}

func (c *collection[T, C, U]) Count(id string) int {
	return c.ctl.Count(id)
}

// Record returns the projected record as its JSON object form.
func (c *collection[T, C, U]) Record(id string) (map[string]interface{}, bool) {
	rec, ok := c.ctl.Get(id)
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, false
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// repoOp maps a step to the repository operation it calls.
func repoOp(op string) string {
	switch op {
	case OpCreate:
		return testutil.OpCreate
	case OpUpdate:
		return testutil.OpUpdate
	case OpDelete:
		return testutil.OpDelete
	default:
		return testutil.OpList
	}
}

// decodeArgs converts YAML-parsed args into a typed input through their
// JSON field names.
func decodeArgs(args map[string]interface{}, dst interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}

// checkExpect compares a step's trace event with its expect clause.
func checkExpect(index int, exp *Expect, ev TraceEvent) []string {
	if exp == nil {
		return nil
	}
	var errs []string
	if exp.OK != nil && *exp.OK != ev.OK {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected ok=%v, got %v", index, ev.Op, *exp.OK, ev.OK))
	}
	if exp.Error != nil && *exp.Error != ev.Error {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected error %q, got %q", index, ev.Op, *exp.Error, ev.Error))
	}
	if exp.Result != "" && exp.Result != ev.Result {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected result %q, got %q", index, ev.Op, exp.Result, ev.Result))
	}
	if exp.Entries != nil && !equalStrings(exp.Entries, ev.Entries) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: expected entries %v, got %v", index, ev.Op, exp.Entries, ev.Entries))
	}
	return errs
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
