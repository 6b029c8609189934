package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/pantry/internal/record"
)

// Operation names accepted by Repository's scripting methods.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpGet    = "get"
	OpList   = "list"
	OpPage   = "page"
	OpRecent = "recent"
)

type gate struct {
	started chan struct{}
	release chan struct{}
}

// Repository is a scriptable in-memory repository for one entity type.
//
// It implements the same contract as the SQLite repositories and adds
// hooks for tests: FailNext makes the next call of an operation fail,
// RejectNextDelete makes Delete report false, and Hold blocks the next call
// of an operation until the test releases it.
//
// Records are kept newest first.
type Repository[T record.Record, C any, U any] struct {
	mu       sync.Mutex
	items    []T
	build    func(id string, in C, now time.Time) T
	apply    func(cur T, patch U, now time.Time) T
	ids      record.IDGenerator
	now      func() time.Time
	failures map[string]error
	rejectDl bool
	gates    map[string]*gate
	calls    map[string]int
}

// NewRepository creates an empty repository.
func NewRepository[T record.Record, C any, U any](
	build func(id string, in C, now time.Time) T,
	apply func(cur T, patch U, now time.Time) T,
	ids record.IDGenerator,
	now func() time.Time,
) *Repository[T, C, U] {
	return &Repository[T, C, U]{
		build:    build,
		apply:    apply,
		ids:      ids,
		now:      now,
		failures: make(map[string]error),
		gates:    make(map[string]*gate),
		calls:    make(map[string]int),
	}
}

// NewListRepository creates a list repository assigning "list-N" ids.
func NewListRepository(clock *ManualClock) *Repository[record.List, record.ListInput, record.ListPatch] {
	return NewRepository(record.BuildList, record.ApplyListPatch, NewSequenceGenerator("list"), clock.Now)
}

// NewSectionRepository creates a section repository assigning "section-N" ids.
func NewSectionRepository(clock *ManualClock) *Repository[record.Section, record.SectionInput, record.SectionPatch] {
	return NewRepository(record.BuildSection, record.ApplySectionPatch, NewSequenceGenerator("section"), clock.Now)
}

// NewPurchaseRepository creates a purchase repository assigning "purchase-N" ids.
func NewPurchaseRepository(clock *ManualClock) *Repository[record.PurchaseEntry, record.PurchaseInput, record.PurchasePatch] {
	return NewRepository(record.BuildPurchase, record.ApplyPurchasePatch, NewSequenceGenerator("purchase"), clock.Now)
}

// NewSearchRepository creates a search repository assigning "search-N" ids.
func NewSearchRepository(clock *ManualClock) *Repository[record.SearchEntry, record.SearchInput, record.SearchPatch] {
	return NewRepository(record.BuildSearch, record.ApplySearchPatch, NewSequenceGenerator("search"), clock.Now)
}

// Seed stores items directly, bypassing scripting and call counting.
func (r *Repository[T, C, U]) Seed(items ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, items...)
	record.SortNewestFirst(r.items)
}

// Items returns a copy of the stored records, newest first.
func (r *Repository[T, C, U]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

// FailNext makes the next call of op return err.
func (r *Repository[T, C, U]) FailNext(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = err
}

// RejectNextDelete makes the next Delete return (false, nil) without deleting.
func (r *Repository[T, C, U]) RejectNextDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejectDl = true
}

// Hold blocks the next call of op. The returned channel is closed once that
// call has started; calling release lets it proceed.
func (r *Repository[T, C, U]) Hold(op string) (started <-chan struct{}, release func()) {
	g := &gate{started: make(chan struct{}), release: make(chan struct{})}
	r.mu.Lock()
	r.gates[op] = g
	r.mu.Unlock()

	var once sync.Once
	return g.started, func() { once.Do(func() { close(g.release) }) }
}

// Calls returns how many times op was invoked.
func (r *Repository[T, C, U]) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// enter counts the call, waits on a gate if one is set and returns the
// scripted failure for op, if any.
func (r *Repository[T, C, U]) enter(ctx context.Context, op string) error {
	r.mu.Lock()
	r.calls[op]++
	g := r.gates[op]
	delete(r.gates, op)
	r.mu.Unlock()

	if g != nil {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failures[op]; ok {
		delete(r.failures, op)
		return err
	}
	return nil
}

// Create stores a new record with the next generated id.
func (r *Repository[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	var zero T
	if err := r.enter(ctx, OpCreate); err != nil {
		return zero, err
	}
	rec := r.build(r.ids.Generate(), in, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]T{rec}, r.items...)
	record.SortNewestFirst(r.items)
	return rec, nil
}

// Update applies patch to the record with id.
func (r *Repository[T, C, U]) Update(ctx context.Context, id string, patch U) (T, error) {
	var zero T
	if err := r.enter(ctx, OpUpdate); err != nil {
		return zero, err
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.RecordID() == id {
			r.items[i] = r.apply(it, patch, now)
			return r.items[i], nil
		}
	}
	return zero, record.ErrNotFound
}

// Delete removes the record with id.
func (r *Repository[T, C, U]) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.enter(ctx, OpDelete); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectDl {
		r.rejectDl = false
		return false, nil
	}
	for i, it := range r.items {
		if it.RecordID() == id {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// GetByID returns the record with id or record.ErrNotFound.
func (r *Repository[T, C, U]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := r.enter(ctx, OpGet); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.RecordID() == id {
			return it, nil
		}
	}
	return zero, record.ErrNotFound
}

// List returns every record, newest first.
func (r *Repository[T, C, U]) List(ctx context.Context) ([]T, error) {
	if err := r.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return r.Items(), nil
}

// ListByParent returns the records whose ParentID equals parentID.
// Panics if T does not implement record.Parented.
func (r *Repository[T, C, U]) ListByParent(ctx context.Context, parentID string) ([]T, error) {
	if err := r.enter(ctx, OpList); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := []T{}
	for _, it := range r.items {
		p, ok := any(it).(record.Parented)
		if !ok {
			panic(fmt.Sprintf("testutil: %T has no parent", it))
		}
		if p.ParentID() == parentID {
			out = append(out, it)
		}
	}
	return out, nil
}

// Page returns up to limit records strictly after cursor.
func (r *Repository[T, C, U]) Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[T], error) {
	if err := r.enter(ctx, OpPage); err != nil {
		return record.Page[T]{}, err
	}
	if limit <= 0 {
		return record.Page[T]{}, fmt.Errorf("page: limit must be positive, got %d", limit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pageLocked(cursor, limit), nil
}

func (r *Repository[T, C, U]) pageLocked(cursor *record.Cursor, limit int) record.Page[T] {
	var after []T
	for _, it := range r.items {
		if cursor == nil || cursor.After(it) {
			after = append(after, it)
		}
	}

	p := record.Page[T]{Items: []T{}}
	if len(after) > limit {
		p.Items = append(p.Items, after[:limit]...)
		p.HasMore = true
	} else {
		p.Items = append(p.Items, after...)
	}
	if len(p.Items) > 0 {
		next := record.CursorOf(p.Items[len(p.Items)-1])
		p.NextCursor = &next
	}
	return p
}

// Recent returns the newest limit records.
func (r *Repository[T, C, U]) Recent(ctx context.Context, limit int) ([]T, error) {
	if err := r.enter(ctx, OpRecent); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pageLocked(nil, limit).Items, nil
}
