package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/pantry/internal/metrics"
	"github.com/roach88/pantry/internal/record"
)

// Controller owns the projection of one collection.
//
// Thread-safety: all methods are safe for concurrent use. The lock is held
// only while the projection is read or written, never across a repository
// call, so overlapping mutations are possible and resolved by generation.
type Controller[T record.Record, C any, U any] struct {
	repo      Repository[T, C, U]
	shape     Shape[T, C, U]
	tempIDs   record.IDGenerator
	now       func() time.Time
	validator *record.Validator
	logger    *slog.Logger
	metrics   *metrics.Collectors

	mu          sync.Mutex
	entries     []T
	counts      map[string]int
	errMsg      string
	loading     bool
	initialized bool
	pending     map[string]*pending[T] // in-flight mutations per id
	nextGen     uint64
	epoch       uint64 // bumped by Clear
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	tempIDs   record.IDGenerator
	now       func() time.Time
	validator *record.Validator
	logger    *slog.Logger
	metrics   *metrics.Collectors
}

// WithTempIDs overrides temporary id generation (default TempIDGenerator).
func WithTempIDs(g record.IDGenerator) Option {
	return func(o *options) { o.tempIDs = g }
}

// WithClock overrides the time source for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithValidator shares a validator between controllers.
func WithValidator(v *record.Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records mutation outcomes on m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) { o.metrics = m }
}

// New returns a fresh controller bound to repo. Each call produces an
// independent instance; controllers never share state.
func New[T record.Record, C any, U any](repo Repository[T, C, U], shape Shape[T, C, U], opts ...Option) *Controller[T, C, U] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tempIDs == nil {
		o.tempIDs = record.TempIDGenerator{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.validator == nil {
		o.validator = record.NewValidator()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Controller[T, C, U]{
		repo:      repo,
		shape:     shape,
		tempIDs:   o.tempIDs,
		now:       o.now,
		validator: o.validator,
		logger:    o.logger.With("entity", shape.Noun),
		metrics:   o.metrics,
		entries:   []T{},
		counts:    make(map[string]int),
		pending:   make(map[string]*pending[T]),
	}
}

// Entries returns a copy of the projection.
func (c *Controller[T, C, U]) Entries() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T{}, c.entries...)
}

// Get returns the projected record with id.
func (c *Controller[T, C, U]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.entries[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of projected records.
func (c *Controller[T, C, U]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Error returns the last failure message, or "" if none.
func (c *Controller[T, C, U]) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// ClearError forgets the last failure.
func (c *Controller[T, C, U]) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Loading reports whether a LoadAll or LoadByParent is in flight.
func (c *Controller[T, C, U]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Initialized reports whether a load has completed since the last Clear.
func (c *Controller[T, C, U]) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Count returns the auxiliary count kept for id.
func (c *Controller[T, C, U]) Count(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[id]
}

// Counts returns a copy of all auxiliary counts.
func (c *Controller[T, C, U]) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyCounts(c.counts)
}

// SetCount sets the auxiliary count for id. Counts are derived state (for
// example the number of sections in a list) and roll back with the
// projection when a delete fails.
func (c *Controller[T, C, U]) SetCount(id string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[id] = n
}

// SetCounts replaces all auxiliary counts.
func (c *Controller[T, C, U]) SetCounts(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = copyCounts(counts)
}

// Clear empties the projection and counts, resets Initialized and the last
// error, and invalidates every in-flight mutation.
func (c *Controller[T, C, U]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = []T{}
	c.counts = make(map[string]int)
	c.pending = make(map[string]*pending[T])
	c.initialized = false
	c.errMsg = ""
	c.epoch++
}

// Create applies a new record optimistically under a temporary id, then
// asks the repository to create it. On success the temporary record is
// replaced by the durable one and returned; on failure it is removed again
// and ok is false.
func (c *Controller[T, C, U]) Create(ctx context.Context, in C) (T, bool) {
	var zero T
	if err := c.validator.Struct(in); err != nil {
		c.reject("create", fmt.Sprintf("Invalid %s: %s", c.shape.Noun, validationDetail(err)))
		return zero, false
	}

	tempID := c.tempIDs.Generate()
	optimisticRec := c.shape.Build(tempID, in, c.now())

	c.mu.Lock()
	epoch := c.epoch
	c.entries = append([]T{optimisticRec}, c.entries...)
	c.mu.Unlock()

	c.logger.Debug("optimistic create applied", "temp_id", tempID)
	c.metrics.MutationStarted(c.shape.Noun)

	rec, err := c.repo.Create(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.discardLocked("create", tempID, err)
		if err != nil {
			return zero, false
		}
		return rec, true
	}

	i := c.indexLocked(tempID)
	if err != nil {
		if i >= 0 {
			c.removeAtLocked(i)
		}
		c.failLocked("create", tempID, fmt.Sprintf("Failed to create %s", c.shape.Noun), metrics.OutcomeRolledBack, err)
		return zero, false
	}

	switch {
	case i >= 0:
		c.entries[i] = rec
	case c.indexLocked(rec.RecordID()) < 0:
		// A reload replaced the projection while the write was in flight.
		c.entries = append([]T{rec}, c.entries...)
	}
	c.logger.Debug("create confirmed", "temp_id", tempID, "id", rec.RecordID())
	c.metrics.MutationFinished(c.shape.Noun, "create", metrics.OutcomeConfirmed)
	return rec, true
}

// Update applies patch optimistically to the record with id, then asks the
// repository to persist it. Unknown ids, and records still waiting for
// their create to confirm, fail without contacting the repository.
func (c *Controller[T, C, U]) Update(ctx context.Context, id string, patch U) (T, bool) {
	var zero T
	if record.IsTemporaryID(id) {
		c.reject("update", c.unsavedMessage())
		return zero, false
	}
	if err := c.validator.Struct(patch); err != nil {
		c.reject("update", fmt.Sprintf("Invalid %s: %s", c.shape.Noun, validationDetail(err)))
		return zero, false
	}

	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		c.reject("update", c.notFoundMessage())
		return zero, false
	}
	m := c.beginLocked(id)
	c.entries[i] = c.shape.Apply(c.entries[i], patch, c.now())
	c.mu.Unlock()

	c.logger.Debug("optimistic update applied", "id", id)
	c.metrics.MutationStarted(c.shape.Noun)

	rec, err := c.repo.Update(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m.epoch != c.epoch {
		c.discardLocked("update", id, err)
		if err != nil {
			return zero, false
		}
		return rec, true
	}

	if err != nil {
		c.settleLocked(m, nil)
		msg := fmt.Sprintf("Failed to update %s", c.shape.Noun)
		if errors.Is(err, record.ErrNotFound) {
			msg = c.notFoundMessage()
		}
		c.failLocked("update", id, msg, metrics.OutcomeRolledBack, err)
		return zero, false
	}

	confirmed := c.pending[id].base
	confirmed.rec = rec
	confirmed.present = true
	if !c.settleLocked(m, &confirmed) {
		c.metrics.MutationFinished(c.shape.Noun, "update", metrics.OutcomeStale)
		return rec, true
	}
	c.metrics.MutationFinished(c.shape.Noun, "update", metrics.OutcomeConfirmed)
	return rec, true
}

// Delete removes the record with id optimistically, together with its
// auxiliary count, then asks the repository to delete it. A repository
// error or a false result restores both. Ids absent from the projection are
// still sent to the repository; temporary ids are not.
func (c *Controller[T, C, U]) Delete(ctx context.Context, id string) bool {
	if record.IsTemporaryID(id) {
		c.reject("delete", c.unsavedMessage())
		return false
	}

	c.mu.Lock()
	m := c.beginLocked(id)
	i := c.indexLocked(id)
	if i >= 0 {
		c.removeAtLocked(i)
	}
	delete(c.counts, id)
	c.mu.Unlock()

	c.logger.Debug("optimistic delete applied", "id", id, "present", i >= 0)
	c.metrics.MutationStarted(c.shape.Noun)

	ok, err := c.repo.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && !ok {
		err = record.ErrNotFound
	}
	if m.epoch != c.epoch {
		c.discardLocked("delete", id, err)
		return err == nil
	}

	if err != nil {
		c.settleLocked(m, nil)
		msg := fmt.Sprintf("Failed to delete %s", c.shape.Noun)
		if errors.Is(err, record.ErrNotFound) {
			msg = c.notFoundMessage()
		}
		c.failLocked("delete", id, msg, metrics.OutcomeRolledBack, err)
		return false
	}

	if !c.settleLocked(m, &snapshot[T]{index: -1}) {
		c.metrics.MutationFinished(c.shape.Noun, "delete", metrics.OutcomeStale)
		return true
	}
	c.metrics.MutationFinished(c.shape.Noun, "delete", metrics.OutcomeConfirmed)
	return true
}

// LoadAll replaces the projection with a freshly sorted repository fetch.
// A load already in flight makes this call a no-op returning false.
func (c *Controller[T, C, U]) LoadAll(ctx context.Context) bool {
	epoch, ok := c.startLoad()
	if !ok {
		return false
	}
	items, err := c.repo.List(ctx)
	return c.finishLoad(epoch, items, err, nil)
}

// LoadByParent replaces only the records belonging to parentID with a
// freshly sorted fetch, leaving the rest of the projection intact.
func (c *Controller[T, C, U]) LoadByParent(ctx context.Context, parentID string) bool {
	lister, ok := c.repo.(ParentLister[T])
	if !ok {
		c.reject("load", fmt.Sprintf("%s cannot be loaded by parent", capitalize(c.shape.plural())))
		return false
	}
	epoch, ok := c.startLoad()
	if !ok {
		return false
	}
	items, err := lister.ListByParent(ctx, parentID)
	return c.finishLoad(epoch, items, err, &parentID)
}

func (c *Controller[T, C, U]) startLoad() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return 0, false
	}
	c.loading = true
	return c.epoch, true
}

func (c *Controller[T, C, U]) finishLoad(epoch uint64, items []T, err error, parentID *string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if epoch != c.epoch {
		c.logger.Debug("discarding load started before clear")
		return false
	}
	if err != nil {
		c.errMsg = fmt.Sprintf("Failed to load %s", c.shape.plural())
		c.logger.Warn("load failed", "error", err)
		return false
	}

	fresh := append([]T{}, items...)
	if parentID == nil {
		c.entries = fresh
	} else {
		kept := make([]T, 0, len(c.entries)+len(fresh))
		for _, e := range c.entries {
			if p, ok := any(e).(record.Parented); ok && p.ParentID() == *parentID {
				continue
			}
			kept = append(kept, e)
		}
		c.entries = append(kept, fresh...)
	}
	record.SortNewestFirst(c.entries)
	c.initialized = true
	c.logger.Debug("projection loaded", "count", len(c.entries))
	return true
}

// mutation identifies one in-flight Update or Delete.
type mutation struct {
	id    string
	gen   uint64
	epoch uint64
}

// beginLocked claims a new generation for id. The first mutation of an id
// with nothing in flight captures the id's confirmed state as the base.
func (c *Controller[T, C, U]) beginLocked(id string) *mutation {
	p, ok := c.pending[id]
	if !ok {
		p = &pending[T]{base: c.snapshotLocked(id)}
		c.pending[id] = p
	}
	c.nextGen++
	p.inflight++
	p.latest = c.nextGen
	return &mutation{id: id, gen: c.nextGen, epoch: c.epoch}
}

// settleLocked finishes m. A confirmed result becomes the id's base unless
// a newer mutation was already confirmed. The projection is reset to the
// base when m is the newest mutation of the id or the last one in flight;
// otherwise the newer optimistic change stays visible. It reports whether m
// was the newest mutation.
func (c *Controller[T, C, U]) settleLocked(m *mutation, confirmed *snapshot[T]) bool {
	p := c.pending[m.id]
	latest := p.latest == m.gen
	if confirmed != nil && m.gen > p.baseGen {
		p.base = *confirmed
		p.baseGen = m.gen
	}
	p.inflight--
	if latest || p.inflight == 0 {
		c.restoreLocked(m.id, p.base)
	}
	if p.inflight == 0 {
		delete(c.pending, m.id)
	}
	if !latest {
		c.logger.Debug("result superseded by a newer mutation", "id", m.id)
	}
	return latest
}

// discardLocked drops a result that arrived after Clear.
func (c *Controller[T, C, U]) discardLocked(op, id string, err error) {
	c.logger.Debug("discarding result started before clear", "op", op, "id", id, "error", err)
	c.metrics.MutationFinished(c.shape.Noun, op, metrics.OutcomeStale)
}

func (c *Controller[T, C, U]) failLocked(op, id, msg string, outcome metrics.Outcome, err error) {
	c.errMsg = msg
	c.logger.Warn("mutation rolled back", "op", op, "id", id, "error", err)
	c.metrics.MutationFinished(c.shape.Noun, op, outcome)
}

func (c *Controller[T, C, U]) reject(op, msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
	c.logger.Debug("mutation rejected", "op", op, "reason", msg)
	c.metrics.MutationRejected(c.shape.Noun, op)
}

func (c *Controller[T, C, U]) notFoundMessage() string {
	return capitalize(c.shape.Noun) + " not found"
}

func (c *Controller[T, C, U]) unsavedMessage() string {
	return capitalize(c.shape.Noun) + " is not saved yet"
}

func (c *Controller[T, C, U]) indexLocked(id string) int {
	for i, e := range c.entries {
		if e.RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *Controller[T, C, U]) removeAtLocked(i int) {
	next := make([]T, 0, len(c.entries)-1)
	next = append(next, c.entries[:i]...)
	c.entries = append(next, c.entries[i+1:]...)
}

func (c *Controller[T, C, U]) insertAtLocked(i int, rec T) {
	if i > len(c.entries) {
		i = len(c.entries)
	}
	next := make([]T, 0, len(c.entries)+1)
	next = append(next, c.entries[:i]...)
	next = append(next, rec)
	c.entries = append(next, c.entries[i:]...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func validationDetail(err error) string {
	var re *record.Error
	if errors.As(err, &re) && re.Err != nil {
		return re.Err.Error()
	}
	return err.Error()
}
