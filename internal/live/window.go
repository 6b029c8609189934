// Package live keeps the most recent records of one collection current
// without polling.
//
// A Window subscribes to a topic on a Notifier. Every publish on that topic
// re-runs the window's query synchronously on the publisher's goroutine and
// hands the new State to OnChange listeners. Before the first evaluation
// completes State().Loaded is false; every later emission, including an
// empty one, is loaded.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pantry/internal/record"
)

// Notifier is the change-notification port. Implemented by *notify.Hub.
type Notifier interface {
	Subscribe(topic string, fn func()) (unsubscribe func())
}

// Query describes what a window shows: the newest Limit records returned by
// Fetch, re-evaluated whenever Topic is published.
type Query[T record.Record] struct {
	Topic string
	Limit int
	Fetch func(ctx context.Context, limit int) ([]T, error)
}

// PageSource is satisfied by every store repository and by
// testutil.Repository.
type PageSource[T record.Record] interface {
	Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[T], error)
}

// PageQuery builds a Query that reads the first page of src.
func PageQuery[T record.Record](topic string, limit int, src PageSource[T]) Query[T] {
	return Query[T]{
		Topic: topic,
		Limit: limit,
		Fetch: func(ctx context.Context, limit int) ([]T, error) {
			p, err := src.Page(ctx, nil, limit)
			if err != nil {
				return nil, err
			}
			return p.Items, nil
		},
	}
}

// State is one emission of a Window.
type State[T record.Record] struct {
	// Data is nil until the first successful evaluation.
	Data []T
	// Loaded is false until the first successful evaluation.
	Loaded bool
	// Err is the error of the latest evaluation, if it failed. Data keeps
	// the last successful result.
	Err error
	// UpdatedAt is when Data was last replaced.
	UpdatedAt time.Time
}

// ErrClosed is returned by Start and Refresh after Close.
var ErrClosed = errors.New("live window closed")

// Window is a push-updated view of the newest records of a collection.
//
// Thread-safety: all methods are safe for concurrent use. Evaluations may
// overlap when several goroutines publish; a result older than one already
// applied is discarded.
type Window[T record.Record] struct {
	notifier Notifier
	query    Query[T]
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	state     State[T]
	ctx       context.Context
	unsub     func()
	started   bool
	closed    bool
	seq       uint64 // last evaluation started
	applied   uint64 // last evaluation whose result was kept
	listeners map[uint64]func(State[T])
	nextLis   uint64
}

// Option configures a Window.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock overrides the time source for State.UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an unstarted window.
func New[T record.Record](n Notifier, q Query[T], opts ...Option) *Window[T] {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Window[T]{
		notifier:  n,
		query:     q,
		now:       o.now,
		logger:    o.logger.With("topic", q.Topic),
		listeners: make(map[uint64]func(State[T])),
	}
}

// Start subscribes to the query's topic and runs the initial evaluation.
// Evaluations triggered by later publishes use ctx; once ctx is done they
// are skipped. The returned error is the initial evaluation's, which is
// also reported in State().Err.
func (w *Window[T]) Start(ctx context.Context) error {
	if w.query.Limit <= 0 {
		return fmt.Errorf("start live window %q: limit must be positive, got %d", w.query.Topic, w.query.Limit)
	}
	if w.query.Fetch == nil {
		return fmt.Errorf("start live window %q: no fetch function", w.query.Topic)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("start live window %q: already started", w.query.Topic)
	}
	w.started = true
	w.ctx = ctx
	w.mu.Unlock()

	// Subscribe before the first read so no write between the two is lost.
	unsub := w.notifier.Subscribe(w.query.Topic, w.onPublish)
	w.mu.Lock()
	w.unsub = unsub
	w.mu.Unlock()

	return w.evaluate(ctx)
}

// Refresh re-runs the query immediately.
func (w *Window[T]) Refresh(ctx context.Context) error {
	return w.evaluate(ctx)
}

// State returns the current emission. Data is a copy.
func (w *Window[T]) State() State[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyStateLocked()
}

// Limit returns the configured window size.
func (w *Window[T]) Limit() int {
	return w.query.Limit
}

// OnChange registers fn to receive every new State. fn runs on the
// goroutine that triggered the evaluation, after the window's lock is
// released. The returned function removes fn.
func (w *Window[T]) OnChange(fn func(State[T])) func() {
	w.mu.Lock()
	w.nextLis++
	id := w.nextLis
	w.listeners[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// Close unsubscribes from the notifier and drops all listeners. Results of
// evaluations still in flight are discarded. Close is idempotent.
func (w *Window[T]) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsub := w.unsub
	w.unsub = nil
	w.listeners = make(map[uint64]func(State[T]))
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (w *Window[T]) onPublish() {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	if err := w.evaluate(ctx); err != nil && !errors.Is(err, ErrClosed) {
		w.logger.Warn("live window re-evaluation failed", "error", err)
	}
}

func (w *Window[T]) evaluate(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	data, err := w.query.Fetch(ctx, w.query.Limit)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if seq < w.applied {
		w.mu.Unlock()
		w.logger.Debug("discarding superseded evaluation", "seq", seq)
		return nil
	}
	w.applied = seq

	if err != nil {
		w.state.Err = fmt.Errorf("evaluate live window %q: %w", w.query.Topic, err)
	} else {
		if data == nil {
			data = []T{}
		}
		if len(data) > w.query.Limit {
			data = data[:w.query.Limit]
		}
		w.state = State[T]{
			Data:      append([]T{}, data...),
			Loaded:    true,
			UpdatedAt: w.now(),
		}
	}
	st := w.copyStateLocked()
	listeners := make([]func(State[T]), 0, len(w.listeners))
	for _, fn := range w.listeners {
		listeners = append(listeners, fn)
	}
	w.mu.Unlock()

	w.logger.Debug("live window evaluated", "count", len(st.Data), "error", st.Err)
	for _, fn := range listeners {
		fn(st)
	}
	return st.Err
}

func (w *Window[T]) copyStateLocked() State[T] {
	st := w.state
	if st.Data != nil {
		st.Data = append([]T{}, st.Data...)
	}
	return st
}
