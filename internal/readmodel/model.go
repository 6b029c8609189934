package readmodel

import (
	"context"
	"log/slog"

	"github.com/roach88/pantry/internal/live"
	"github.com/roach88/pantry/internal/record"
)

// Window is the live half of a Model. Implemented by *live.Window.
type Window[T record.Record] interface {
	State() live.State[T]
	Limit() int
}

// Pager is the paginated half of a Model. Implemented by *pager.Fetcher.
type Pager[T record.Record] interface {
	LoadMore(ctx context.Context)
	Refresh(ctx context.Context)
	Items() []T
	HasMore() bool
	IsLoadingMore() bool
	Err() error
}

// Model is the read model a view renders: the live window first, then older
// pages, without duplicates.
//
// Model holds no state of its own beyond configuration; every accessor reads
// the window and the pager afresh, so it is safe for concurrent use when
// they are.
type Model[T record.Record] struct {
	window     Window[T]
	pager      Pager[T]
	windowSize int
	logger     *slog.Logger
}

// Option configures a Model.
type Option func(*options)

type options struct {
	windowSize int
	logger     *slog.Logger
}

// WithWindowSize sets how many records the window must hold before older
// pages are offered. Defaults to the window's limit.
func WithWindowSize(n int) Option {
	return func(o *options) { o.windowSize = n }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New composes window and pager.
func New[T record.Record](window Window[T], pager Pager[T], opts ...Option) *Model[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.windowSize <= 0 {
		o.windowSize = window.Limit()
	}
	return &Model[T]{
		window:     window,
		pager:      pager,
		windowSize: o.windowSize,
		logger:     o.logger,
	}
}

// Items returns the merged view.
func (m *Model[T]) Items() []T {
	return Merge(m.window.State().Data, m.pager.Items())
}

// HasMore is false while the window holds fewer than the window size
// records, whatever the pager reports; after that it is the pager's flag.
func (m *Model[T]) HasMore() bool {
	if len(m.window.State().Data) < m.windowSize {
		return false
	}
	return m.pager.HasMore()
}

// LoadMore fetches the next older page. It does nothing until the window's
// initial load has completed.
func (m *Model[T]) LoadMore(ctx context.Context) {
	if !m.window.State().Loaded {
		m.logger.Debug("load more skipped: live window not loaded")
		return
	}
	m.pager.LoadMore(ctx)
}

// Refresh discards older pages and fetches the first one again.
func (m *Model[T]) Refresh(ctx context.Context) {
	m.pager.Refresh(ctx)
}

// IsLoading reports whether the window's initial load is still pending.
func (m *Model[T]) IsLoading() bool {
	return !m.window.State().Loaded
}

// IsLoadingMore reports whether an older page is being fetched.
func (m *Model[T]) IsLoadingMore() bool {
	return m.pager.IsLoadingMore()
}

// Err returns the window's error if it has one, otherwise the pager's.
func (m *Model[T]) Err() error {
	if err := m.window.State().Err; err != nil {
		return err
	}
	return m.pager.Err()
}

// WindowSize returns the saturation threshold used by HasMore.
func (m *Model[T]) WindowSize() int {
	return m.windowSize
}
