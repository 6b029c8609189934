// Package pager fetches older records of a collection one cursor page at a
// time.
package pager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pantry/internal/metrics"
	"github.com/roach88/pantry/internal/record"
)

// Default page sizes. The first page is larger to cut round-trips when a
// view opens.
const (
	DefaultFirstPageSize = 50
	DefaultPageSize      = 20
)

// Source is the page-fetch port. Records come back newest first, strictly
// after cursor; a nil cursor starts from the newest record.
type Source[T record.Record] interface {
	Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[T], error)
}

// Fetcher accumulates pages from a Source.
//
// Thread-safety: all methods are safe for concurrent use. At most one fetch
// is in flight; LoadMore calls made meanwhile return without fetching.
type Fetcher[T record.Record] struct {
	src       Source[T]
	entity    string
	firstSize int
	pageSize  int
	overlap   int
	logger    *slog.Logger
	metrics   *metrics.Collectors

	mu          sync.Mutex
	items       []T
	cursor      *record.Cursor
	hasMore     bool
	loadingMore bool
	err         error
	pages       int
	generation  uint64 // bumped by Refresh
}

// Option configures a Fetcher.
type Option func(*options)

type options struct {
	entity    string
	firstSize int
	pageSize  int
	overlap   int
	logger    *slog.Logger
	metrics   *metrics.Collectors
}

// WithPageSizes sets the first and subsequent page sizes. Non-positive
// values keep the defaults.
func WithPageSizes(first, next int) Option {
	return func(o *options) {
		if first > 0 {
			o.firstSize = first
		}
		if next > 0 {
			o.pageSize = next
		}
	}
}

// WithOverlap widens the first page by n records that are already shown
// elsewhere, typically by a live window over the newest records, so that
// the first page still adds a full first page of older ones.
func WithOverlap(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.overlap = n
		}
	}
}

// WithEntity names the collection in logs and metrics.
func WithEntity(name string) Option {
	return func(o *options) { o.entity = name }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records page fetches on m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a fetcher positioned before the first page.
func New[T record.Record](src Source[T], opts ...Option) *Fetcher[T] {
	o := options{
		entity:    "record",
		firstSize: DefaultFirstPageSize,
		pageSize:  DefaultPageSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Fetcher[T]{
		src:       src,
		entity:    o.entity,
		firstSize: o.firstSize,
		pageSize:  o.pageSize,
		overlap:   o.overlap,
		logger:    o.logger.With("entity", o.entity),
		metrics:   o.metrics,
		hasMore:   true,
	}
}

// LoadMore fetches the next page. It returns without fetching while another
// fetch is in flight or once the source reported no more records. A failed
// fetch keeps the accumulated items, records the error and leaves HasMore
// unchanged so the caller may try again.
func (f *Fetcher[T]) LoadMore(ctx context.Context) {
	f.mu.Lock()
	if f.loadingMore || !f.hasMore {
		f.mu.Unlock()
		return
	}
	f.loadingMore = true
	gen := f.generation
	cursor := f.cursor
	limit := f.pageSize
	if f.pages == 0 {
		limit = f.firstSize + f.overlap
	}
	f.mu.Unlock()

	f.fetch(ctx, gen, cursor, limit)
}

// Refresh discards every page, the cursor and the error, then fetches the
// first page again. A fetch that started before Refresh is discarded when
// it completes.
func (f *Fetcher[T]) Refresh(ctx context.Context) {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.items = nil
	f.cursor = nil
	f.hasMore = true
	f.err = nil
	f.pages = 0
	f.loadingMore = true
	limit := f.firstSize + f.overlap
	f.mu.Unlock()

	f.fetch(ctx, gen, nil, limit)
}

func (f *Fetcher[T]) fetch(ctx context.Context, gen uint64, cursor *record.Cursor, limit int) {
	f.logger.Debug("fetching page", "limit", limit, "after", cursorID(cursor))
	start := time.Now()
	page, err := f.src.Page(ctx, cursor, limit)
	f.metrics.PageFetched(f.entity, time.Since(start), err)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		f.logger.Debug("discarding page fetched before refresh")
		return
	}
	f.loadingMore = false

	if err != nil {
		f.err = fmt.Errorf("load %s page: %w", f.entity, err)
		f.logger.Warn("page fetch failed", "error", err)
		return
	}

	f.err = nil
	f.items = append(f.items, page.Items...)
	if page.NextCursor != nil {
		next := *page.NextCursor
		f.cursor = &next
	}
	f.hasMore = page.HasMore
	f.pages++
	f.logger.Debug("page fetched", "count", len(page.Items), "has_more", page.HasMore)
}

// Items returns a copy of every accumulated record, in fetch order.
func (f *Fetcher[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T{}, f.items...)
}

// HasMore reports whether the source may hold older records.
func (f *Fetcher[T]) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// IsLoadingMore reports whether a fetch is in flight.
func (f *Fetcher[T]) IsLoadingMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadingMore
}

// Err returns the error of the latest fetch, or nil.
func (f *Fetcher[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Pages returns how many pages have been appended since the last Refresh.
func (f *Fetcher[T]) Pages() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages
}

// Cursor returns the position the next LoadMore will fetch after, or nil
// before the first page.
func (f *Fetcher[T]) Cursor() *record.Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor == nil {
		return nil
	}
	c := *f.cursor
	return &c
}

func cursorID(c *record.Cursor) string {
	if c == nil {
		return ""
	}
	return c.ID
}
