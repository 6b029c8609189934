// Package app wires the store, the notification hub, the mutation
// controllers and the read models into one Session.
//
// A Session is the composition root: every collaborator is created here and
// passed down explicitly, so two sessions (for example two tests) share
// nothing.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/pantry/internal/config"
	"github.com/roach88/pantry/internal/live"
	"github.com/roach88/pantry/internal/metrics"
	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/optimistic"
	"github.com/roach88/pantry/internal/pager"
	"github.com/roach88/pantry/internal/readmodel"
	"github.com/roach88/pantry/internal/record"
	"github.com/roach88/pantry/internal/store"
)

// Options configures Open.
type Options struct {
	// Config supplies the database path and the window and page sizes.
	Config config.Config
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Registerer receives the metrics collectors. Defaults to a fresh
	// registry private to the session.
	Registerer prometheus.Registerer
	// IDs generates durable ids (default UUIDv7).
	IDs record.IDGenerator
	// TempIDs generates temporary ids (default "temp-" + UUIDv7).
	TempIDs record.IDGenerator
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Session owns one database and everything built on it.
type Session struct {
	Store   *store.Store
	Hub     *notify.Hub
	Metrics *metrics.Collectors

	Lists     *optimistic.Lists
	Sections  *optimistic.Sections
	Purchases *optimistic.Purchases
	Searches  *optimistic.Searches

	cfg    config.Config
	logger *slog.Logger

	mu      sync.Mutex
	windows []func()
}

// Open opens the database named by opts.Config and builds a Session on it.
func Open(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Config = mergeDefaults(opts.Config)

	m, err := metrics.New(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	hub := notify.NewHub()
	storeOpts := []store.Option{store.WithPublisher(hub), store.WithClock(opts.Clock)}
	if opts.IDs != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
	}
	st, err := store.Open(opts.Config.DB.Path, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	validator := record.NewValidator()
	ctlOpts := []optimistic.Option{
		optimistic.WithClock(opts.Clock),
		optimistic.WithValidator(validator),
		optimistic.WithLogger(opts.Logger),
		optimistic.WithMetrics(m),
	}
	if opts.TempIDs != nil {
		ctlOpts = append(ctlOpts, optimistic.WithTempIDs(opts.TempIDs))
	}

	s := &Session{
		Store:     st,
		Hub:       hub,
		Metrics:   m,
		Lists:     optimistic.New(st.Lists(), optimistic.ListShape(), ctlOpts...),
		Sections:  optimistic.New(st.Sections(), optimistic.SectionShape(), ctlOpts...),
		Purchases: optimistic.New(st.Purchases(), optimistic.PurchaseShape(), ctlOpts...),
		Searches:  optimistic.New(st.Searches(), optimistic.SearchShape(), ctlOpts...),
		cfg:       opts.Config,
		logger:    opts.Logger,
	}
	s.logger.Debug("session opened", "db", opts.Config.DB.Path)
	return s, nil
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() config.Config {
	return s.cfg
}

// LoadAll loads every controller concurrently and refreshes the per-list
// section counts. It returns the first failure; controllers that loaded
// keep their data.
func (s *Session) LoadAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loaded("lists", s.Lists.LoadAll(gctx), s.Lists.Error) })
	g.Go(func() error { return loaded("sections", s.Sections.LoadAll(gctx), s.Sections.Error) })
	g.Go(func() error { return loaded("purchases", s.Purchases.LoadAll(gctx), s.Purchases.Error) })
	g.Go(func() error { return loaded("searches", s.Searches.LoadAll(gctx), s.Searches.Error) })
	g.Go(func() error { return s.RefreshCounts(gctx) })
	return g.Wait()
}

func loaded(what string, ok bool, errMsg func() string) error {
	if ok {
		return nil
	}
	if msg := errMsg(); msg != "" {
		return fmt.Errorf("load %s: %s", what, msg)
	}
	return nil
}

// RefreshCounts replaces the lists controller's counts with the number of
// sections in each list.
func (s *Session) RefreshCounts(ctx context.Context) error {
	counts, err := s.Store.Lists().SectionCounts(ctx)
	if err != nil {
		return err
	}
	s.Lists.SetCounts(counts)
	return nil
}

// AddSection creates a section and bumps its list's section count.
func (s *Session) AddSection(ctx context.Context, in record.SectionInput) (record.Section, bool) {
	sec, ok := s.Sections.Create(ctx, in)
	if ok {
		s.Lists.SetCount(in.ListID, s.Lists.Count(in.ListID)+1)
	}
	return sec, ok
}

// DeleteList deletes a list. The database cascades the delete to its
// sections, so on success the sections controller drops them too.
func (s *Session) DeleteList(ctx context.Context, id string) bool {
	if !s.Lists.Delete(ctx, id) {
		return false
	}
	s.Sections.LoadByParent(ctx, id)
	return true
}

// PurchaseHistory returns a started read model over purchase entries. The
// model's live window is closed with the session.
func (s *Session) PurchaseHistory(ctx context.Context) (*readmodel.Model[record.PurchaseEntry], error) {
	return history[record.PurchaseEntry](ctx, s, notify.TopicPurchases, "purchase", s.Store.Purchases())
}

// SearchHistory returns a started read model over search entries.
func (s *Session) SearchHistory(ctx context.Context) (*readmodel.Model[record.SearchEntry], error) {
	return history[record.SearchEntry](ctx, s, notify.TopicSearches, "search", s.Store.Searches())
}

// ListHistory returns a started read model over lists.
func (s *Session) ListHistory(ctx context.Context) (*readmodel.Model[record.List], error) {
	return history[record.List](ctx, s, notify.TopicLists, "list", s.Store.Lists())
}

func history[T record.Record](ctx context.Context, s *Session, topic, entity string, src pager.Source[T]) (*readmodel.Model[T], error) {
	w := live.New(s.Hub, live.PageQuery[T](topic, s.cfg.Window.Size, src), live.WithLogger(s.logger))
	f := pager.New(src,
		pager.WithEntity(entity),
		pager.WithPageSizes(s.cfg.Pages.First, s.cfg.Pages.Next),
		pager.WithOverlap(s.cfg.Window.Size),
		pager.WithLogger(s.logger),
		pager.WithMetrics(s.Metrics),
	)
	if err := w.Start(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("start %s history: %w", entity, err)
	}

	s.mu.Lock()
	s.windows = append(s.windows, w.Close)
	s.mu.Unlock()

	return readmodel.New[T](w, f, readmodel.WithLogger(s.logger)), nil
}

// Watch publishes changes made to the database by other processes until ctx
// is done.
func (s *Session) Watch(ctx context.Context) error {
	w, err := notify.NewFileWatcher(s.Hub, s.cfg.DB.Path, s.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Close closes every live window, clears the controllers and closes the
// database.
func (s *Session) Close() error {
	s.mu.Lock()
	windows := s.windows
	s.windows = nil
	s.mu.Unlock()

	for _, closeWindow := range windows {
		closeWindow()
	}
	s.Lists.Clear()
	s.Sections.Clear()
	s.Purchases.Clear()
	s.Searches.Clear()
	return s.Store.Close()
}

func mergeDefaults(cfg config.Config) config.Config {
	def := config.Default()
	if cfg.DB.Path == "" {
		cfg.DB.Path = def.DB.Path
	}
	if cfg.Window.Size <= 0 {
		cfg.Window.Size = def.Window.Size
	}
	if cfg.Pages.First <= 0 {
		cfg.Pages.First = def.Pages.First
	}
	if cfg.Pages.Next <= 0 {
		cfg.Pages.Next = def.Pages.Next
	}
	return cfg
}
