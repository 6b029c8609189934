package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/config"
	"github.com/roach88/pantry/internal/record"
	"github.com/roach88/pantry/internal/store"
	"github.com/roach88/pantry/internal/testutil"
)

func openTestSession(t *testing.T, mutate ...func(*config.Config)) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "pantry.db")
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := Open(Options{
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		IDs:     testutil.NewSequenceGenerator("rec"),
		TempIDs: record.TempIDGenerator{Base: testutil.NewSequenceGenerator("tmp")},
		Clock:   testutil.NewSteppingClock(time.Second).Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesDefaults(t *testing.T) {
	s, err := Open(Options{
		Config: config.Config{DB: config.DBConfig{Path: filepath.Join(t.TempDir(), "x.db")}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, config.Default().Window.Size, s.Config().Window.Size)
	assert.Equal(t, config.Default().Pages.First, s.Config().Pages.First)
	assert.Equal(t, config.Default().Pages.Next, s.Config().Pages.Next)
}

func TestSessions_AreIndependent(t *testing.T) {
	a := openTestSession(t)
	b := openTestSession(t)
	ctx := context.Background()

	_, ok := a.Lists.Create(ctx, record.ListInput{Name: "Groceries"})
	require.True(t, ok)

	require.NoError(t, b.LoadAll(ctx))
	assert.Len(t, a.Lists.Entries(), 1)
	assert.Empty(t, b.Lists.Entries())
}

func TestLoadAll_LoadsEveryCollection(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	list, err := s.Store.Lists().Create(ctx, record.ListInput{Name: "Groceries"})
	require.NoError(t, err)
	_, err = s.Store.Sections().Create(ctx, record.SectionInput{ListID: list.ID, Name: "Dairy"})
	require.NoError(t, err)
	_, err = s.Store.Sections().Create(ctx, record.SectionInput{ListID: list.ID, Name: "Produce"})
	require.NoError(t, err)
	_, err = s.Store.Purchases().Create(ctx, record.PurchaseInput{ListID: list.ID, ItemName: "milk", Quantity: 1})
	require.NoError(t, err)
	_, err = s.Store.Searches().Create(ctx, record.SearchInput{Query: "Oat Milk"})
	require.NoError(t, err)

	require.NoError(t, s.LoadAll(ctx))

	assert.Len(t, s.Lists.Entries(), 1)
	assert.Len(t, s.Sections.Entries(), 2)
	assert.Len(t, s.Purchases.Entries(), 1)
	assert.Len(t, s.Searches.Entries(), 1)
	assert.Equal(t, 2, s.Lists.Count(list.ID))
	for _, initialized := range []bool{s.Lists.Initialized(), s.Sections.Initialized(), s.Purchases.Initialized(), s.Searches.Initialized()} {
		assert.True(t, initialized)
	}
}

func TestAddSection_BumpsCount(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	list, ok := s.Lists.Create(ctx, record.ListInput{Name: "Groceries"})
	require.True(t, ok)

	_, ok = s.AddSection(ctx, record.SectionInput{ListID: list.ID, Name: "Dairy"})
	require.True(t, ok)
	assert.Equal(t, 1, s.Lists.Count(list.ID))

	_, ok = s.AddSection(ctx, record.SectionInput{ListID: "missing", Name: "Orphan"})
	assert.False(t, ok, "foreign key rejects a section of an unknown list")
	assert.Equal(t, "Failed to create section", s.Sections.Error())
	assert.Equal(t, 0, s.Lists.Count("missing"))
}

func TestDeleteList_DropsSections(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	keep, _ := s.Lists.Create(ctx, record.ListInput{Name: "Keep"})
	drop, _ := s.Lists.Create(ctx, record.ListInput{Name: "Drop"})
	_, ok := s.AddSection(ctx, record.SectionInput{ListID: keep.ID, Name: "A"})
	require.True(t, ok)
	_, ok = s.AddSection(ctx, record.SectionInput{ListID: drop.ID, Name: "B"})
	require.True(t, ok)

	require.True(t, s.DeleteList(ctx, drop.ID))

	sections := s.Sections.Entries()
	require.Len(t, sections, 1)
	assert.Equal(t, keep.ID, sections[0].ListID)
	assert.Equal(t, 0, s.Lists.Count(drop.ID))
	assert.Equal(t, 1, s.Lists.Count(keep.ID))
}

func TestDeleteList_UnknownID(t *testing.T) {
	s := openTestSession(t)

	assert.False(t, s.DeleteList(context.Background(), "ghost"))
	assert.Equal(t, "List not found", s.Lists.Error())
}

func TestPurchaseHistory_MergesWindowAndPages(t *testing.T) {
	s := openTestSession(t, func(c *config.Config) {
		c.Window.Size = 5
		c.Pages.First = 4
		c.Pages.Next = 3
	})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, ok := s.Purchases.Create(ctx, record.PurchaseInput{ListID: "l", ItemName: fmt.Sprintf("item %d", i), Quantity: 1})
		require.True(t, ok)
	}

	h, err := s.PurchaseHistory(ctx)
	require.NoError(t, err)
	assert.False(t, h.IsLoading())
	assert.Len(t, h.Items(), 5)
	assert.True(t, h.HasMore())

	h.LoadMore(ctx)
	assert.Len(t, h.Items(), 9, "first page adds four records beyond the window")

	for h.HasMore() {
		h.LoadMore(ctx)
		require.NoError(t, h.Err())
	}
	items := h.Items()
	require.Len(t, items, 12)
	assert.Equal(t, "item 11", items[0].ItemName)
	assert.Equal(t, "item 0", items[11].ItemName)

	// Controller writes go through the store and reach the window.
	_, ok := s.Purchases.Create(ctx, record.PurchaseInput{ListID: "l", ItemName: "bread", Quantity: 1})
	require.True(t, ok)
	items = h.Items()
	require.Len(t, items, 13)
	assert.Equal(t, "bread", items[0].ItemName)
}

func TestPurchaseHistory_FirstPageGrowsDefaultWindow(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	for i := 0; i < 80; i++ {
		_, ok := s.Purchases.Create(ctx, record.PurchaseInput{ListID: "l", ItemName: fmt.Sprintf("item %d", i), Quantity: 1})
		require.True(t, ok)
	}

	h, err := s.PurchaseHistory(ctx)
	require.NoError(t, err)
	require.Len(t, h.Items(), 50)
	require.True(t, h.HasMore())

	h.LoadMore(ctx)
	require.NoError(t, h.Err())
	items := h.Items()
	assert.Len(t, items, 80)
	assert.Equal(t, "item 0", items[79].ItemName)
	assert.False(t, h.HasMore())
}

func TestSearchHistory_BelowWindowSize(t *testing.T) {
	s := openTestSession(t)
	ctx := context.Background()

	_, ok := s.Searches.Create(ctx, record.SearchInput{Query: "eggs"})
	require.True(t, ok)

	h, err := s.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, h.Items(), 1)
	assert.False(t, h.HasMore())
}

func TestWatch_PublishesExternalWrites(t *testing.T) {
	s := openTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Empty(t, h.Items())

	watchDone := make(chan error, 1)
	go func() { watchDone <- s.Watch(ctx) }()

	other, err := store.Open(s.Config().DB.Path)
	require.NoError(t, err)
	defer other.Close()

	n := 0
	require.Eventually(t, func() bool {
		n++
		if _, err := other.Lists().Create(context.Background(), record.ListInput{Name: fmt.Sprintf("external %d", n)}); err != nil {
			return false
		}
		return len(h.Items()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-watchDone)
}

func TestClose_ClearsControllers(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "pantry.db")
	s, err := Open(Options{Config: cfg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	ctx := context.Background()
	_, ok := s.Lists.Create(ctx, record.ListInput{Name: "A"})
	require.True(t, ok)
	_, err = s.ListHistory(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Empty(t, s.Lists.Entries())
	assert.Equal(t, 0, s.Hub.Subscribers("lists"))
}
