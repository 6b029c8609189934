package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/testutil"
)

// createTestStore opens a store in a temp dir with deterministic ids and a
// clock that advances one second per write.
func createTestStore(t *testing.T) (*Store, *notify.Hub) {
	t.Helper()
	return createTestStoreWithClock(t, testutil.NewSteppingClock(time.Second))
}

func createTestStoreWithClock(t *testing.T, clock *testutil.ManualClock) (*Store, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithPublisher(hub),
		WithIDGenerator(testutil.NewSequenceGenerator("rec")),
		WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, hub
}
