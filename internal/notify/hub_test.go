package notify

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishInvokesTopicSubscribersInOrder(t *testing.T) {
	h := NewHub()
	var calls []string

	h.Subscribe(TopicLists, func() { calls = append(calls, "a") })
	h.Subscribe(TopicLists, func() { calls = append(calls, "b") })
	h.Subscribe(TopicSections, func() { calls = append(calls, "other") })

	h.Publish(TopicLists)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub()
	var n int
	unsub := h.Subscribe(TopicLists, func() { n++ })
	keep := h.Subscribe(TopicLists, func() {})
	defer keep()

	unsub()
	unsub()
	h.Publish(TopicLists)

	assert.Equal(t, 0, n)
	assert.Equal(t, 1, h.Subscribers(TopicLists))
}

func TestHub_TopicsDropsEmpty(t *testing.T) {
	h := NewHub()
	unsub := h.Subscribe(TopicSearches, func() {})
	h.Subscribe(TopicLists, func() {})
	assert.Equal(t, []string{TopicLists, TopicSearches}, h.Topics())

	unsub()
	assert.Equal(t, []string{TopicLists}, h.Topics())
}

func TestHub_CallbackMayUnsubscribeDuringPublish(t *testing.T) {
	h := NewHub()
	var n int
	var unsub func()
	unsub = h.Subscribe(TopicLists, func() {
		n++
		unsub()
	})

	h.Publish(TopicLists)
	h.Publish(TopicLists)
	assert.Equal(t, 1, n)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() { h.Publish("nothing") })
}

func TestFileWatcher_PublishesOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pantry.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

	h := NewHub()
	var hits atomic.Int32
	h.Subscribe(TopicLists, func() { hits.Add(1) })

	w, err := NewFileWatcher(h, dbPath, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unrelated files in the same directory are ignored.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("y"), 0o600)
		_ = os.WriteFile(dbPath+"-wal", []byte("wal"), 0o600)
		return hits.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestFileWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pantry.db")
	w, err := NewFileWatcher(NewHub(), dbPath, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.True(t, w.relevant(dbPath))
	assert.True(t, w.relevant(dbPath+"-wal"))
	assert.True(t, w.relevant(dbPath+"-journal"))
	assert.False(t, w.relevant(dbPath+"-shm"))
	assert.False(t, w.relevant(filepath.Join(dir, "other.db")))
}
