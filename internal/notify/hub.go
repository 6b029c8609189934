// Package notify implements the change-notification port used by live
// windows.
//
// A Hub is a registry of (topic, callback) pairs. The storage write path
// calls Publish after every committed write; Publish invokes every callback
// registered for the topic synchronously, in registration order, on the
// publisher's goroutine. Callbacks must not block on the publisher.
package notify

import (
	"sort"
	"sync"
)

// Topics used by the SQLite store, one per entity table.
const (
	TopicLists     = "lists"
	TopicSections  = "sections"
	TopicPurchases = "purchases"
	TopicSearches  = "searches"
)

type subscription struct {
	id uint64
	fn func()
}

// Hub fans out change notifications by topic.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run
// outside the hub's lock so they may subscribe, unsubscribe or publish.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]subscription
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]subscription)}
}

// Subscribe registers fn for topic and returns a function that removes it.
// The returned function is idempotent.
func (h *Hub) Subscribe(topic string, fn func()) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[topic] = append(h.subs[topic], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(topic, id) })
	}
}

func (h *Hub) remove(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[topic]
	for i, s := range subs {
		if s.id == id {
			// Copy so a Publish iterating the old slice is unaffected.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(h.subs, topic)
			} else {
				h.subs[topic] = next
			}
			return
		}
	}
}

// Publish invokes every callback registered for topic.
func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	subs := h.subs[topic]
	h.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Topics returns the topics that currently have subscribers, sorted.
func (h *Hub) Topics() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	topics := make([]string, 0, len(h.subs))
	for t := range h.subs {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Subscribers returns the number of callbacks registered for topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
