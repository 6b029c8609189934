package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces "<prefix>-1", "<prefix>-2", ...
//
// This enables deterministic ids in tests and golden traces: the same
// scenario always assigns the same durable ids.
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator for prefix. An empty prefix
// defaults to "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
