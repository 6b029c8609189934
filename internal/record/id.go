package record

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TempPrefix marks identifiers assigned before the store confirms a create.
const TempPrefix = "temp-"

// IDGenerator produces identifiers.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// TempIDGenerator wraps another generator and prefixes every id with TempPrefix.
type TempIDGenerator struct {
	Base IDGenerator
}

// Generate returns a temporary identifier.
func (g TempIDGenerator) Generate() string {
	base := g.Base
	if base == nil {
		base = UUIDv7Generator{}
	}
	return TempPrefix + base.Generate()
}

// IsTemporaryID reports whether id was produced by TempIDGenerator.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

// FixedGenerator returns predetermined identifiers in order.
//
// Example:
//
//	gen := NewFixedGenerator("list-1", "list-2")
//	gen.Generate() // "list-1"
//	gen.Generate() // "list-2"
//	gen.Generate() // panic: all ids exhausted
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
// Panics when exhausted so a misconfigured test fails fast.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
