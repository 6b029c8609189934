package optimistic

import "github.com/roach88/pantry/internal/record"

// snapshot is the state of one record id as last confirmed by the
// repository: the record (or its absence), where it sat in the projection,
// and its auxiliary count. The record and its count are one unit: they are
// captured and restored together.
type snapshot[T record.Record] struct {
	rec      T
	present  bool
	index    int
	count    int
	hasCount bool
}

// pending tracks the mutations of one id that are still in flight.
type pending[T record.Record] struct {
	inflight int
	latest   uint64      // generation of the newest mutation
	baseGen  uint64      // generation whose result produced base, 0 when captured
	base     snapshot[T] // last confirmed state of the id
}

func (c *Controller[T, C, U]) snapshotLocked(id string) snapshot[T] {
	s := snapshot[T]{index: c.indexLocked(id)}
	if s.index >= 0 {
		s.rec = c.entries[s.index]
		s.present = true
	}
	s.count, s.hasCount = c.counts[id]
	return s
}

// restoreLocked puts id back into the state s describes. A missing count is
// restored; a count set in the meantime is kept.
func (c *Controller[T, C, U]) restoreLocked(id string, s snapshot[T]) {
	i := c.indexLocked(id)
	switch {
	case s.present && i >= 0:
		c.entries[i] = s.rec
	case s.present:
		c.insertAtLocked(max(s.index, 0), s.rec)
	case i >= 0:
		c.removeAtLocked(i)
	}
	if s.hasCount {
		if _, ok := c.counts[id]; !ok {
			c.counts[id] = s.count
		}
	}
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
