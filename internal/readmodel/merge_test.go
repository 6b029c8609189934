package readmodel

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/record"
	"github.com/roach88/pantry/internal/testutil"
)

func entry(id string, minutesAgo int) record.PurchaseEntry {
	return record.PurchaseEntry{
		ID:        id,
		ItemName:  id,
		Quantity:  1,
		CreatedAt: testutil.Epoch.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func ids(items []record.PurchaseEntry) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMerge_AppendsOnlyNewOlderRecords(t *testing.T) {
	var window, older []record.PurchaseEntry
	var want []string
	for i := 1; i <= 50; i++ {
		window = append(window, entry(fmt.Sprintf("input-%d", i), i))
		want = append(want, fmt.Sprintf("input-%d", i))
	}
	for i := 1; i <= 5; i++ {
		older = append(older, entry(fmt.Sprintf("input-%d", i), i))
	}
	for i := 100; i <= 109; i++ {
		older = append(older, entry(fmt.Sprintf("input-%d", i), i))
		want = append(want, fmt.Sprintf("input-%d", i))
	}

	merged := Merge(window, older)

	assert.Len(t, merged, 60)
	assert.Equal(t, want, ids(merged))
}

func TestMerge_LiveVersionWins(t *testing.T) {
	liveRec := entry("a", 1)
	liveRec.Quantity = 5
	olderRec := entry("a", 1)
	olderRec.Quantity = 1

	merged := Merge([]record.PurchaseEntry{liveRec}, []record.PurchaseEntry{olderRec, entry("b", 2)})

	require.Len(t, merged, 2)
	assert.Equal(t, 5, merged[0].Quantity)
	assert.Equal(t, "b", merged[1].ID)
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Empty(t, Merge[record.PurchaseEntry](nil, nil))
	assert.NotNil(t, Merge[record.PurchaseEntry](nil, nil))
	assert.Equal(t, []string{"x"}, ids(Merge(nil, []record.PurchaseEntry{entry("x", 1)})))
	assert.Equal(t, []string{"x"}, ids(Merge([]record.PurchaseEntry{entry("x", 1)}, nil)))
}

func TestMerge_DuplicatesWithinOlderCollapse(t *testing.T) {
	older := []record.PurchaseEntry{entry("b", 2), entry("c", 3), entry("b", 2)}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Merge([]record.PurchaseEntry{entry("a", 1)}, older)))
}

// TestMerge_Properties checks uniqueness, ordering and live precedence over
// overlapping windows drawn from one newest-first universe.
func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(60)
		universe := make([]record.PurchaseEntry, n)
		for i := range universe {
			// Coarse timestamps force created_at ties.
			universe[i] = entry(fmt.Sprintf("p-%03d", rng.Intn(1000)*1000+i), rng.Intn(10))
		}
		record.SortNewestFirst(universe)

		k := rng.Intn(n + 1)
		window := append([]record.PurchaseEntry{}, universe[:k]...)
		for i := range window {
			window[i].Quantity = 99
		}
		start := 0
		if k > 0 {
			start = rng.Intn(k + 1)
		}
		older := universe[start:]

		merged := Merge(window, older)

		seen := map[string]bool{}
		for _, r := range merged {
			require.False(t, seen[r.ID], "round %d: duplicate %s", round, r.ID)
			seen[r.ID] = true
		}
		assert.Len(t, merged, n, "round %d", round)
		for i := 1; i < len(merged); i++ {
			assert.False(t, record.Less(merged[i], merged[i-1]), "round %d: out of order at %d", round, i)
		}
		for i := 0; i < k; i++ {
			assert.Equal(t, 99, merged[i].Quantity, "round %d: live version must win", round)
		}
	}
}
