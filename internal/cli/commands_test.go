package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/record"
)

func TestLists_Lifecycle(t *testing.T) {
	env := newCLIEnv(t)

	var created record.List
	decodeData(t, env.mustRun("--format", "json", "lists", "add", "Weekly", "--color", "#00ff00"), &created)
	require.NotEmpty(t, created.ID)
	assert.False(t, record.IsTemporaryID(created.ID))
	assert.Equal(t, "Weekly", created.Name)
	assert.Equal(t, "#00ff00", created.Color)

	out := env.mustRun("lists", "ls")
	assert.Contains(t, out, created.ID)
	assert.Contains(t, out, "Weekly")
	assert.Contains(t, out, "0 section(s)")

	out = env.mustRun("sections", "add", "Produce", "--list", created.ID)
	assert.Contains(t, out, "created section")

	out = env.mustRun("lists", "ls")
	assert.Contains(t, out, "1 section(s)")

	out = env.mustRun("lists", "rename", created.ID, "Monthly")
	assert.Contains(t, out, `renamed list `+created.ID+` to "Monthly"`)

	out = env.mustRun("lists", "rm", created.ID)
	assert.Contains(t, out, "deleted list "+created.ID)

	var views []listView
	decodeData(t, env.mustRun("--format", "json", "lists", "ls"), &views)
	assert.Empty(t, views)

	out = env.mustRun("sections", "ls", "--list", created.ID)
	assert.Empty(t, out)
}

func TestLists_Failures(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("lists", "rm", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: List not found")

	out, _, err = env.run("lists", "rename", "missing", "X")
	require.Error(t, err)
	assert.Contains(t, out, "List not found")

	out, _, err = env.run("--format", "json", "lists", "add", "Bad", "--color", "green")
	require.Error(t, err)
	assert.Contains(t, out, `"status":"error"`)
	assert.Contains(t, out, "Invalid list")
}

func TestSections_RequireKnownList(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("sections", "add", "Dairy", "--list", "no-such-list")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Failed to create section")
}

func TestSections_ListOrder(t *testing.T) {
	env := newCLIEnv(t)

	var l record.List
	decodeData(t, env.mustRun("--format", "json", "lists", "add", "Weekly"), &l)
	env.mustRun("sections", "add", "Produce", "--list", l.ID, "--position", "1")
	env.mustRun("sections", "add", "Dairy", "--list", l.ID, "--position", "2")

	var sections []record.Section
	decodeData(t, env.mustRun("--format", "json", "sections", "ls", "--list", l.ID), &sections)
	require.Len(t, sections, 2)
	assert.Equal(t, "Dairy", sections[0].Name)
	assert.Equal(t, "Produce", sections[1].Name)
	assert.Equal(t, 2, sections[0].Position)
}

func TestPurchases_AddAndList(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("purchases", "add", "eggs", "--list", "l1", "--qty", "12", "--price", "349")
	assert.Contains(t, out, "recorded purchase")
	env.mustRun("purchases", "add", "milk", "--list", "l2")

	out = env.mustRun("purchases", "ls")
	assert.Contains(t, out, "eggs")
	assert.Contains(t, out, "x12  3.49")
	assert.Contains(t, out, "milk")

	var entries []record.PurchaseEntry
	decodeData(t, env.mustRun("--format", "json", "purchases", "ls", "--list", "l1"), &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "eggs", entries[0].ItemName)
	assert.Equal(t, int64(349), entries[0].PriceCents)

	out, _, err := env.run("purchases", "add", "nothing", "--list", "l1", "--qty", "0")
	require.Error(t, err)
	assert.Contains(t, out, "Invalid purchase")
}

func TestSearches_AddAndList(t *testing.T) {
	env := newCLIEnv(t)

	var e record.SearchEntry
	decodeData(t, env.mustRun("--format", "json", "searches", "add", "  Oat   MILK "), &e)
	assert.Equal(t, "oat milk", e.Normalized)
	env.mustRun("searches", "add", "bread")

	out := env.mustRun("searches", "ls")
	assert.Contains(t, out, "Oat   MILK")
	assert.Contains(t, out, "bread")

	var matched []record.SearchEntry
	decodeData(t, env.mustRun("--format", "json", "searches", "ls", "--prefix", "OAT"), &matched)
	require.Len(t, matched, 1)
	assert.Equal(t, e.ID, matched[0].ID)
}
