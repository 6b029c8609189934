package store

import (
	"context"
	"fmt"

	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/querysql"
	"github.com/roach88/pantry/internal/record"
)

// SearchRepo is the durable repository for search history.
type SearchRepo struct {
	s *Store
}

func (r *SearchRepo) table() table[record.SearchEntry] {
	return table[record.SearchEntry]{
		s:       r.s,
		name:    notify.TopicSearches,
		entity:  "search",
		columns: []string{"id", "query", "normalized", "created_at", "updated_at"},
		scan:    scanSearch,
	}
}

// Create records a search query together with its normalized key.
func (r *SearchRepo) Create(ctx context.Context, in record.SearchInput) (record.SearchEntry, error) {
	e := record.BuildSearch(r.s.ids.Generate(), in, r.s.now())
	_, err := r.s.execWrite(ctx, `
		INSERT INTO searches (id, query, normalized, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Query, e.Normalized, toNanos(e.CreatedAt), toNanos(e.UpdatedAt))
	if err != nil {
		return record.SearchEntry{}, fmt.Errorf("create search: %w", err)
	}
	r.s.publish(notify.TopicSearches)
	return e, nil
}

// Update replaces the query text of the entry with id.
func (r *SearchRepo) Update(ctx context.Context, id string, patch record.SearchPatch) (record.SearchEntry, error) {
	var normalized *string
	if patch.Query != nil {
		n := record.NormalizeQuery(*patch.Query)
		normalized = &n
	}
	n, err := r.s.execWrite(ctx, `
		UPDATE searches
		SET query = COALESCE(?, query), normalized = COALESCE(?, normalized), updated_at = ?
		WHERE id = ?
	`, patch.Query, normalized, toNanos(r.s.now()), id)
	if err != nil {
		return record.SearchEntry{}, fmt.Errorf("update search: %w", err)
	}
	e, err := r.table().updated(ctx, id, n)
	if err != nil {
		return record.SearchEntry{}, err
	}
	r.s.publish(notify.TopicSearches)
	return e, nil
}

// Delete removes the entry with id.
func (r *SearchRepo) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.table().delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		r.s.publish(notify.TopicSearches)
	}
	return ok, nil
}

// GetByID returns the entry with id or record.ErrNotFound.
func (r *SearchRepo) GetByID(ctx context.Context, id string) (record.SearchEntry, error) {
	return r.table().get(ctx, id)
}

// List returns the whole search history, newest first.
func (r *SearchRepo) List(ctx context.Context) ([]record.SearchEntry, error) {
	return r.table().list(ctx, nil)
}

// Matching returns history entries whose normalized query starts with the
// normalized prefix, newest first.
func (r *SearchRepo) Matching(ctx context.Context, prefix string) ([]record.SearchEntry, error) {
	return r.table().list(ctx, querysql.HasPrefix{Field: "normalized", Prefix: record.NormalizeQuery(prefix)})
}

// Page returns one page of search history strictly after cursor.
func (r *SearchRepo) Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[record.SearchEntry], error) {
	return r.table().page(ctx, cursor, limit, nil)
}

func scanSearch(row scanner) (record.SearchEntry, error) {
	var e record.SearchEntry
	var created, updated int64
	if err := row.Scan(&e.ID, &e.Query, &e.Normalized, &created, &updated); err != nil {
		return record.SearchEntry{}, err
	}
	e.CreatedAt = fromNanos(created)
	e.UpdatedAt = fromNanos(updated)
	return e, nil
}
