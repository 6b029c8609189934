package store

import (
	"context"
	"fmt"

	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/record"
)

// ListRepo is the durable repository for lists.
type ListRepo struct {
	s *Store
}

func (r *ListRepo) table() table[record.List] {
	return table[record.List]{
		s:       r.s,
		name:    notify.TopicLists,
		entity:  "list",
		columns: []string{"id", "name", "color", "created_at", "updated_at"},
		scan:    scanList,
	}
}

// Create inserts a list and returns it with its durable id.
func (r *ListRepo) Create(ctx context.Context, in record.ListInput) (record.List, error) {
	l := record.BuildList(r.s.ids.Generate(), in, r.s.now())
	_, err := r.s.execWrite(ctx, `
		INSERT INTO lists (id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.ID, l.Name, l.Color, toNanos(l.CreatedAt), toNanos(l.UpdatedAt))
	if err != nil {
		return record.List{}, fmt.Errorf("create list: %w", err)
	}
	r.s.publish(notify.TopicLists)
	return l, nil
}

// Update applies patch to the list with id. Returns record.ErrNotFound if absent.
func (r *ListRepo) Update(ctx context.Context, id string, patch record.ListPatch) (record.List, error) {
	n, err := r.s.execWrite(ctx, `
		UPDATE lists
		SET name = COALESCE(?, name), color = COALESCE(?, color), updated_at = ?
		WHERE id = ?
	`, patch.Name, patch.Color, toNanos(r.s.now()), id)
	if err != nil {
		return record.List{}, fmt.Errorf("update list: %w", err)
	}
	l, err := r.table().updated(ctx, id, n)
	if err != nil {
		return record.List{}, err
	}
	r.s.publish(notify.TopicLists)
	return l, nil
}

// Delete removes the list and, through the foreign key, its sections.
func (r *ListRepo) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.table().delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		r.s.publish(notify.TopicLists, notify.TopicSections)
	}
	return ok, nil
}

// GetByID returns the list with id or record.ErrNotFound.
func (r *ListRepo) GetByID(ctx context.Context, id string) (record.List, error) {
	return r.table().get(ctx, id)
}

// List returns all lists, newest first.
func (r *ListRepo) List(ctx context.Context) ([]record.List, error) {
	return r.table().list(ctx, nil)
}

// Page returns one page of lists strictly after cursor.
func (r *ListRepo) Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[record.List], error) {
	return r.table().page(ctx, cursor, limit, nil)
}

// SectionCounts returns the number of sections per list id.
func (r *ListRepo) SectionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT list_id, COUNT(*) FROM sections GROUP BY list_id`)
	if err != nil {
		return nil, fmt.Errorf("section counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("section counts: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("section counts: %w", err)
	}
	return counts, nil
}

func scanList(row scanner) (record.List, error) {
	var l record.List
	var created, updated int64
	if err := row.Scan(&l.ID, &l.Name, &l.Color, &created, &updated); err != nil {
		return record.List{}, err
	}
	l.CreatedAt = fromNanos(created)
	l.UpdatedAt = fromNanos(updated)
	return l, nil
}
