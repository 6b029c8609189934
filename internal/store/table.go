package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/pantry/internal/querysql"
	"github.com/roach88/pantry/internal/record"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// table holds the read-side SQL shared by every repository.
type table[T record.Record] struct {
	s       *Store
	name    string // table name, also the notify topic
	entity  string // noun used in error messages
	columns []string // SELECT column list, id first
	scan    func(scanner) (T, error)
}

func (t table[T]) get(ctx context.Context, id string) (T, error) {
	row := t.s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(t.columns, ", "), t.name), id)
	rec, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, record.ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", t.entity, err)
	}
	return rec, nil
}

// list returns all rows matching filter (may be nil) in newest-first order.
func (t table[T]) list(ctx context.Context, filter querysql.Predicate) ([]T, error) {
	q, args, err := querysql.Compile(querysql.Select{From: t.name, Columns: t.columns, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.entity, err)
	}
	return t.query(ctx, q, args...)
}

// page returns up to limit rows strictly after cursor, plus whether more exist.
func (t table[T]) page(ctx context.Context, cursor *record.Cursor, limit int, filter querysql.Predicate) (record.Page[T], error) {
	if limit <= 0 {
		return record.Page[T]{}, fmt.Errorf("page %s: limit must be positive, got %d", t.entity, limit)
	}

	var conds []querysql.Predicate
	if filter != nil {
		conds = append(conds, filter)
	}
	if cursor != nil {
		conds = append(conds, querysql.Before{CreatedAt: cursor.CreatedAt, ID: cursor.ID})
	}

	// Fetch one extra row to learn whether another page exists.
	q, args, err := querysql.Compile(querysql.Select{
		From:    t.name,
		Columns: t.columns,
		Filter:  querysql.And{Predicates: conds},
		Limit:   limit + 1,
	})
	if err != nil {
		return record.Page[T]{}, fmt.Errorf("page %s: %w", t.entity, err)
	}

	items, err := t.query(ctx, q, args...)
	if err != nil {
		return record.Page[T]{}, fmt.Errorf("page %s: %w", t.entity, err)
	}

	p := record.Page[T]{Items: items}
	if len(items) > limit {
		p.Items = items[:limit]
		p.HasMore = true
	}
	if len(p.Items) > 0 {
		next := record.CursorOf(p.Items[len(p.Items)-1])
		p.NextCursor = &next
	}
	return p, nil
}

func (t table[T]) query(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := t.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.entity, err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}
	return items, nil
}

func (t table[T]) delete(ctx context.Context, id string) (bool, error) {
	n, err := t.s.execWrite(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", t.entity, err)
	}
	return n > 0, nil
}

// updated fetches the row after a successful UPDATE, mapping zero affected
// rows to record.ErrNotFound.
func (t table[T]) updated(ctx context.Context, id string, affected int64) (T, error) {
	if affected == 0 {
		var zero T
		return zero, record.ErrNotFound
	}
	rec, err := t.get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("update %s: %w", t.entity, err)
	}
	return rec, nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
