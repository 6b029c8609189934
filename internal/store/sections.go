package store

import (
	"context"
	"fmt"

	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/querysql"
	"github.com/roach88/pantry/internal/record"
)

// SectionRepo is the durable repository for list sections.
type SectionRepo struct {
	s *Store
}

func (r *SectionRepo) table() table[record.Section] {
	return table[record.Section]{
		s:       r.s,
		name:    notify.TopicSections,
		entity:  "section",
		columns: []string{"id", "list_id", "name", "position", "created_at", "updated_at"},
		scan:    scanSection,
	}
}

// Create inserts a section. The parent list must exist.
func (r *SectionRepo) Create(ctx context.Context, in record.SectionInput) (record.Section, error) {
	sec := record.BuildSection(r.s.ids.Generate(), in, r.s.now())
	_, err := r.s.execWrite(ctx, `
		INSERT INTO sections (id, list_id, name, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sec.ID, sec.ListID, sec.Name, sec.Position, toNanos(sec.CreatedAt), toNanos(sec.UpdatedAt))
	if err != nil {
		return record.Section{}, fmt.Errorf("create section: %w", err)
	}
	r.s.publish(notify.TopicSections)
	return sec, nil
}

// Update applies patch to the section with id.
func (r *SectionRepo) Update(ctx context.Context, id string, patch record.SectionPatch) (record.Section, error) {
	n, err := r.s.execWrite(ctx, `
		UPDATE sections
		SET name = COALESCE(?, name), position = COALESCE(?, position), updated_at = ?
		WHERE id = ?
	`, patch.Name, patch.Position, toNanos(r.s.now()), id)
	if err != nil {
		return record.Section{}, fmt.Errorf("update section: %w", err)
	}
	sec, err := r.table().updated(ctx, id, n)
	if err != nil {
		return record.Section{}, err
	}
	r.s.publish(notify.TopicSections)
	return sec, nil
}

// Delete removes the section with id.
func (r *SectionRepo) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.table().delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		r.s.publish(notify.TopicSections)
	}
	return ok, nil
}

// GetByID returns the section with id or record.ErrNotFound.
func (r *SectionRepo) GetByID(ctx context.Context, id string) (record.Section, error) {
	return r.table().get(ctx, id)
}

// List returns all sections, newest first.
func (r *SectionRepo) List(ctx context.Context) ([]record.Section, error) {
	return r.table().list(ctx, nil)
}

// ListByParent returns the sections of one list, newest first.
func (r *SectionRepo) ListByParent(ctx context.Context, listID string) ([]record.Section, error) {
	return r.table().list(ctx, querysql.Equals{Field: "list_id", Value: listID})
}

func scanSection(row scanner) (record.Section, error) {
	var sec record.Section
	var created, updated int64
	if err := row.Scan(&sec.ID, &sec.ListID, &sec.Name, &sec.Position, &created, &updated); err != nil {
		return record.Section{}, err
	}
	sec.CreatedAt = fromNanos(created)
	sec.UpdatedAt = fromNanos(updated)
	return sec, nil
}
