package store

import (
	"context"
	"fmt"

	"github.com/roach88/pantry/internal/notify"
	"github.com/roach88/pantry/internal/querysql"
	"github.com/roach88/pantry/internal/record"
)

// PurchaseRepo is the durable repository for purchase-history entries.
type PurchaseRepo struct {
	s *Store
}

func (r *PurchaseRepo) table() table[record.PurchaseEntry] {
	return table[record.PurchaseEntry]{
		s:       r.s,
		name:    notify.TopicPurchases,
		entity:  "purchase",
		columns: []string{"id", "list_id", "item_name", "quantity", "price_cents", "created_at", "updated_at"},
		scan:    scanPurchase,
	}
}

// Create records a purchase.
func (r *PurchaseRepo) Create(ctx context.Context, in record.PurchaseInput) (record.PurchaseEntry, error) {
	p := record.BuildPurchase(r.s.ids.Generate(), in, r.s.now())
	_, err := r.s.execWrite(ctx, `
		INSERT INTO purchases (id, list_id, item_name, quantity, price_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ListID, p.ItemName, p.Quantity, p.PriceCents, toNanos(p.CreatedAt), toNanos(p.UpdatedAt))
	if err != nil {
		return record.PurchaseEntry{}, fmt.Errorf("create purchase: %w", err)
	}
	r.s.publish(notify.TopicPurchases)
	return p, nil
}

// Update applies patch to the purchase with id.
func (r *PurchaseRepo) Update(ctx context.Context, id string, patch record.PurchasePatch) (record.PurchaseEntry, error) {
	n, err := r.s.execWrite(ctx, `
		UPDATE purchases
		SET item_name = COALESCE(?, item_name),
		    quantity = COALESCE(?, quantity),
		    price_cents = COALESCE(?, price_cents),
		    updated_at = ?
		WHERE id = ?
	`, patch.ItemName, patch.Quantity, patch.PriceCents, toNanos(r.s.now()), id)
	if err != nil {
		return record.PurchaseEntry{}, fmt.Errorf("update purchase: %w", err)
	}
	p, err := r.table().updated(ctx, id, n)
	if err != nil {
		return record.PurchaseEntry{}, err
	}
	r.s.publish(notify.TopicPurchases)
	return p, nil
}

// Delete removes the purchase with id.
func (r *PurchaseRepo) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.table().delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		r.s.publish(notify.TopicPurchases)
	}
	return ok, nil
}

// GetByID returns the purchase with id or record.ErrNotFound.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (record.PurchaseEntry, error) {
	return r.table().get(ctx, id)
}

// List returns the full purchase history, newest first.
func (r *PurchaseRepo) List(ctx context.Context) ([]record.PurchaseEntry, error) {
	return r.table().list(ctx, nil)
}

// ListByParent returns the purchases made from one list, newest first.
func (r *PurchaseRepo) ListByParent(ctx context.Context, listID string) ([]record.PurchaseEntry, error) {
	return r.table().list(ctx, querysql.Equals{Field: "list_id", Value: listID})
}

// Page returns one page of purchase history strictly after cursor.
func (r *PurchaseRepo) Page(ctx context.Context, cursor *record.Cursor, limit int) (record.Page[record.PurchaseEntry], error) {
	return r.table().page(ctx, cursor, limit, nil)
}

// Recent returns the newest limit purchases.
func (r *PurchaseRepo) Recent(ctx context.Context, limit int) ([]record.PurchaseEntry, error) {
	p, err := r.Page(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

func scanPurchase(row scanner) (record.PurchaseEntry, error) {
	var p record.PurchaseEntry
	var created, updated int64
	if err := row.Scan(&p.ID, &p.ListID, &p.ItemName, &p.Quantity, &p.PriceCents, &created, &updated); err != nil {
		return record.PurchaseEntry{}, err
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return p, nil
}
