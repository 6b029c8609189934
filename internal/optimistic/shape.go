package optimistic

import (
	"context"
	"time"

	"github.com/roach88/pantry/internal/record"
)

// Repository is the durable port a Controller mutates.
// Update returns record.ErrNotFound for unknown ids; Delete returns false
// when nothing was deleted.
type Repository[T record.Record, C any, U any] interface {
	Create(ctx context.Context, in C) (T, error)
	Update(ctx context.Context, id string, patch U) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
}

// ParentLister is implemented by repositories of parented records.
type ParentLister[T record.Record] interface {
	ListByParent(ctx context.Context, parentID string) ([]T, error)
}

// Shape describes how optimistic snapshots of T are built.
type Shape[T record.Record, C any, U any] struct {
	// Noun names the entity in error messages ("list").
	Noun string
	// Plural overrides Noun+"s".
	Plural string
	// Build returns the record an input will become, under a temporary id.
	Build func(id string, in C, now time.Time) T
	// Apply returns cur with patch applied and UpdatedAt set to now.
	Apply func(cur T, patch U, now time.Time) T
}

func (s Shape[T, C, U]) plural() string {
	if s.Plural != "" {
		return s.Plural
	}
	return s.Noun + "s"
}

// ListShape is the Shape of lists.
func ListShape() Shape[record.List, record.ListInput, record.ListPatch] {
	return Shape[record.List, record.ListInput, record.ListPatch]{
		Noun:  "list",
		Build: record.BuildList,
		Apply: record.ApplyListPatch,
	}
}

// SectionShape is the Shape of sections.
func SectionShape() Shape[record.Section, record.SectionInput, record.SectionPatch] {
	return Shape[record.Section, record.SectionInput, record.SectionPatch]{
		Noun:  "section",
		Build: record.BuildSection,
		Apply: record.ApplySectionPatch,
	}
}

// PurchaseShape is the Shape of purchase-history entries.
func PurchaseShape() Shape[record.PurchaseEntry, record.PurchaseInput, record.PurchasePatch] {
	return Shape[record.PurchaseEntry, record.PurchaseInput, record.PurchasePatch]{
		Noun:  "purchase",
		Build: record.BuildPurchase,
		Apply: record.ApplyPurchasePatch,
	}
}

// SearchShape is the Shape of search-history entries.
func SearchShape() Shape[record.SearchEntry, record.SearchInput, record.SearchPatch] {
	return Shape[record.SearchEntry, record.SearchInput, record.SearchPatch]{
		Noun:   "search",
		Plural: "searches",
		Build:  record.BuildSearch,
		Apply:  record.ApplySearchPatch,
	}
}

// Concrete controller types, one per collection.
type (
	Lists     = Controller[record.List, record.ListInput, record.ListPatch]
	Sections  = Controller[record.Section, record.SectionInput, record.SectionPatch]
	Purchases = Controller[record.PurchaseEntry, record.PurchaseInput, record.PurchasePatch]
	Searches  = Controller[record.SearchEntry, record.SearchInput, record.SearchPatch]
)
