package record

import "time"

// Record is the contract every collection entity satisfies.
type Record interface {
	RecordID() string
	Created() time.Time
	Updated() time.Time
}

// Parented is implemented by records that belong to a parent list.
type Parented interface {
	ParentID() string
}

// List is a named shopping list.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l List) RecordID() string   { return l.ID }
func (l List) Created() time.Time { return l.CreatedAt }
func (l List) Updated() time.Time { return l.UpdatedAt }

// ListInput creates a List.
type ListInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// ListPatch updates a List. Nil fields are left untouched.
type ListPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Section groups items inside a list.
type Section struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Section) RecordID() string   { return s.ID }
func (s Section) Created() time.Time { return s.CreatedAt }
func (s Section) Updated() time.Time { return s.UpdatedAt }
func (s Section) ParentID() string   { return s.ListID }

// SectionInput creates a Section.
type SectionInput struct {
	ListID   string `json:"list_id" validate:"required"`
	Name     string `json:"name" validate:"required,max=120"`
	Position int    `json:"position" validate:"gte=0"`
}

// SectionPatch updates a Section.
type SectionPatch struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Position *int    `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// PurchaseEntry records one item bought from a list.
type PurchaseEntry struct {
	ID         string    `json:"id"`
	ListID     string    `json:"list_id"`
	ItemName   string    `json:"item_name"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p PurchaseEntry) RecordID() string   { return p.ID }
func (p PurchaseEntry) Created() time.Time { return p.CreatedAt }
func (p PurchaseEntry) Updated() time.Time { return p.UpdatedAt }
func (p PurchaseEntry) ParentID() string   { return p.ListID }

// PurchaseInput creates a PurchaseEntry.
type PurchaseInput struct {
	ListID     string `json:"list_id" validate:"required"`
	ItemName   string `json:"item_name" validate:"required,max=200"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
}

// PurchasePatch updates a PurchaseEntry.
type PurchasePatch struct {
	ItemName   *string `json:"item_name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity   *int    `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	PriceCents *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
}

// SearchEntry is one query in the search history.
type SearchEntry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Normalized string    `json:"normalized"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s SearchEntry) RecordID() string   { return s.ID }
func (s SearchEntry) Created() time.Time { return s.CreatedAt }
func (s SearchEntry) Updated() time.Time { return s.UpdatedAt }

// SearchInput creates a SearchEntry.
type SearchInput struct {
	Query string `json:"query" validate:"required,max=200"`
}

// SearchPatch updates a SearchEntry.
type SearchPatch struct {
	Query *string `json:"query,omitempty" validate:"omitempty,min=1,max=200"`
}
