package record

import "time"

// BuildList returns the List an input produces at time now.
func BuildList(id string, in ListInput, now time.Time) List {
	return List{ID: id, Name: in.Name, Color: in.Color, CreatedAt: now, UpdatedAt: now}
}

// ApplyListPatch returns l with patch applied and UpdatedAt set to now.
func ApplyListPatch(l List, patch ListPatch, now time.Time) List {
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	l.UpdatedAt = now
	return l
}

// BuildSection returns the Section an input produces at time now.
func BuildSection(id string, in SectionInput, now time.Time) Section {
	return Section{ID: id, ListID: in.ListID, Name: in.Name, Position: in.Position, CreatedAt: now, UpdatedAt: now}
}

// ApplySectionPatch returns s with patch applied and UpdatedAt set to now.
func ApplySectionPatch(s Section, patch SectionPatch, now time.Time) Section {
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Position != nil {
		s.Position = *patch.Position
	}
	s.UpdatedAt = now
	return s
}

// BuildPurchase returns the PurchaseEntry an input produces at time now.
func BuildPurchase(id string, in PurchaseInput, now time.Time) PurchaseEntry {
	return PurchaseEntry{
		ID:         id,
		ListID:     in.ListID,
		ItemName:   in.ItemName,
		Quantity:   in.Quantity,
		PriceCents: in.PriceCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ApplyPurchasePatch returns p with patch applied and UpdatedAt set to now.
func ApplyPurchasePatch(p PurchaseEntry, patch PurchasePatch, now time.Time) PurchaseEntry {
	if patch.ItemName != nil {
		p.ItemName = *patch.ItemName
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	p.UpdatedAt = now
	return p
}

// BuildSearch returns the SearchEntry an input produces at time now.
func BuildSearch(id string, in SearchInput, now time.Time) SearchEntry {
	return SearchEntry{
		ID:         id,
		Query:      in.Query,
		Normalized: NormalizeQuery(in.Query),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ApplySearchPatch returns e with patch applied and UpdatedAt set to now.
func ApplySearchPatch(e SearchEntry, patch SearchPatch, now time.Time) SearchEntry {
	if patch.Query != nil {
		e.Query = *patch.Query
		e.Normalized = NormalizeQuery(*patch.Query)
	}
	e.UpdatedAt = now
	return e
}
