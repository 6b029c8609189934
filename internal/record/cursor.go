package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Cursor marks a position in a newest-first collection. The next page starts
// strictly after the record identified by (CreatedAt, ID).
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// CursorOf returns the cursor positioned at r.
func CursorOf(r Record) Cursor {
	return Cursor{CreatedAt: r.Created(), ID: r.RecordID()}
}

// Encode returns the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by Cursor.Encode.
func DecodeCursor(token string) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	if c.ID == "" {
		return Cursor{}, fmt.Errorf("decode cursor: missing id")
	}
	return c, nil
}

// Page is one page of a cursor-paginated fetch.
type Page[T Record] struct {
	Items      []T
	NextCursor *Cursor
	HasMore    bool
}

// Less reports whether a sorts before b in newest-first order:
// created_at descending, ties broken by id descending.
func Less(a, b Record) bool {
	at, bt := a.Created(), b.Created()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.RecordID() > b.RecordID()
}

// SortNewestFirst sorts records in place using Less.
func SortNewestFirst[T Record](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}

// After reports whether r sorts strictly after the cursor position.
func (c Cursor) After(r Record) bool {
	rt := r.Created()
	if !rt.Equal(c.CreatedAt) {
		return rt.Before(c.CreatedAt)
	}
	return r.RecordID() < c.ID
}
