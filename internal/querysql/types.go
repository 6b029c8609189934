// Package querysql describes the read queries the store runs and compiles
// them to parameterized SQLite SQL.
//
// Every compiled query is ordered by the keyset (created_at DESC, id DESC)
// with COLLATE BINARY on the id, so results are deterministic and a Before
// predicate built from the last row of one page selects exactly the rows of
// the next. Values are always bound as parameters, never interpolated.
//
// Example:
//
//	Select{
//	  From:    "purchases",
//	  Columns: []string{"id", "item_name", "created_at"},
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "list_id", Value: "l1"},
//	    Before{CreatedAt: c.CreatedAt, ID: c.ID},
//	  }},
//	  Limit: 21,
//	}
//
// compiles to
//
//	SELECT id, item_name, created_at FROM purchases
//	WHERE list_id = ? AND (created_at < ? OR (created_at = ? AND id < ? COLLATE BINARY))
//	ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?
package querysql

import "time"

// Predicate is a filter condition. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from a table, filtered and limited.
type Select struct {
	From    string    // table name
	Columns []string  // explicit column list; SELECT * is not allowed
	Filter  Predicate // nil = no filter
	Limit   int       // 0 = no limit
}

// Equals matches rows whose field equals Value. Value must be a string,
// int, int64 or bool.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// HasPrefix matches rows whose text field starts with Prefix.
type HasPrefix struct {
	Field  string
	Prefix string
}

func (HasPrefix) predicateNode() {}

// Before matches rows strictly older than the row (CreatedAt, ID) in the
// keyset order. created_at columns hold UTC Unix nanoseconds.
type Before struct {
	CreatedAt time.Time
	ID        string
}

func (Before) predicateNode() {}

// And matches rows for which every predicate matches. An empty And matches
// every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
