package querysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listColumns = []string{"id", "name", "created_at"}

func TestCompile_SimpleSelect(t *testing.T) {
	sql, params, err := Compile(Select{From: "lists", Columns: listColumns})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, created_at FROM lists ORDER BY created_at DESC, id COLLATE BINARY DESC", sql)
	assert.Empty(t, params)
}

func TestCompile_EqualsIsParameterized(t *testing.T) {
	sql, params, err := Compile(Select{
		From:    "sections",
		Columns: listColumns,
		Filter:  Equals{Field: "list_id", Value: "groceries'; DROP TABLE lists; --"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE list_id = ?")
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"groceries'; DROP TABLE lists; --"}, params)
}

func TestCompile_PointerPredicates(t *testing.T) {
	sql, params, err := Compile(Select{
		From:    "searches",
		Columns: listColumns,
		Filter: &And{Predicates: []Predicate{
			&Equals{Field: "quantity", Value: 2},
			&HasPrefix{Field: "normalized", Prefix: "oat"},
		}},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE quantity = ? AND instr(normalized, ?) = 1")
	assert.Equal(t, []any{2, "oat"}, params)
}

func TestCompile_BeforeAndLimit(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	sql, params, err := Compile(Select{
		From:    "purchases",
		Columns: listColumns,
		Filter: And{Predicates: []Predicate{
			Equals{Field: "list_id", Value: "l1"},
			Before{CreatedAt: at, ID: "p-9"},
		}},
		Limit: 21,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, name, created_at FROM purchases"+
			" WHERE list_id = ? AND (created_at < ? OR (created_at = ? AND id < ? COLLATE BINARY))"+
			" ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?",
		sql)
	ts := at.UTC().UnixNano()
	assert.Equal(t, []any{"l1", ts, ts, "p-9", 21}, params)
}

func TestCompile_EmptyAndHasNoWhere(t *testing.T) {
	sql, params, err := Compile(Select{From: "lists", Columns: listColumns, Filter: And{}})
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, params)

	sql, _, err = Compile(Select{
		From:    "lists",
		Columns: listColumns,
		Filter:  And{Predicates: []Predicate{And{}, Equals{Field: "name", Value: "x"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE name = ? ORDER BY")
}

func TestCompile_OrderByMandatory(t *testing.T) {
	testCases := []struct {
		name  string
		query Select
	}{
		{"no filter", Select{From: "lists", Columns: listColumns}},
		{"with filter", Select{From: "lists", Columns: listColumns, Filter: Equals{Field: "name", Value: "a"}}},
		{"with limit", Select{From: "lists", Columns: listColumns, Limit: 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := Compile(tc.query)
			require.NoError(t, err)
			assert.Contains(t, sql, "ORDER BY "+OrderBy)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		query Select
		want  string
	}{
		{"bad table", Select{From: "lists; --", Columns: listColumns}, `invalid table name "lists; --"`},
		{"no columns", Select{From: "lists"}, "no columns"},
		{"star column", Select{From: "lists", Columns: []string{"*"}}, `invalid column name "*"`},
		{"bad field", Select{From: "lists", Columns: listColumns, Filter: Equals{Field: "Name", Value: "x"}}, `invalid field name "Name"`},
		{"float value", Select{From: "lists", Columns: listColumns, Filter: Equals{Field: "price", Value: 1.5}}, "unsupported value type for price: float64"},
		{"negative limit", Select{From: "lists", Columns: listColumns, Limit: -1}, "negative limit"},
		{"nested bad field", Select{From: "lists", Columns: listColumns, Filter: And{Predicates: []Predicate{HasPrefix{Field: "a b"}}}}, `invalid field name "a b"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
