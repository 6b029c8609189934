package querysql

import (
	"fmt"
	"regexp"
	"strings"
)

// OrderBy is the keyset order appended to every query.
const OrderBy = "created_at DESC, id COLLATE BINARY DESC"

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error).
func Compile(q Select) (string, []any, error) {
	if err := checkIdent("table", q.From); err != nil {
		return "", nil, err
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s: no columns", q.From)
	}
	for _, col := range q.Columns {
		if err := checkIdent("column", col); err != nil {
			return "", nil, err
		}
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("select from %s: negative limit %d", q.From, q.Limit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(q.Columns, ", "), q.From)

	var params []any
	if q.Filter != nil {
		where, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if where != "" {
			b.WriteString(" WHERE ")
			b.WriteString(where)
			params = filterParams
		}
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(OrderBy)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// compilePredicate compiles p to a WHERE fragment. An empty fragment means
// no condition.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case HasPrefix:
		return compileHasPrefix(pred)
	case *HasPrefix:
		return compileHasPrefix(*pred)
	case Before:
		return compileBefore(pred)
	case *Before:
		return compileBefore(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	if err := checkIdent("field", eq.Field); err != nil {
		return "", nil, err
	}
	switch eq.Value.(type) {
	case string, int, int64, bool:
	default:
		return "", nil, fmt.Errorf("unsupported value type for %s: %T", eq.Field, eq.Value)
	}
	return eq.Field + " = ?", []any{eq.Value}, nil
}

func compileHasPrefix(hp HasPrefix) (string, []any, error) {
	if err := checkIdent("field", hp.Field); err != nil {
		return "", nil, err
	}
	// instr avoids LIKE wildcards in the prefix.
	return fmt.Sprintf("instr(%s, ?) = 1", hp.Field), []any{hp.Prefix}, nil
}

func compileBefore(b Before) (string, []any, error) {
	ts := b.CreatedAt.UTC().UnixNano()
	return "(created_at < ? OR (created_at = ? AND id < ? COLLATE BINARY))", []any{ts, ts, b.ID}, nil
}

func compileAnd(and And) (string, []any, error) {
	var parts []string
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func checkIdent(kind, name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}
