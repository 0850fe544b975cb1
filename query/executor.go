package query

import (
	"fmt"
	"strings"
	"sync"
)

// Statement is a compiled query: projection, optional predicate,
// DISTINCT flag, GROUP BY keys and return mode. It is immutable
// (chaining methods return modified copies) and safe to execute
// concurrently against the same or different collections. Building a
// Statement never touches a collection.
type Statement struct {
	projection []Expr
	distinct   bool
	predicate  Expr
	groupBy    []Expr
	returning  string
	funcs      *FunctionRegistry
}

// Select compiles a projection into a query statement. With no
// arguments the query selects the record itself.
func Select(fields ...Field) *Statement {
	projection := make([]Expr, 0, len(fields))
	for _, f := range fields {
		projection = append(projection, f.expr)
	}
	if len(projection) == 0 {
		projection = []Expr{&Root{}}
	}
	return &Statement{projection: projection}
}

// clone copies the statement; slices are shared because they are never
// mutated after construction.
func (s *Statement) clone() *Statement {
	dup := *s
	return &dup
}

// Where returns a copy of the statement filtered by the predicate
func (s *Statement) Where(predicate Field) *Statement {
	dup := s.clone()
	dup.predicate = predicate.expr
	return dup
}

// GroupBy returns a copy of the statement grouped by the key
// expressions. Grouping keeps the first-seen record per distinct key
// tuple; the language defines no aggregate functions, so GROUP BY is a
// deduplication, not an aggregation.
func (s *Statement) GroupBy(keys ...Field) *Statement {
	groupBy := make([]Expr, len(keys))
	for i, k := range keys {
		groupBy[i] = k.expr
	}
	dup := s.clone()
	dup.groupBy = groupBy
	return dup
}

// Distinct returns a copy of the statement that deduplicates projected
// results by value equality, preserving first-seen order.
func (s *Statement) Distinct() *Statement {
	dup := s.clone()
	dup.distinct = true
	return dup
}

// Returning returns a copy of the statement that shapes each result
// through the named output view (see RegisterReturning).
func (s *Statement) Returning(view string) *Statement {
	dup := s.clone()
	dup.returning = view
	return dup
}

// WithFunctions returns a copy of the statement that resolves function
// calls against reg before falling back to the built-ins.
func (s *Statement) WithFunctions(reg *FunctionRegistry) *Statement {
	dup := s.clone()
	dup.funcs = reg
	return dup
}

// String renders the statement in query-text form
func (s *Statement) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	for i, p := range s.projection {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	if s.predicate != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.predicate.String())
	}
	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, k := range s.groupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k.String())
		}
	}
	if s.returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(s.returning)
	}
	return b.String()
}

// Exec runs the compiled query over a collection and returns the
// ordered result sequence. Stages always run in the same order:
// filter, group, project, distinct, shape. The collection must stay
// unmodified for the duration of the call; records are never mutated
// or retained beyond the output sequence. Any evaluation failure
// aborts the whole call; records are never silently skipped.
func (s *Statement) Exec(records []interface{}) ([]interface{}, error) {
	var view ReturnView
	if s.returning != "" {
		var ok bool
		view, ok = lookupReturning(s.returning)
		if !ok {
			return nil, &EvalError{Record: -1, Err: fmt.Errorf("undefined return view %q", s.returning)}
		}
	}

	// Stage 1: filter. Record indexes survive for error reporting.
	survivors := make([]interface{}, 0, len(records))
	indexes := make([]int, 0, len(records))
	for i, rec := range records {
		if s.predicate == nil {
			survivors = append(survivors, rec)
			indexes = append(indexes, i)
			continue
		}
		value, err := s.predicate.eval(&evalContext{record: rec, funcs: s.funcs})
		if err != nil {
			return nil, atRecord(err, i)
		}
		keep, ok := value.(bool)
		if !ok {
			return nil, atRecord(evalErrf(s.predicate, "predicate must evaluate to a boolean, got %T", value), i)
		}
		if keep {
			survivors = append(survivors, rec)
			indexes = append(indexes, i)
		}
	}

	// Stage 2: group. First-seen record represents its key tuple, in
	// first-seen group order.
	if len(s.groupBy) > 0 {
		seen := make(map[string]bool)
		grouped := make([]interface{}, 0, len(survivors))
		groupedIdx := make([]int, 0, len(survivors))
		for n, rec := range survivors {
			keyValues := make([]interface{}, len(s.groupBy))
			for k, keyExpr := range s.groupBy {
				value, err := keyExpr.eval(&evalContext{record: rec, funcs: s.funcs})
				if err != nil {
					return nil, atRecord(err, indexes[n])
				}
				keyValues[k] = value
			}
			key := valuesKey(keyValues)
			if !seen[key] {
				seen[key] = true
				grouped = append(grouped, rec)
				groupedIdx = append(groupedIdx, indexes[n])
			}
		}
		survivors = grouped
		indexes = groupedIdx
	}

	// Stage 3: project
	projected := make([][]interface{}, 0, len(survivors))
	for n, rec := range survivors {
		values := make([]interface{}, len(s.projection))
		for p, expr := range s.projection {
			value, err := expr.eval(&evalContext{record: rec, funcs: s.funcs})
			if err != nil {
				return nil, atRecord(err, indexes[n])
			}
			values[p] = value
		}
		projected = append(projected, values)
	}

	// Stage 4: distinct, by value equality in first-seen order
	if s.distinct {
		seen := make(map[string]bool)
		distinct := projected[:0:0]
		for _, values := range projected {
			key := valuesKey(values)
			if !seen[key] {
				seen[key] = true
				distinct = append(distinct, values)
			}
		}
		projected = distinct
	}

	// Stage 5: shape by return mode
	results := make([]interface{}, 0, len(projected))
	switch {
	case view != nil:
		columns := s.columnNames()
		for _, values := range projected {
			results = append(results, view(columns, values))
		}
	case s.singleValue():
		for _, values := range projected {
			results = append(results, values[0])
		}
	default:
		for _, values := range projected {
			results = append(results, values)
		}
	}

	return results, nil
}

// singleValue reports whether results are bare values rather than
// tuples: exactly one projection column with no alias.
func (s *Statement) singleValue() bool {
	if len(s.projection) != 1 {
		return false
	}
	_, aliased := s.projection[0].(*AliasExpr)
	return !aliased
}

// columnNames derives the output column names for the projection
func (s *Statement) columnNames() []string {
	names := make([]string, len(s.projection))
	for i, p := range s.projection {
		names[i] = exprName(p)
	}
	return names
}

// valuesKey builds a deduplication key from a value tuple. %#v prints
// map keys in sorted order, so the key is deterministic for record
// views too.
func valuesKey(values []interface{}) string {
	var key strings.Builder
	for i, v := range values {
		if i > 0 {
			key.WriteString("\x00||\x00")
		}
		// Collapse numeric spellings so 1 and 1.0 dedupe together,
		// matching comparison semantics.
		if f, ok := toFloat64(v); ok {
			fmt.Fprintf(&key, "n:%v", f)
			continue
		}
		fmt.Fprintf(&key, "%#v", v)
	}
	return key.String()
}

// ReturnView shapes one result from the projected column names and
// values. Views are selected with the RETURNING clause or the
// Returning chainer.
type ReturnView func(columns []string, values []interface{}) interface{}

var (
	returnViewsMu sync.RWMutex
	returnViews   = map[string]ReturnView{
		"map":    mapView,
		"record": mapView,
	}
)

// mapView is the built-in record view: a map keyed by column name
func mapView(columns []string, values []interface{}) interface{} {
	record := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		record[col] = values[i]
	}
	return record
}

// RegisterReturning registers a named output view for use in RETURNING
// clauses
func RegisterReturning(name string, view ReturnView) {
	returnViewsMu.Lock()
	defer returnViewsMu.Unlock()
	returnViews[strings.ToLower(name)] = view
}

func lookupReturning(name string) (ReturnView, bool) {
	returnViewsMu.RLock()
	defer returnViewsMu.RUnlock()
	view, ok := returnViews[strings.ToLower(name)]
	return view, ok
}
