// Package query implements a SQL-like expression language for filtering,
// projecting and deduplicating in-memory collections of records.
//
// Queries can be built two ways, and both produce the same syntax tree:
//   - parsing query text with Parse
//   - composing expressions in Go with the placeholder value O
//
// A query statement supports:
//   - SELECT with expression projection and aliases
//   - DISTINCT for removing duplicate result rows
//   - WHERE clauses with comparison, arithmetic and logical operators
//   - GROUP BY, which keeps the first record per group key
//   - RETURNING, which reshapes result rows through a registered view
//   - Built-in functions (string, math and utility operations)
//
// # Query Text
//
// Parse and execute a query against a slice of records:
//
//	stmt, err := query.Parse("SELECT o.name, o.age WHERE o.age > 30")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := stmt.Exec(records)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The keyword o refers to the record currently being evaluated. Attributes
// are reached with dot notation (o.name) and keys or indexes with brackets
// (o["name"], o.tags[0]).
//
// # Builder
//
// The same query, composed from the placeholder O:
//
//	stmt := query.Select(query.O.Attr("name"), query.O.Attr("age")).
//	    Where(query.O.Attr("age").Gt(30))
//
//	results, err := stmt.Exec(records)
//
// Statements are immutable: Where, GroupBy, Distinct and Returning each
// return a new Statement, so a base statement can be shared and refined.
//
// # Records
//
// Records may be map[string]interface{} values, structs (attributes match
// exported fields), or any type implementing AttrGetter or KeyGetter.
// Slices and maps are indexable with bracket access.
//
// # Result Shapes
//
// A single unaliased projection yields bare values. Multiple projections,
// or a single aliased one, yield []interface{} tuples in projection order.
// RETURNING passes column names and values through a view registered with
// RegisterReturning; the built-in "map" view yields
// map[string]interface{} rows.
//
// # Operators
//
// WHERE and projection expressions support:
//   - Comparison: =, !=, <, >, <=, >=, IS, CONTAINS, LIKE, MATCHES
//   - Membership: IN with a parenthesized or bare value list
//   - Logical: AND, OR, NOT (operands must be booleans)
//   - Arithmetic: +, -, *, /, %, ^ (also written **)
//
// # Error Handling
//
// Lexing failures return *LexError, syntax failures *ParseError, and
// evaluation failures *EvalError carrying the failing expression and the
// index of the record being processed. All three work with errors.As.
package query
