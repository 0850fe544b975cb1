package query

// Field is an expression placeholder. Its methods do not compute
// values: they allocate AST nodes referencing their operands, so a
// chain of Field operations builds the same tree the parser would
// produce for the equivalent query text.
//
//	x := O.Attr("x")
//	stmt := Select(x).Where(x.Gt(3))
type Field struct {
	expr Expr
}

// O is the current-record placeholder, the builder counterpart of the
// o keyword in query text.
var O = Field{expr: &Root{}}

// Lit wraps a constant value as a field expression
func Lit(value interface{}) Field {
	return Field{expr: toExpr(value)}
}

// Func builds a function-call expression for a registered function
func Func(name string, args ...interface{}) Field {
	return Field{expr: &CallExpr{Name: name, Args: toExprs(args)}}
}

// Attrs builds one placeholder per named attribute, each pre-wired as
// attribute access on the current record.
//
//	name, age := query.Attrs("name", "age")[0], ...
func Attrs(names ...string) []Field {
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = O.Attr(name)
	}
	return fields
}

// Expr returns the AST node the field has built so far
func (f Field) Expr() Expr {
	return f.expr
}

// String renders the field expression in query-text form
func (f Field) String() string {
	return f.expr.String()
}

// Attr builds attribute access: f.name
func (f Field) Attr(name string) Field {
	return Field{expr: &AttrExpr{Base: f.expr, Name: name}}
}

// Index builds index access: f[key]
func (f Field) Index(key interface{}) Field {
	return Field{expr: &KeyExpr{Base: f.expr, Key: normalizeLiteral(key)}}
}

// As attaches an output name to the expression
func (f Field) As(name string) Field {
	return Field{expr: &AliasExpr{Expr: f.expr, Name: name}}
}

func (f Field) binary(op BinaryOp, other interface{}) Field {
	return Field{expr: &BinaryExpr{Op: op, Left: f.expr, Right: toExpr(other)}}
}

// Eq builds f = other
func (f Field) Eq(other interface{}) Field { return f.binary(OpEq, other) }

// Ne builds f != other
func (f Field) Ne(other interface{}) Field { return f.binary(OpNe, other) }

// Lt builds f < other
func (f Field) Lt(other interface{}) Field { return f.binary(OpLt, other) }

// Le builds f <= other
func (f Field) Le(other interface{}) Field { return f.binary(OpLe, other) }

// Gt builds f > other
func (f Field) Gt(other interface{}) Field { return f.binary(OpGt, other) }

// Ge builds f >= other
func (f Field) Ge(other interface{}) Field { return f.binary(OpGe, other) }

// Is builds f IS other (strict equality, no numeric coercion)
func (f Field) Is(other interface{}) Field { return f.binary(OpIs, other) }

// Contains builds f CONTAINS other
func (f Field) Contains(other interface{}) Field { return f.binary(OpContains, other) }

// Like builds f LIKE pattern
func (f Field) Like(pattern interface{}) Field { return f.binary(OpLike, pattern) }

// Matches builds f MATCHES pattern
func (f Field) Matches(pattern interface{}) Field { return f.binary(OpMatches, pattern) }

// Add builds f + other
func (f Field) Add(other interface{}) Field { return f.binary(OpAdd, other) }

// Sub builds f - other
func (f Field) Sub(other interface{}) Field { return f.binary(OpSub, other) }

// Mul builds f * other
func (f Field) Mul(other interface{}) Field { return f.binary(OpMul, other) }

// Div builds f / other
func (f Field) Div(other interface{}) Field { return f.binary(OpDiv, other) }

// Mod builds f % other
func (f Field) Mod(other interface{}) Field { return f.binary(OpMod, other) }

// Pow builds f ^ other
func (f Field) Pow(other interface{}) Field { return f.binary(OpPow, other) }

// In builds a membership test against the listed items
func (f Field) In(items ...interface{}) Field {
	return Field{expr: &BinaryExpr{Op: OpIn, Left: f.expr, Right: &ListExpr{Elems: toExprs(items)}}}
}

// And combines two predicates; Go cannot overload &&, so logical
// combination goes through explicit combinators.
func (f Field) And(other interface{}) Field { return f.binary(OpAnd, other) }

// Or combines two predicates
func (f Field) Or(other interface{}) Field { return f.binary(OpOr, other) }

// Not negates a predicate
func (f Field) Not() Field {
	return Field{expr: &NotExpr{Operand: f.expr}}
}

// Not negates a predicate; prefix form of Field.Not
func Not(f Field) Field {
	return f.Not()
}

// toExpr converts a builder operand to an AST node: fields and raw
// expressions pass through, everything else becomes a literal.
func toExpr(v interface{}) Expr {
	switch val := v.(type) {
	case Field:
		return val.expr
	case Expr:
		return val
	default:
		return &Literal{Value: normalizeLiteral(v)}
	}
}

func toExprs(vs []interface{}) []Expr {
	exprs := make([]Expr, len(vs))
	for i, v := range vs {
		exprs[i] = toExpr(v)
	}
	return exprs
}

// normalizeLiteral widens numeric literals to the representations the
// parser produces, so builder and parser output compare equal.
func normalizeLiteral(v interface{}) interface{} {
	if i, ok := toInt64(v); ok {
		return i
	}
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	return v
}
