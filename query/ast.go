package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// BinaryOp identifies the operator of a binary expression
type BinaryOp int

const (
	OpOr BinaryOp = iota
	OpAnd
	OpIn

	// Comparisons
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpContains
	OpLike
	OpMatches

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

var opNames = map[BinaryOp]string{
	OpOr:       "OR",
	OpAnd:      "AND",
	OpIn:       "IN",
	OpEq:       "=",
	OpNe:       "!=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpIs:       "IS",
	OpContains: "CONTAINS",
	OpLike:     "LIKE",
	OpMatches:  "MATCHES",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpPow:      "^",
}

// String returns the operator as it appears in query text
func (op BinaryOp) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?"
}

// isComparison reports whether op is a comparison operator
func (op BinaryOp) isComparison() bool {
	return op >= OpEq && op <= OpMatches
}

// Expr is an immutable expression tree node. Both front ends (the text
// parser and the placeholder builder) produce the same node types, so
// equivalent expressions compare structurally equal. Nodes are never
// mutated after construction; combining expressions allocates new
// parents referencing the operands, which makes sharing a
// sub-expression across queries safe.
type Expr interface {
	// Equal reports structural equality with another expression.
	// Aliases are transparent on the unaliased side: x and x AS y
	// compare equal, while x AS y and x AS z do not.
	Equal(other Expr) bool

	// String renders the expression in query-text form
	String() string

	eval(ec *evalContext) (interface{}, error)
}

// Literal is a constant value
type Literal struct {
	Value interface{}
}

// Root is the current-record placeholder, written o in query text
type Root struct{}

// AttrExpr is attribute access on a base expression: base.name
type AttrExpr struct {
	Base Expr
	Name string
}

// KeyExpr is index access on a base expression: base[key]
type KeyExpr struct {
	Base Expr
	Key  interface{}
}

// CallExpr is a function call dispatched by name through the function
// registry
type CallExpr struct {
	Name string
	Args []Expr
}

// BinaryExpr is a binary operation
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// NotExpr is logical negation
type NotExpr struct {
	Operand Expr
}

// AliasExpr attaches an output name to an expression: expr AS name
type AliasExpr struct {
	Expr Expr
	Name string
}

// ListExpr is an expression list, the right-hand side of IN
type ListExpr struct {
	Elems []Expr
}

func (e *Literal) Equal(other Expr) bool    { return exprEqual(e, other) }
func (e *Root) Equal(other Expr) bool       { return exprEqual(e, other) }
func (e *AttrExpr) Equal(other Expr) bool   { return exprEqual(e, other) }
func (e *KeyExpr) Equal(other Expr) bool    { return exprEqual(e, other) }
func (e *CallExpr) Equal(other Expr) bool   { return exprEqual(e, other) }
func (e *BinaryExpr) Equal(other Expr) bool { return exprEqual(e, other) }
func (e *NotExpr) Equal(other Expr) bool    { return exprEqual(e, other) }
func (e *AliasExpr) Equal(other Expr) bool  { return exprEqual(e, other) }
func (e *ListExpr) Equal(other Expr) bool   { return exprEqual(e, other) }

// exprEqual compares two expression trees structurally
func exprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	// Aliases compare by inner expression and name against each other,
	// and transparently against unaliased expressions.
	if x, ok := a.(*AliasExpr); ok {
		if y, ok := b.(*AliasExpr); ok {
			return x.Name == y.Name && exprEqual(x.Expr, y.Expr)
		}
		return exprEqual(x.Expr, b)
	}
	if y, ok := b.(*AliasExpr); ok {
		return exprEqual(a, y.Expr)
	}

	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		return ok && reflect.DeepEqual(x.Value, y.Value)
	case *Root:
		_, ok := b.(*Root)
		return ok
	case *AttrExpr:
		y, ok := b.(*AttrExpr)
		return ok && x.Name == y.Name && exprEqual(x.Base, y.Base)
	case *KeyExpr:
		y, ok := b.(*KeyExpr)
		return ok && reflect.DeepEqual(x.Key, y.Key) && exprEqual(x.Base, y.Base)
	case *CallExpr:
		y, ok := b.(*CallExpr)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !exprEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && exprEqual(x.Left, y.Left) && exprEqual(x.Right, y.Right)
	case *NotExpr:
		y, ok := b.(*NotExpr)
		return ok && exprEqual(x.Operand, y.Operand)
	case *ListExpr:
		y, ok := b.(*ListExpr)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !exprEqual(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// literalString renders a literal value in query-text form
func literalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (e *Literal) String() string { return literalString(e.Value) }
func (e *Root) String() string    { return "o" }

func (e *AttrExpr) String() string {
	return e.Base.String() + "." + e.Name
}

func (e *KeyExpr) String() string {
	return e.Base.String() + "[" + literalString(e.Key) + "]"
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e *NotExpr) String() string {
	return "NOT " + e.Operand.String()
}

func (e *AliasExpr) String() string {
	return e.Expr.String() + " AS " + e.Name
}

func (e *ListExpr) String() string {
	elems := make([]string, len(e.Elems))
	for i, elem := range e.Elems {
		elems[i] = elem.String()
	}
	return strings.Join(elems, ", ")
}

// exprName derives the output column name for a projection expression:
// the alias when one is given, otherwise a name based on the
// expression itself.
func exprName(e Expr) string {
	switch x := e.(type) {
	case *AliasExpr:
		return x.Name
	case *AttrExpr:
		return x.Name
	case *KeyExpr:
		return fmt.Sprintf("%v", x.Key)
	case *CallExpr:
		return x.Name
	default:
		return e.String()
	}
}

// unalias strips alias wrappers from an expression
func unalias(e Expr) Expr {
	for {
		a, ok := e.(*AliasExpr)
		if !ok {
			return e
		}
		e = a.Expr
	}
}
