package query

import "fmt"

// LexError reports a character the tokenizer could not match.
type LexError struct {
	Offset int
	Char   rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected character %q at offset %d", e.Char, e.Offset)
}

// ParseError reports a grammar violation: the construct the parser
// expected and the token it found instead.
type ParseError struct {
	Offset   int
	Expected string
	Found    Token
}

func (e *ParseError) Error() string {
	if e.Found.Type == TokenEOF {
		return fmt.Sprintf("expected %s, got end of query at offset %d", e.Expected, e.Offset)
	}
	return fmt.Sprintf("expected %s, got %q at offset %d", e.Expected, e.Found.Value, e.Offset)
}

// EvalError reports an evaluation failure: the sub-expression that
// produced it (nil when the failure is not tied to one, such as an
// undefined return view), the index of the record being evaluated (-1
// outside of an execution pass), and the underlying cause.
type EvalError struct {
	Expr   Expr
	Record int
	Err    error
}

func (e *EvalError) Error() string {
	switch {
	case e.Expr == nil:
		return e.Err.Error()
	case e.Record >= 0:
		return fmt.Sprintf("evaluating %s on record %d: %v", e.Expr, e.Record, e.Err)
	default:
		return fmt.Sprintf("evaluating %s: %v", e.Expr, e.Err)
	}
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// evalErrf wraps a new failure with the sub-expression that produced
// it. Already-wrapped errors pass through so the innermost expression
// is reported.
func evalErrf(expr Expr, format string, args ...interface{}) error {
	return &EvalError{Expr: expr, Record: -1, Err: fmt.Errorf(format, args...)}
}

// atExpr attaches expr to a plain error; an existing EvalError is left
// untouched.
func atExpr(expr Expr, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*EvalError); ok {
		return err
	}
	return &EvalError{Expr: expr, Record: -1, Err: err}
}

// atRecord stamps the record index onto an evaluation error.
func atRecord(err error, index int) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EvalError); ok {
		return &EvalError{Expr: ee.Expr, Record: index, Err: ee.Err}
	}
	return err
}
