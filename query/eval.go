package query

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode"
)

// AttrGetter lets a record type answer attribute lookups itself
// instead of going through reflection.
type AttrGetter interface {
	Attr(name string) (interface{}, bool)
}

// KeyGetter lets a record type answer index lookups itself instead of
// going through reflection.
type KeyGetter interface {
	Key(key interface{}) (interface{}, bool)
}

// evalContext binds the current record and the function registry for
// one evaluation. No state survives across records.
type evalContext struct {
	record interface{}
	funcs  *FunctionRegistry
}

// lookupFunction resolves a function name against the context's
// registry, falling back to the built-ins.
func (ec *evalContext) lookupFunction(name string) (Function, bool) {
	if ec.funcs != nil {
		if f, ok := ec.funcs.Get(name); ok {
			return f, true
		}
	}
	return globalRegistry.Get(name)
}

// Evaluate computes the value of an expression for one record using
// the built-in function registry. Evaluation is a pure tree walk; the
// record is bound for this call only.
func Evaluate(e Expr, record interface{}) (interface{}, error) {
	return e.eval(&evalContext{record: record})
}

func (e *Literal) eval(ec *evalContext) (interface{}, error) {
	return e.Value, nil
}

func (e *Root) eval(ec *evalContext) (interface{}, error) {
	return ec.record, nil
}

func (e *AttrExpr) eval(ec *evalContext) (interface{}, error) {
	base, err := e.Base.eval(ec)
	if err != nil {
		return nil, err
	}
	value, ok := attrValue(base, e.Name)
	if !ok {
		return nil, evalErrf(e, "record %T has no attribute %q", base, e.Name)
	}
	return value, nil
}

func (e *KeyExpr) eval(ec *evalContext) (interface{}, error) {
	base, err := e.Base.eval(ec)
	if err != nil {
		return nil, err
	}
	value, ok := keyValue(base, e.Key)
	if !ok {
		return nil, evalErrf(e, "record %T has no key %v", base, e.Key)
	}
	return value, nil
}

func (e *CallExpr) eval(ec *evalContext) (interface{}, error) {
	fn, ok := ec.lookupFunction(e.Name)
	if !ok {
		return nil, evalErrf(e, "unknown function: %s", e.Name)
	}

	args := make([]interface{}, len(e.Args))
	for i, arg := range e.Args {
		val, err := arg.eval(ec)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if min := fn.MinArity(); min >= 0 && len(args) < min {
		return nil, evalErrf(e, "function %s: expected at least %d arguments, got %d", e.Name, min, len(args))
	}
	if max := fn.MaxArity(); max >= 0 && len(args) > max {
		return nil, evalErrf(e, "function %s: expected at most %d arguments, got %d", e.Name, max, len(args))
	}

	result, err := fn.Evaluate(args)
	if err != nil {
		return nil, atExpr(e, err)
	}
	return result, nil
}

func (e *NotExpr) eval(ec *evalContext) (interface{}, error) {
	value, err := e.Operand.eval(ec)
	if err != nil {
		return nil, err
	}
	b, ok := value.(bool)
	if !ok {
		return nil, evalErrf(e, "NOT requires a boolean operand, got %T", value)
	}
	return !b, nil
}

func (e *AliasExpr) eval(ec *evalContext) (interface{}, error) {
	return e.Expr.eval(ec)
}

func (e *ListExpr) eval(ec *evalContext) (interface{}, error) {
	values := make([]interface{}, len(e.Elems))
	for i, elem := range e.Elems {
		val, err := elem.eval(ec)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return values, nil
}

func (e *BinaryExpr) eval(ec *evalContext) (interface{}, error) {
	switch e.Op {
	case OpAnd, OpOr:
		return e.evalLogical(ec)
	case OpIn:
		return e.evalIn(ec)
	}

	left, err := e.Left.eval(ec)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.eval(ec)
	if err != nil {
		return nil, err
	}

	if e.Op.isComparison() {
		result, err := compare(left, e.Op, right)
		if err != nil {
			return nil, atExpr(e, err)
		}
		return result, nil
	}

	result, err := arith(left, e.Op, right)
	if err != nil {
		return nil, atExpr(e, err)
	}
	return result, nil
}

// evalLogical implements short-circuit AND/OR: the right side is not
// evaluated when the left side decides the result.
func (e *BinaryExpr) evalLogical(ec *evalContext) (interface{}, error) {
	left, err := e.Left.eval(ec)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(bool)
	if !ok {
		return nil, evalErrf(e, "%s requires boolean operands, got %T", e.Op, left)
	}

	if e.Op == OpAnd && !lb {
		return false, nil
	}
	if e.Op == OpOr && lb {
		return true, nil
	}

	right, err := e.Right.eval(ec)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(bool)
	if !ok {
		return nil, evalErrf(e, "%s requires boolean operands, got %T", e.Op, right)
	}
	return rb, nil
}

// evalIn tests membership of the left value in the right-hand list
func (e *BinaryExpr) evalIn(ec *evalContext) (interface{}, error) {
	left, err := e.Left.eval(ec)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.eval(ec)
	if err != nil {
		return nil, err
	}
	values, ok := right.([]interface{})
	if !ok {
		values = []interface{}{right}
	}

	for _, v := range values {
		match, err := compare(left, OpEq, v)
		if err != nil {
			return nil, atExpr(e, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// attrValue looks up a named attribute on a record: map key, the
// AttrGetter capability, or an exported struct field via reflection.
func attrValue(record interface{}, name string) (interface{}, bool) {
	switch rec := record.(type) {
	case map[string]interface{}:
		v, ok := rec[name]
		return v, ok
	case AttrGetter:
		return rec.Attr(name)
	}

	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	field := rv.FieldByName(name)
	if !field.IsValid() {
		// Queries typically use lower-case names; retry with the
		// exported spelling.
		field = rv.FieldByName(exportedName(name))
	}
	if !field.IsValid() || !field.CanInterface() {
		return nil, false
	}
	return field.Interface(), true
}

// keyValue looks up an indexed value on a record: the KeyGetter
// capability, a map key, or a slice/array position.
func keyValue(record interface{}, key interface{}) (interface{}, bool) {
	switch rec := record.(type) {
	case KeyGetter:
		return rec.Key(key)
	case map[string]interface{}:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		v, ok := rec[name]
		return v, ok
	}

	rv := reflect.ValueOf(record)
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() || !kv.Type().AssignableTo(rv.Type().Key()) {
			return nil, false
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := toInt64(key)
		if !ok || idx < 0 || idx >= int64(rv.Len()) {
			return nil, false
		}
		return rv.Index(int(idx)).Interface(), true
	}
	return nil, false
}

// exportedName upper-cases the first rune of name
func exportedName(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// toFloat64 converts a value to float64 if possible
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// toInt64 converts an integer-kind value to int64 if possible
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	default:
		return 0, false
	}
}

// toString converts a value to string if possible
func toString(v interface{}) (string, bool) {
	if str, ok := v.(string); ok {
		return str, true
	}
	return "", false
}

// toBool converts a value to bool if possible
func toBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}

// arith evaluates an arithmetic operation. Integer operands stay
// integers except for division, which is always float, and power,
// which goes through math.Pow. String + string concatenates.
func arith(left interface{}, op BinaryOp, right interface{}) (interface{}, error) {
	if op == OpAdd {
		if ls, ok := toString(left); ok {
			if rs, ok := toString(right); ok {
				return ls + rs, nil
			}
		}
	}

	li, leftIsInt := toInt64(left)
	ri, rightIsInt := toInt64(right)
	if leftIsInt && rightIsInt {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		case OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, leftIsNum := toFloat64(left)
	rf, rightIsNum := toFloat64(right)
	if !leftIsNum || !rightIsNum {
		return nil, fmt.Errorf("cannot apply %s to %T and %T", op, left, right)
	}

	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	case OpMod:
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return math.Mod(lf, rf), nil
	case OpPow:
		return math.Pow(lf, rf), nil
	default:
		return nil, fmt.Errorf("unsupported arithmetic operator: %s", op)
	}
}

// compare compares two values using the given comparison operator
func compare(left interface{}, op BinaryOp, right interface{}) (bool, error) {
	switch op {
	case OpIs:
		return reflect.DeepEqual(left, right), nil
	case OpContains:
		return contains(left, right)
	case OpLike:
		return like(left, right)
	case OpMatches:
		return matches(left, right)
	}

	// Equality with NULL never coerces
	if left == nil || right == nil {
		switch op {
		case OpEq:
			return left == nil && right == nil, nil
		case OpNe:
			return !(left == nil && right == nil), nil
		}
		return false, fmt.Errorf("cannot order %v against NULL", op)
	}

	if leftNum, ok := toFloat64(left); ok {
		if rightNum, ok := toFloat64(right); ok {
			return compareNumbers(leftNum, op, rightNum), nil
		}
	}

	if leftStr, ok := toString(left); ok {
		if rightStr, ok := toString(right); ok {
			return compareStrings(leftStr, op, rightStr), nil
		}
	}

	if leftBool, ok := toBool(left); ok {
		if rightBool, ok := toBool(right); ok {
			switch op {
			case OpEq:
				return leftBool == rightBool, nil
			case OpNe:
				return leftBool != rightBool, nil
			}
			return false, fmt.Errorf("cannot order booleans with %s", op)
		}
	}

	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

// compareNumbers compares two numbers
func compareNumbers(left float64, op BinaryOp, right float64) bool {
	switch op {
	case OpEq:
		return left == right
	case OpNe:
		return left != right
	case OpLt:
		return left < right
	case OpGt:
		return left > right
	case OpLe:
		return left <= right
	case OpGe:
		return left >= right
	default:
		return false
	}
}

// compareStrings compares two strings (case-sensitive)
func compareStrings(left string, op BinaryOp, right string) bool {
	switch op {
	case OpEq:
		return left == right
	case OpNe:
		return left != right
	case OpLt:
		return left < right
	case OpGt:
		return left > right
	case OpLe:
		return left <= right
	case OpGe:
		return left >= right
	default:
		return false
	}
}

// contains tests substring containment for strings and element
// containment for slices
func contains(left, right interface{}) (bool, error) {
	if str, ok := toString(left); ok {
		sub, ok := toString(right)
		if !ok {
			return false, fmt.Errorf("CONTAINS on a string requires a string, got %T", right)
		}
		return strings.Contains(str, sub), nil
	}

	rv := reflect.ValueOf(left)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			match, err := compare(rv.Index(i).Interface(), OpEq, right)
			if err != nil {
				continue
			}
			if match {
				return true, nil
			}
		}
		return false, nil
	}

	return false, fmt.Errorf("CONTAINS requires a string or collection, got %T", left)
}

// like matches a string against a SQL LIKE pattern
func like(left, right interface{}) (bool, error) {
	str, ok := toString(left)
	if !ok {
		return false, fmt.Errorf("LIKE requires a string value, got %T", left)
	}
	pattern, ok := toString(right)
	if !ok {
		return false, fmt.Errorf("LIKE requires a string pattern, got %T", right)
	}
	return matchLikePattern(str, pattern), nil
}

// matches tests a string against a regular expression
func matches(left, right interface{}) (bool, error) {
	str, ok := toString(left)
	if !ok {
		return false, fmt.Errorf("MATCHES requires a string value, got %T", left)
	}
	pattern, ok := toString(right)
	if !ok {
		return false, fmt.Errorf("MATCHES requires a string pattern, got %T", right)
	}
	matched, err := regexp.MatchString(pattern, str)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return matched, nil
}

// matchLikePattern matches a string against a SQL LIKE pattern
// % matches any sequence of characters
// _ matches any single character
func matchLikePattern(str, pattern string) bool {
	segments := strings.Split(pattern, "%")

	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}

		// The final segment must match at the very end unless the
		// pattern ends with %; anchoring it there keeps an earlier
		// occurrence of the same text from consuming it mid-string.
		if i == len(segments)-1 && !strings.HasSuffix(pattern, "%") {
			end := len(str) - len(segment)
			if end < pos || !segmentMatchesAt(str, end, segment) {
				return false
			}
			if i == 0 && !strings.HasPrefix(pattern, "%") && end != 0 {
				return false
			}
			pos = len(str)
			continue
		}

		matchPos := findSegmentMatch(str[pos:], segment)
		if matchPos == -1 {
			return false
		}

		// The first segment must match at the start unless the pattern
		// starts with %
		if i == 0 && !strings.HasPrefix(pattern, "%") && matchPos != 0 {
			return false
		}

		pos += matchPos + len(segment)
	}

	// The last segment must match at the end unless the pattern ends
	// with %
	if !strings.HasSuffix(pattern, "%") && pos != len(str) {
		return false
	}

	return true
}

// segmentMatchesAt reports whether a segment matches str at the given
// byte position, handling the _ wildcard.
func segmentMatchesAt(str string, pos int, segment string) bool {
	if pos < 0 || pos+len(segment) > len(str) {
		return false
	}
	for j := 0; j < len(segment); j++ {
		if segment[j] != '_' && str[pos+j] != segment[j] {
			return false
		}
	}
	return true
}

// findSegmentMatch finds the position where a segment matches in the
// string, handling the _ wildcard. Returns -1 when there is no match.
func findSegmentMatch(str, segment string) int {
	if len(segment) == 0 {
		return 0
	}

	if !strings.Contains(segment, "_") {
		return strings.Index(str, segment)
	}

	for i := 0; i <= len(str)-len(segment); i++ {
		match := true
		for j := 0; j < len(segment); j++ {
			if segment[j] != '_' && str[i+j] != segment[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}

	return -1
}
