package query

import (
	"errors"
	"reflect"
	"testing"
)

func users() []interface{} {
	return []interface{}{
		map[string]interface{}{"name": "alice", "age": 30, "dept": "eng"},
		map[string]interface{}{"name": "bob", "age": 25, "dept": "ops"},
		map[string]interface{}{"name": "carol", "age": 35, "dept": "eng"},
		map[string]interface{}{"name": "dave", "age": 25, "dept": "ops"},
	}
}

func TestExec_Filter(t *testing.T) {
	stmt, err := Parse("SELECT o.name WHERE o.age > 26")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(users())
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{"alice", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_PreservesInputOrder(t *testing.T) {
	stmt := Select(O.Attr("name"))

	got, err := stmt.Exec(users())
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{"alice", "bob", "carol", "dave"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_ResultShapes(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"name": "alice", "age": 30},
	}

	t.Run("single unaliased projection yields bare values", func(t *testing.T) {
		got, err := Select(O.Attr("name")).Exec(records)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		if !reflect.DeepEqual(got, []interface{}{"alice"}) {
			t.Errorf("Exec() = %v, want bare values", got)
		}
	})

	t.Run("multiple projections yield tuples", func(t *testing.T) {
		got, err := Select(O.Attr("name"), O.Attr("age")).Exec(records)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		want := []interface{}{[]interface{}{"alice", 30}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Exec() = %v, want %v", got, want)
		}
	})

	t.Run("single aliased projection yields tuples", func(t *testing.T) {
		got, err := Select(O.Attr("name").As("who")).Exec(records)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		want := []interface{}{[]interface{}{"alice"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Exec() = %v, want %v", got, want)
		}
	})

	t.Run("empty select yields the records", func(t *testing.T) {
		got, err := Select().Exec(records)
		if err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		if !reflect.DeepEqual(got, records) {
			t.Errorf("Exec() = %v, want the input records", got)
		}
	})
}

func TestExec_Distinct(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"dept": "eng"},
		map[string]interface{}{"dept": "ops"},
		map[string]interface{}{"dept": "eng"},
		map[string]interface{}{"dept": "ops"},
	}

	stmt, err := Parse("SELECT DISTINCT o.dept")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{"eng", "ops"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want first-seen order %v", got, want)
	}

	// Distinct output is already unique; running again changes nothing.
	again, err := stmt.Exec(append([]interface{}{}, records...))
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !reflect.DeepEqual(again, got) {
		t.Errorf("Exec() is not stable: %v vs %v", again, got)
	}
}

func TestExec_DistinctCollapsesNumericSpellings(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"n": int64(1)},
		map[string]interface{}{"n": 1.0},
		map[string]interface{}{"n": 2.5},
	}

	got, err := Select(O.Attr("n")).Distinct().Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Exec() = %v, want 1 and 2.5 only", got)
	}
}

func TestExec_GroupBy(t *testing.T) {
	stmt, err := Parse("SELECT o.name GROUP BY o.dept")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(users())
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	// First-seen record represents each group, in group appearance order.
	want := []interface{}{"alice", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_GroupByMultipleKeys(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"dept": "eng", "city": "oslo", "name": "a"},
		map[string]interface{}{"dept": "eng", "city": "bergen", "name": "b"},
		map[string]interface{}{"dept": "eng", "city": "oslo", "name": "c"},
	}

	got, err := Select(O.Attr("name")).GroupBy(O.Attr("dept"), O.Attr("city")).Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_StagesCompose(t *testing.T) {
	// Filter runs before grouping, projection before distinct.
	stmt, err := Parse("SELECT DISTINCT o.dept WHERE o.age >= 25 GROUP BY o.name")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(users())
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{"eng", "ops"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_Returning(t *testing.T) {
	stmt, err := Parse("SELECT o.name, o.age AS years RETURNING map")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(users()[:1])
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{
		map[string]interface{}{"name": "alice", "years": 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_RegisteredReturning(t *testing.T) {
	RegisterReturning("pairlist", func(columns []string, values []interface{}) interface{} {
		pairs := make([][2]interface{}, len(columns))
		for i, col := range columns {
			pairs[i] = [2]interface{}{col, values[i]}
		}
		return pairs
	})

	stmt, err := Parse("SELECT o.name RETURNING pairlist")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(users()[:1])
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{[][2]interface{}{{"name", "alice"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_ReturningIsCaseInsensitive(t *testing.T) {
	if _, err := Parse("SELECT o.name RETURNING MAP"); err != nil {
		t.Errorf("Parse() error = %v", err)
	}
}

func TestExec_UndefinedView(t *testing.T) {
	stmt := Select(O.Attr("name")).Returning("nosuchview")
	_, err := stmt.Exec(users())
	if err == nil {
		t.Fatal("Exec() expected error for undefined view")
	}

	// Builder-side view names are only checked at Exec, but the failure
	// is still typed so callers can branch on the error kind.
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Exec() error = %T, want *EvalError", err)
	}
	if evalErr.Record != -1 {
		t.Errorf("Record = %d, want -1", evalErr.Record)
	}
	if evalErr.Expr != nil {
		t.Errorf("Expr = %v, want nil", evalErr.Expr)
	}
	if want := `undefined return view "nosuchview"`; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestExec_ErrorCarriesRecordIndex(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"age": 30},
		map[string]interface{}{"age": 25},
		map[string]interface{}{"other": 1},
	}

	stmt := Select().Where(O.Attr("age").Gt(26))
	_, err := stmt.Exec(records)
	if err == nil {
		t.Fatal("Exec() expected error for missing attribute")
	}

	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Exec() error = %T, want *EvalError", err)
	}
	if evalErr.Record != 2 {
		t.Errorf("EvalError.Record = %d, want 2", evalErr.Record)
	}
}

func TestExec_ProjectionErrorCarriesOriginalIndex(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"age": 30, "name": "alice"},
		map[string]interface{}{"age": 20, "name": "bob"},
		map[string]interface{}{"age": 40},
	}

	// Record 1 is filtered out; the projection failure on the last
	// record must still report index 2, not its post-filter position.
	stmt := Select(O.Attr("name")).Where(O.Attr("age").Gt(25))
	_, err := stmt.Exec(records)

	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Exec() error = %T, want *EvalError", err)
	}
	if evalErr.Record != 2 {
		t.Errorf("EvalError.Record = %d, want 2", evalErr.Record)
	}
}

func TestExec_NonBoolPredicate(t *testing.T) {
	stmt := Select().Where(O.Attr("age"))
	_, err := stmt.Exec(users())
	if err == nil {
		t.Fatal("Exec() expected error for non-boolean predicate")
	}

	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Exec() error = %T, want *EvalError", err)
	}
	if evalErr.Record != 0 {
		t.Errorf("EvalError.Record = %d, want 0", evalErr.Record)
	}
}

func TestExec_EmptyCollection(t *testing.T) {
	stmt := Select(O.Attr("name")).Where(O.Attr("age").Gt(0)).Distinct()
	got, err := stmt.Exec(nil)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Exec() = %v, want empty", got)
	}
}

func TestExec_DoesNotMutateRecords(t *testing.T) {
	records := users()
	snapshot := users()

	if _, err := Select(O.Attr("name")).Where(O.Attr("age").Gt(26)).Exec(records); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Error("Exec() mutated the input collection")
	}
}

type doubleFunc struct{}

func (f *doubleFunc) Name() string  { return "DOUBLE" }
func (f *doubleFunc) MinArity() int { return 1 }
func (f *doubleFunc) MaxArity() int { return 1 }
func (f *doubleFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, err
	}
	return n * 2, nil
}

func TestExec_WithFunctions(t *testing.T) {
	reg := NewFunctionRegistry()
	reg.Register(&doubleFunc{})

	records := []interface{}{map[string]interface{}{"n": 21}}

	stmt := Select(Func("double", O.Attr("n"))).WithFunctions(reg)
	got, err := stmt.Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !reflect.DeepEqual(got, []interface{}{42.0}) {
		t.Errorf("Exec() = %v, want [42]", got)
	}

	// Built-ins remain available alongside the custom registry.
	stmt = Select(Func("upper", O.Attr("s"))).WithFunctions(reg)
	got, err = stmt.Exec([]interface{}{map[string]interface{}{"s": "hi"}})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if !reflect.DeepEqual(got, []interface{}{"HI"}) {
		t.Errorf("Exec() = %v, want [HI]", got)
	}
}

func TestExec_SelectRecordWhereFieldsEqual(t *testing.T) {
	pair := func(x, y int) interface{} {
		return map[string]interface{}{"x": x, "y": y}
	}
	records := []interface{}{pair(0, 0), pair(1, 2), pair(2, 2), pair(3, 3)}

	stmt, err := Parse("SELECT o WHERE o.x = o.y")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{pair(0, 0), pair(2, 2), pair(3, 3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_DistinctProjectedValue(t *testing.T) {
	pair := func(x, y int) interface{} {
		return map[string]interface{}{"x": x, "y": y}
	}
	records := []interface{}{pair(1, 5), pair(1, 7), pair(2, 5)}

	stmt, err := Parse("SELECT DISTINCT o.x")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_InListWithTrailingComma(t *testing.T) {
	records := []interface{}{
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
		map[string]interface{}{"x": 3},
	}

	stmt, err := Parse("SELECT o.x WHERE o.x IN (1,2,)")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := stmt.Exec(records)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	want := []interface{}{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exec() = %v, want %v", got, want)
	}
}

func TestExec_SameStatementDifferentCollections(t *testing.T) {
	stmt := Select(O.Attr("name")).Where(O.Attr("age").Gt(26))

	first, err := stmt.Exec(users())
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	second, err := stmt.Exec([]interface{}{
		map[string]interface{}{"name": "erin", "age": 50},
	})
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	if !reflect.DeepEqual(first, []interface{}{"alice", "carol"}) {
		t.Errorf("first Exec() = %v", first)
	}
	if !reflect.DeepEqual(second, []interface{}{"erin"}) {
		t.Errorf("second Exec() = %v", second)
	}
}
