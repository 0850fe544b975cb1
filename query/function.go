package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Function represents a scalar function callable from query
// expressions
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments (-1 for variadic with no minimum)
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []interface{}) (interface{}, error)
}

// FunctionRegistry manages function lookup and registration. A
// registry can be attached to a statement with WithFunctions to extend
// the built-in set; lookups fall back to the built-ins.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function
func (r *FunctionRegistry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// globalRegistry holds the built-in functions
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// String functions
	globalRegistry.Register(&UpperFunc{})
	globalRegistry.Register(&LowerFunc{})
	globalRegistry.Register(&ConcatFunc{})
	globalRegistry.Register(&LengthFunc{})
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&ReplaceFunc{})
	globalRegistry.Register(&ReverseFunc{})

	// Math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&CeilFunc{})
	globalRegistry.Register(&SqrtFunc{})
	globalRegistry.Register(&SignFunc{})
	globalRegistry.Register(&MinFunc{})
	globalRegistry.Register(&MaxFunc{})

	// Conversion and conditional functions
	globalRegistry.Register(&StrFunc{})
	globalRegistry.Register(&NumFunc{})
	globalRegistry.Register(&CoalesceFunc{})
	globalRegistry.Register(&NullIfFunc{})
	globalRegistry.Register(&UUIDFunc{})
}

// GetGlobalRegistry returns the built-in function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// valueToString converts a function argument to a string
func valueToString(v interface{}) (string, error) {
	if v == nil {
		return "", fmt.Errorf("expected string, got NULL")
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

// valueToNumber converts a function argument to a float64
func valueToNumber(v interface{}) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("expected number, got NULL")
	}
	if n, ok := toFloat64(v); ok {
		return n, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

// StrFunc converts any value to its string form
type StrFunc struct{}

func (f *StrFunc) Name() string  { return "STR" }
func (f *StrFunc) MinArity() int { return 1 }
func (f *StrFunc) MaxArity() int { return 1 }
func (f *StrFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil {
		return "", nil
	}
	if s, ok := args[0].(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", args[0]), nil
}

// NumFunc converts a string or number to a float64
type NumFunc struct{}

func (f *NumFunc) Name() string  { return "NUM" }
func (f *NumFunc) MinArity() int { return 1 }
func (f *NumFunc) MaxArity() int { return 1 }
func (f *NumFunc) Evaluate(args []interface{}) (interface{}, error) {
	if n, ok := toFloat64(args[0]); ok {
		return n, nil
	}
	if s, ok := args[0].(string); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("NUM: cannot convert %q to a number", s)
		}
		return n, nil
	}
	return nil, fmt.Errorf("NUM: cannot convert %T to a number", args[0])
}

// CoalesceFunc returns the first non-NULL argument
type CoalesceFunc struct{}

func (f *CoalesceFunc) Name() string  { return "COALESCE" }
func (f *CoalesceFunc) MinArity() int { return 1 }
func (f *CoalesceFunc) MaxArity() int { return -1 }
func (f *CoalesceFunc) Evaluate(args []interface{}) (interface{}, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}
	return nil, nil
}

// NullIfFunc returns NULL when both arguments are equal, otherwise the
// first argument
type NullIfFunc struct{}

func (f *NullIfFunc) Name() string  { return "NULLIF" }
func (f *NullIfFunc) MinArity() int { return 2 }
func (f *NullIfFunc) MaxArity() int { return 2 }
func (f *NullIfFunc) Evaluate(args []interface{}) (interface{}, error) {
	equal, err := compare(args[0], OpEq, args[1])
	if err != nil {
		return nil, err
	}
	if equal {
		return nil, nil
	}
	return args[0], nil
}

// UUIDFunc generates a random UUID string
type UUIDFunc struct{}

func (f *UUIDFunc) Name() string  { return "UUID" }
func (f *UUIDFunc) MinArity() int { return 0 }
func (f *UUIDFunc) MaxArity() int { return 0 }
func (f *UUIDFunc) Evaluate(args []interface{}) (interface{}, error) {
	return uuid.NewString(), nil
}
