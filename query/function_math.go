package query

import (
	"fmt"
	"math"
)

// AbsFunc returns the absolute value of a number
type AbsFunc struct{}

func (f *AbsFunc) Name() string  { return "ABS" }
func (f *AbsFunc) MinArity() int { return 1 }
func (f *AbsFunc) MaxArity() int { return 1 }
func (f *AbsFunc) Evaluate(args []interface{}) (interface{}, error) {
	if i, ok := toInt64(args[0]); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ABS: %w", err)
	}
	return math.Abs(n), nil
}

// RoundFunc rounds a number to the given number of decimal places
// (default 0)
type RoundFunc struct{}

func (f *RoundFunc) Name() string  { return "ROUND" }
func (f *RoundFunc) MinArity() int { return 1 }
func (f *RoundFunc) MaxArity() int { return 2 }
func (f *RoundFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ROUND: %w", err)
	}
	places := 0.0
	if len(args) == 2 {
		places, err = valueToNumber(args[1])
		if err != nil {
			return nil, fmt.Errorf("ROUND: %w", err)
		}
	}
	shift := math.Pow(10, places)
	return math.Round(n*shift) / shift, nil
}

// FloorFunc rounds a number down
type FloorFunc struct{}

func (f *FloorFunc) Name() string  { return "FLOOR" }
func (f *FloorFunc) MinArity() int { return 1 }
func (f *FloorFunc) MaxArity() int { return 1 }
func (f *FloorFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("FLOOR: %w", err)
	}
	return math.Floor(n), nil
}

// CeilFunc rounds a number up
type CeilFunc struct{}

func (f *CeilFunc) Name() string  { return "CEIL" }
func (f *CeilFunc) MinArity() int { return 1 }
func (f *CeilFunc) MaxArity() int { return 1 }
func (f *CeilFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("CEIL: %w", err)
	}
	return math.Ceil(n), nil
}

// SqrtFunc returns the square root of a number
type SqrtFunc struct{}

func (f *SqrtFunc) Name() string  { return "SQRT" }
func (f *SqrtFunc) MinArity() int { return 1 }
func (f *SqrtFunc) MaxArity() int { return 1 }
func (f *SqrtFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("SQRT: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("SQRT: negative argument %v", n)
	}
	return math.Sqrt(n), nil
}

// SignFunc returns -1, 0 or 1 for the sign of a number
type SignFunc struct{}

func (f *SignFunc) Name() string  { return "SIGN" }
func (f *SignFunc) MinArity() int { return 1 }
func (f *SignFunc) MaxArity() int { return 1 }
func (f *SignFunc) Evaluate(args []interface{}) (interface{}, error) {
	n, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("SIGN: %w", err)
	}
	switch {
	case n > 0:
		return int64(1), nil
	case n < 0:
		return int64(-1), nil
	default:
		return int64(0), nil
	}
}

// MinFunc returns the smallest of its arguments
type MinFunc struct{}

func (f *MinFunc) Name() string  { return "MIN" }
func (f *MinFunc) MinArity() int { return 1 }
func (f *MinFunc) MaxArity() int { return -1 }
func (f *MinFunc) Evaluate(args []interface{}) (interface{}, error) {
	result, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("MIN: %w", err)
	}
	for _, arg := range args[1:] {
		n, err := valueToNumber(arg)
		if err != nil {
			return nil, fmt.Errorf("MIN: %w", err)
		}
		if n < result {
			result = n
		}
	}
	return result, nil
}

// MaxFunc returns the largest of its arguments
type MaxFunc struct{}

func (f *MaxFunc) Name() string  { return "MAX" }
func (f *MaxFunc) MinArity() int { return 1 }
func (f *MaxFunc) MaxArity() int { return -1 }
func (f *MaxFunc) Evaluate(args []interface{}) (interface{}, error) {
	result, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("MAX: %w", err)
	}
	for _, arg := range args[1:] {
		n, err := valueToNumber(arg)
		if err != nil {
			return nil, fmt.Errorf("MAX: %w", err)
		}
		if n > result {
			result = n
		}
	}
	return result, nil
}
