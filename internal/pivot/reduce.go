package pivot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownReduction is returned for a reduction name which is not supported.
var ErrUnknownReduction = errors.New("unknown reduction")

// Accumulator folds cell values which fall into the same body key.
// Next returns the value to store as cell source.
type Accumulator interface {
	Next(v any) any
}

// Reduction creates a fresh accumulator for each body key.
type Reduction interface {
	Init() Accumulator
}

// AccumulatorFunc adapts a function to Accumulator.
type AccumulatorFunc func(v any) any

func (f AccumulatorFunc) Next(v any) any { return f(v) }

// ReductionFunc adapts a function to Reduction.
type ReductionFunc func() Accumulator

func (f ReductionFunc) Init() Accumulator { return f() }

// AsIs does no aggregation: cell source is the last value.
var AsIs Reduction = ReductionFunc(func() Accumulator {
	return AccumulatorFunc(func(v any) any { return v })
})

// Sum adds numeric values; values which are not numbers are ignored.
var Sum Reduction = ReductionFunc(func() Accumulator {
	var sum float64
	var n int
	return AccumulatorFunc(func(v any) any {
		if f, ok := ToNumber(v); ok {
			sum += f
			n++
		}
		if n == 0 {
			return nil
		}
		return sum
	})
})

// Count is the number of values.
var Count Reduction = ReductionFunc(func() Accumulator {
	var n int
	return AccumulatorFunc(func(any) any {
		n++
		return n
	})
})

// Avg is the mean of numeric values.
var Avg Reduction = ReductionFunc(func() Accumulator {
	var sum float64
	var n int
	return AccumulatorFunc(func(v any) any {
		if f, ok := ToNumber(v); ok {
			sum += f
			n++
		}
		if n == 0 {
			return nil
		}
		return sum / float64(n)
	})
})

// Min is the smallest numeric value.
var Min Reduction = extremum(func(x, m float64) bool { return x < m })

// Max is the largest numeric value.
var Max Reduction = extremum(func(x, m float64) bool { return x > m })

func extremum(better func(x, m float64) bool) Reduction {
	return ReductionFunc(func() Accumulator {
		var m float64
		var isSet bool
		return AccumulatorFunc(func(v any) any {
			if f, ok := ToNumber(v); ok && (!isSet || better(f, m)) {
				m = f
				isSet = true
			}
			if !isSet {
				return nil
			}
			return m
		})
	})
}

// ReductionByName returns a reduction by its name: as-is (or empty), sum, count, avg, min, max.
func ReductionByName(name string) (Reduction, error) {
	switch strings.ToLower(name) {
	case "", "as-is", "asis":
		return AsIs, nil
	case "sum":
		return Sum, nil
	case "count":
		return Count, nil
	case "avg", "mean":
		return Avg, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReduction, name)
}

// ToNumber converts a cell value to float64, booleans count as 1 or 0.
func ToNumber(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
