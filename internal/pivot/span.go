package pivot

import "slices"

// SortTuples orders tuples by dimension comparators, first dimension is the primary key.
func SortTuples(tuples []Tuple, compare []func(a, b any) int) {
	slices.SortStableFunc(tuples, func(left, right Tuple) int {
		for k, c := range compare {
			if v := c(left[k], right[k]); v != 0 {
				return v
			}
		}
		return 0
	})
}

// ItemSpans returns for sorted tuples of keyLen items the span of each header cell:
// spans[i*keyLen+j] is the number of consecutive tuples starting at i which share
// items 0..j, or zero if tuple i does not start a new run at position j.
func ItemSpans(keyLen int, tuples []Tuple) []int {
	if keyLen <= 0 || len(tuples) == 0 {
		return []int{}
	}
	spans := make([]int, len(tuples)*keyLen)
	start := make([]int, keyLen) // run start index at each position

	for i, t := range tuples {
		// first position where item differs from previous tuple
		j := 0
		if i > 0 {
			prev := tuples[i-1]
			for j < keyLen && t[j] == prev[j] {
				j++
			}
		}
		for k := 0; k < j; k++ {
			spans[start[k]*keyLen+k]++
		}
		// new item: new span at this position and all finer positions
		for k := j; k < keyLen; k++ {
			start[k] = i
			spans[i*keyLen+k] = 1
		}
	}
	return spans
}
