package pivot

import (
	"encoding/json"
	"math"
)

// Extractor reads a cell value (number or boolean) from an input record.
// It returns false for an empty (null) value.
type Extractor[R any] interface {
	Extract(rec R) (any, bool)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc[R any] func(rec R) (any, bool)

func (f ExtractorFunc[R]) Extract(rec R) (any, bool) { return f(rec) }

// Cell is a table body value: aggregated source and its formatted form.
type Cell struct {
	Key   string `json:"key"`
	Src   any    `json:"src"`
	Value any    `json:"value"`
}

// MarshalJSON writes NaN and infinite values as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	type cellJSON Cell
	return json.Marshal(cellJSON{Key: c.Key, Src: finite(c.Src), Value: finite(c.Value)})
}

func finite(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// Aggregation is the result of one pass over input records:
// distinct row and column tuples in first seen order and cells by body key.
type Aggregation struct {
	Rows  []Tuple
	Cols  []Tuple
	Cells map[string]Cell
}

// Aggregate selects records matching all dimension filters and aggregates their values.
// Dimensions must be in rows, columns, others order and have key positions set.
func Aggregate[R any](records []R, dims []*Dimension[R], readValue Extractor[R], red Reduction) Aggregation {
	if red == nil {
		red = AsIs
	}
	rowKeyLen, colKeyLen := 0, 0
	for _, p := range dims {
		if p.IsRow {
			rowKeyLen++
		}
		if p.IsCol {
			colKeyLen++
		}
	}

	agg := Aggregation{
		Rows:  []Tuple{},
		Cols:  []Tuple{},
		Cells: map[string]Cell{},
	}
	rKeys := map[string]bool{}
	cKeys := map[string]bool{}
	state := map[string]Accumulator{}

	for _, rec := range records {
		r := make(Tuple, rowKeyLen)
		c := make(Tuple, colKeyLen)
		b := make([]string, rowKeyLen+colKeyLen)
		i, j := 0, 0

		isSel := true
		for _, p := range dims {
			v, ok := p.Read(rec)
			if !ok || !p.Filter(v) {
				isSel = false
				break
			}
			if p.IsRow {
				r[i] = v
				i++
				b[p.keyPos] = ItemString(v)
			}
			if p.IsCol {
				c[j] = v
				j++
				b[p.keyPos] = ItemString(v)
			}
		}
		if !isSel {
			continue // dimension item is not selected
		}

		if rk := TupleKey(r); !rKeys[rk] {
			rKeys[rk] = true
			agg.Rows = append(agg.Rows, r)
		}
		if ck := TupleKey(c); !cKeys[ck] {
			cKeys[ck] = true
			agg.Cols = append(agg.Cols, c)
		}

		if readValue == nil {
			continue
		}
		v, ok := readValue.Extract(rec)
		if !ok || v == nil {
			continue // empty value: row and column still exist
		}

		bkey := bodyKey(b)
		acc, ok := state[bkey]
		if !ok {
			acc = red.Init()
			state[bkey] = acc
		}
		agg.Cells[bkey] = Cell{Key: bkey, Src: acc.Next(v)}
	}
	return agg
}

func bodyKey(items []string) string {
	if len(items) == 0 {
		return ScalarKey
	}
	return ItemsToKey(items)
}
