package pivot

import (
	"encoding/json"
	"maps"
	"slices"
)

// FormatFunc converts aggregated cell source into display value.
type FormatFunc func(src any) string

// KeyPos is the position of a row or column dimension item inside body key.
type KeyPos struct {
	Name string `json:"name"`
	Pos  int    `json:"pos"`
}

// View is an assembled pivot table.
// It is never modified after assembly, every refresh publishes a new View.
type View struct {
	rows      []Tuple
	cols      []Tuple
	rowKeys   []string
	colKeys   []string
	cells     map[string]Cell
	cellKeys  []string
	labels    map[string]map[any]string
	rowSpans  []int
	colSpans  []int
	rowKeyLen int
	colKeyLen int
	keyPos    []KeyPos
}

// EmptyView returns a table without rows and columns.
func EmptyView() *View {
	return &View{
		rows:     []Tuple{},
		cols:     []Tuple{},
		rowKeys:  []string{},
		colKeys:  []string{},
		cells:    map[string]Cell{},
		cellKeys: []string{},
		labels:   map[string]map[any]string{},
		rowSpans: []int{},
		colSpans: []int{},
		keyPos:   []KeyPos{},
	}
}

// Assemble sorts aggregated rows and columns, calculates header spans,
// cross joins rows and columns into body keys and formats cell values.
func Assemble[R any](agg Aggregation, dims []*Dimension[R], labels map[string]map[any]string, format FormatFunc) *View {
	var rCmp, cCmp []func(a, b any) int
	var nkp []KeyPos
	for _, p := range dims {
		if p.IsRow {
			rCmp = append(rCmp, p.Compare)
			nkp = append(nkp, KeyPos{Name: p.Name, Pos: p.keyPos})
		}
	}
	for _, p := range dims {
		if p.IsCol {
			cCmp = append(cCmp, p.Compare)
			nkp = append(nkp, KeyPos{Name: p.Name, Pos: p.keyPos})
		}
	}
	rowKeyLen, colKeyLen := len(rCmp), len(cCmp)

	v := EmptyView()
	v.rowKeyLen = rowKeyLen
	v.colKeyLen = colKeyLen
	if labels != nil {
		v.labels = labels
	}
	if nkp != nil {
		v.keyPos = nkp
	}
	if len(agg.Rows) == 0 || len(agg.Cols) == 0 {
		return v
	}

	v.rows = slices.Clone(agg.Rows)
	v.cols = slices.Clone(agg.Cols)
	SortTuples(v.rows, rCmp)
	SortTuples(v.cols, cCmp)
	v.rowSpans = ItemSpans(rowKeyLen, v.rows)
	v.colSpans = ItemSpans(colKeyLen, v.cols)

	v.rowKeys = make([]string, len(v.rows))
	for i, r := range v.rows {
		v.rowKeys[i] = TupleKey(r)
	}
	v.colKeys = make([]string, len(v.cols))
	for j, c := range v.cols {
		v.colKeys[j] = TupleKey(c)
	}

	b := make([]string, rowKeyLen+colKeyLen)
	v.cellKeys = make([]string, 0, len(v.rows)*len(v.cols))
	for _, r := range v.rows {
		for k := 0; k < rowKeyLen; k++ {
			b[nkp[k].Pos] = ItemString(r[k])
		}
		for _, c := range v.cols {
			for k := 0; k < colKeyLen; k++ {
				b[nkp[rowKeyLen+k].Pos] = ItemString(c[k])
			}
			v.cellKeys = append(v.cellKeys, bodyKey(b))
		}
	}

	v.cells = formatCells(agg.Cells, format)
	return v
}

func formatCells(src map[string]Cell, format FormatFunc) map[string]Cell {
	cells := make(map[string]Cell, len(src))
	for bkey, c := range src {
		c.Value = c.Src
		if format != nil && c.Src != nil {
			c.Value = format(c.Src)
		}
		cells[bkey] = c
	}
	return cells
}

// withLabels returns a copy of the view with new item labels.
func (v *View) withLabels(labels map[string]map[any]string) *View {
	nv := *v
	nv.labels = labels
	return &nv
}

// withFormat returns a copy of the view with cell values formatted again.
func (v *View) withFormat(format FormatFunc) *View {
	nv := *v
	nv.cells = formatCells(v.cells, format)
	return &nv
}

func (v *View) RowCount() int { return len(v.rows) }
func (v *View) ColCount() int { return len(v.cols) }

// RowKeyLen is the number of row dimensions.
func (v *View) RowKeyLen() int { return v.rowKeyLen }

// ColKeyLen is the number of column dimensions.
func (v *View) ColKeyLen() int { return v.colKeyLen }

// Row returns items of row i.
func (v *View) Row(i int) Tuple { return slices.Clone(v.rows[i]) }

// Col returns items of column j.
func (v *View) Col(j int) Tuple { return slices.Clone(v.cols[j]) }

func (v *View) RowKey(i int) string { return v.rowKeys[i] }
func (v *View) ColKey(j int) string { return v.colKeys[j] }

// RowKeys returns row keys in display order.
func (v *View) RowKeys() []string { return slices.Clone(v.rowKeys) }

// ColKeys returns column keys in display order.
func (v *View) ColKeys() []string { return slices.Clone(v.colKeys) }

// CellKeys returns body keys ordered by row, then by column.
func (v *View) CellKeys() []string { return slices.Clone(v.cellKeys) }

// CellKey returns body key of row i and column j.
func (v *View) CellKey(i, j int) string { return v.cellKeys[i*len(v.cols)+j] }

// Cell returns the cell by body key, false means there is no data for that key.
func (v *View) Cell(key string) (Cell, bool) {
	c, ok := v.cells[key]
	return c, ok
}

// CellAt returns the cell at row i and column j.
func (v *View) CellAt(i, j int) (Cell, bool) { return v.Cell(v.CellKey(i, j)) }

// CellCount is the number of body cells which have data.
func (v *View) CellCount() int { return len(v.cells) }

// Cells returns a copy of all cells with data.
func (v *View) Cells() map[string]Cell { return maps.Clone(v.cells) }

// Label returns enum label by dimension name and item, or empty string if unknown.
func (v *View) Label(dim string, item any) string {
	if ls, ok := v.labels[dim]; ok {
		return ls[item]
	}
	return ""
}

// RowSpan is the span of the header cell of row i at row dimension j, zero if it is not a run start.
func (v *View) RowSpan(i, j int) int { return spanAt(v.rowSpans, v.rowKeyLen, i, j) }

// ColSpan is the span of the header cell of column i at column dimension j.
func (v *View) ColSpan(i, j int) int { return spanAt(v.colSpans, v.colKeyLen, i, j) }

func spanAt(spans []int, keyLen, i, j int) int {
	n := i*keyLen + j
	if j < 0 || j >= keyLen || n < 0 || n >= len(spans) {
		return 0
	}
	return spans[n]
}

// KeyPos returns body key positions of row dimensions followed by column dimensions.
func (v *View) KeyPos() []KeyPos { return slices.Clone(v.keyPos) }

type viewJSON struct {
	RowCount int                          `json:"rowCount"`
	ColCount int                          `json:"colCount"`
	Rows     [][]string                   `json:"rows"`
	Cols     [][]string                   `json:"cols"`
	RowKeys  []string                     `json:"rowKeys"`
	ColKeys  []string                     `json:"colKeys"`
	Cells    map[string]Cell              `json:"cells"`
	CellKeys []string                     `json:"cellKeys"`
	Labels   map[string]map[string]string `json:"labels"`
	RowSpans []int                        `json:"rowSpans"`
	ColSpans []int                        `json:"colSpans"`
	KeyPos   []KeyPos                     `json:"keyPos"`
}

// MarshalJSON writes the view with items in their key string form.
func (v *View) MarshalJSON() ([]byte, error) {
	toItems := func(ts []Tuple) [][]string {
		dst := make([][]string, len(ts))
		for n, t := range ts {
			dst[n] = make([]string, len(t))
			for k, it := range t {
				dst[n][k] = ItemString(it)
			}
		}
		return dst
	}
	labels := make(map[string]map[string]string, len(v.labels))
	for dim, ls := range v.labels {
		m := make(map[string]string, len(ls))
		for it, txt := range ls {
			m[ItemString(it)] = txt
		}
		labels[dim] = m
	}

	return json.Marshal(viewJSON{
		RowCount: len(v.rows),
		ColCount: len(v.cols),
		Rows:     toItems(v.rows),
		Cols:     toItems(v.cols),
		RowKeys:  v.rowKeys,
		ColKeys:  v.colKeys,
		Cells:    v.cells,
		CellKeys: v.cellKeys,
		Labels:   labels,
		RowSpans: v.rowSpans,
		ColSpans: v.colSpans,
		KeyPos:   v.keyPos,
	})
}
