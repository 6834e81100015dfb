package pivot

import (
	"cmp"
	"strings"
)

// Enum is one dimension item: enum value (id or code) and display text.
type Enum struct {
	Value any    `json:"value"`
	Text  string `json:"text"`
}

// Tuple holds one enum value per row (or column) dimension in declared order.
type Tuple []any

// Projector reads a dimension item from an input record.
// It returns false if the record has no value for the dimension.
type Projector[R any] interface {
	Project(rec R) (any, bool)
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc[R any] func(rec R) (any, bool)

func (f ProjectorFunc[R]) Project(rec R) (any, bool) { return f(rec) }

// Field describes a dimension placed on rows, columns or other (filter only).
// Enum and selection values must be comparable; Enums order is the display order.
type Field[R any] struct {
	Name      string
	Label     string
	Read      Projector[R]
	Selection []any
	Enums     []Enum
}

// Dimension is a per refresh record selector of one field:
// it filters items by selection and compares them in enum order.
type Dimension[R any] struct {
	Name  string
	IsRow bool
	IsCol bool

	keyPos   int
	read     Projector[R]
	selected map[any]struct{}
	order    map[any]int
}

// NewDimension builds a selector from field selection and enums.
// isRow and isCol both false make an "other" dimension which only filters records.
func NewDimension[R any](f Field[R], isRow, isCol bool) *Dimension[R] {
	d := &Dimension[R]{
		Name:     f.Name,
		IsRow:    isRow,
		IsCol:    isCol,
		read:     f.Read,
		selected: make(map[any]struct{}, len(f.Selection)),
		order:    make(map[any]int, len(f.Enums)),
	}
	for _, v := range f.Selection {
		d.selected[v] = struct{}{}
	}
	for k, e := range f.Enums {
		if _, ok := d.order[e.Value]; !ok {
			d.order[e.Value] = k
		}
	}
	return d
}

// KeyPos is the dimension position in a body key: its index among
// row and column dimensions sorted by name.
func (d *Dimension[R]) KeyPos() int { return d.keyPos }

func (d *Dimension[R]) isKey() bool { return d.IsRow || d.IsCol }

// Read projects the dimension item from a record.
func (d *Dimension[R]) Read(rec R) (any, bool) {
	if d.read == nil {
		return nil, false
	}
	return d.read.Project(rec)
}

// Filter returns true if v is selected.
// Empty selection means nothing is selected, not "select all".
func (d *Dimension[R]) Filter(v any) bool {
	_, ok := d.selected[v]
	return ok
}

// Compare orders items by enum position; items not in enums go last,
// in natural order between themselves.
func (d *Dimension[R]) Compare(a, b any) int {
	nA, okA := d.order[a]
	nB, okB := d.order[b]
	switch {
	case okA && okB:
		return cmp.Compare(nA, nB)
	case okA:
		return -1
	case okB:
		return 1
	}
	return compareNatural(a, b)
}

// setKeyPos counts for each row or column dimension how many other key dimension names are smaller.
func setKeyPos[R any](dims []*Dimension[R]) {
	for _, p := range dims {
		if !p.isKey() {
			continue
		}
		p.keyPos = 0
		for _, rp := range dims {
			if rp.isKey() && p.Name > rp.Name {
				p.keyPos++
			}
		}
	}
}

func compareNatural(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	return strings.Compare(ItemString(a), ItemString(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
