package pivot

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// RefreshKind is one of table refresh triggers.
type RefreshKind int

const (
	RefreshFull   RefreshKind = iota // aggregate input records again
	RefreshLabels                    // rebuild enum labels only
	RefreshValues                    // format cell values again
)

func (k RefreshKind) String() string {
	switch k {
	case RefreshFull:
		return "full"
	case RefreshLabels:
		return "labels"
	case RefreshValues:
		return "values"
	}
	return "unknown"
}

// Observer is notified after each refresh pass.
type Observer interface {
	Observe(kind RefreshKind, elapsed time.Duration, v *View)
}

// Size is table size summary used to size value editors.
type Size struct {
	RowCount int      `json:"rowCount"`
	ColCount int      `json:"colCount"`
	ValueLen int      `json:"valueLen"` // max length of cell value as string
	KeyPos   []KeyPos `json:"keyPos"`
}

// Layout places dimension fields on rows, columns and others (filters).
type Layout[R any] struct {
	Rows   []Field[R]
	Cols   []Field[R]
	Others []Field[R]
}

// Options are per table value accessors and callbacks.
type Options[R any] struct {
	ReadValue        Extractor[R]
	Reduction        Reduction  // AsIs if nil
	Format           FormatFunc // cell value is cell source if nil
	OnSize           func(Size) // called after full refresh if edit is enabled
	Observer         Observer
	IsRowColControls bool
	RowColMode       int // zero means default mode 2: use spans and show dimension names
}

// Tickles are refresh trigger flags, a refresh happens when flag value changes.
type Tickles struct {
	Full   bool `json:"full"`
	Dims   bool `json:"dims"`
	Values bool `json:"values"`
}

// Table is a live pivot table. All refreshes are serialized
// and each one publishes a new View, readers never see a partial update.
type Table[R any] struct {
	mu      sync.Mutex
	layout  Layout[R]
	records []R
	opts    Options[R]
	edit    *Edit
	tickles Tickles

	view atomic.Pointer[View]
}

// NewTable makes a table with labels built from layout and no data.
func NewTable[R any](layout Layout[R], opts Options[R]) *Table[R] {
	if opts.RowColMode == 0 {
		opts.RowColMode = 2
	}
	t := &Table[R]{layout: layout.clone(), opts: opts, edit: NewEdit()}
	t.view.Store(EmptyView().withLabels(makeLabels(layout)))
	return t
}

// View returns the current published view.
func (t *Table[R]) View() *View { return t.view.Load() }

// SetData replaces input records, aggregates them and discards all edits.
func (t *Table[R]) SetData(records []R) *View {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = records
	return t.refreshFull()
}

// SetLayout replaces dimension fields, rebuilds labels and aggregates current records.
func (t *Table[R]) SetLayout(layout Layout[R]) *View {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.layout = layout.clone()
	t.publish(RefreshLabels, time.Now(), t.View().withLabels(makeLabels(layout)))
	return t.refreshFull()
}

// Layout returns a copy of current dimension fields.
func (t *Table[R]) Layout() Layout[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layout.clone()
}

func (l Layout[R]) clone() Layout[R] {
	return Layout[R]{
		Rows:   slices.Clone(l.Rows),
		Cols:   slices.Clone(l.Cols),
		Others: slices.Clone(l.Others),
	}
}

// SetEnums replaces enums of the named dimension. New labels are visible after RefreshLabels
// and new order after next full refresh. It returns false if there is no such dimension.
func (t *Table[R]) SetEnums(name string, enums []Enum) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	isFound := false
	for _, fields := range [][]Field[R]{t.layout.Rows, t.layout.Cols, t.layout.Others} {
		for k := range fields {
			if fields[k].Name == name {
				fields[k].Enums = slices.Clone(enums)
				isFound = true
			}
		}
	}
	return isFound
}

// Refresh aggregates current records again.
func (t *Table[R]) Refresh() *View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshFull()
}

// RefreshLabels rebuilds enum labels from current fields, cells are not changed.
func (t *Table[R]) RefreshLabels() *View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := t.View().withLabels(makeLabels(t.layout))
	t.publish(RefreshLabels, time.Now(), v)
	return v
}

// SetFormat replaces value formatter and formats cells again.
func (t *Table[R]) SetFormat(format FormatFunc) *View {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.opts.Format = format
	return t.refreshValues()
}

// RefreshValues formats cell values again without aggregation.
func (t *Table[R]) RefreshValues() *View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshValues()
}

// Sync fires refreshes for each trigger flag which changed since last call.
func (t *Table[R]) Sync(next Tickles) *View {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.tickles
	t.tickles = next
	if next.Dims != prev.Dims {
		t.publish(RefreshLabels, time.Now(), t.View().withLabels(makeLabels(t.layout)))
	}
	if next.Full != prev.Full {
		t.refreshFull()
	}
	if next.Values != prev.Values {
		t.refreshValues()
	}
	return t.View()
}

// SetEdit turns cell editing on with editor kind and enum values, or off.
func (t *Table[R]) SetEdit(isEnabled bool, kind EditKind, enums []Enum) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isEnabled {
		t.edit.Disable()
		return
	}
	t.edit.Enable(kind, enums)
}

// WithEdit runs fn with exclusive access to editor state and current view.
func (t *Table[R]) WithEdit(fn func(e *Edit, v *View) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.edit, t.View())
}

func (t *Table[R]) refreshFull() *View {
	start := time.Now()

	dims := make([]*Dimension[R], 0, len(t.layout.Rows)+len(t.layout.Cols)+len(t.layout.Others))
	for _, f := range t.layout.Rows {
		dims = append(dims, NewDimension(f, true, false))
	}
	for _, f := range t.layout.Cols {
		dims = append(dims, NewDimension(f, false, true))
	}
	for _, f := range t.layout.Others {
		dims = append(dims, NewDimension(f, false, false))
	}
	setKeyPos(dims)

	agg := Aggregate(t.records, dims, t.opts.ReadValue, t.opts.Reduction)
	v := Assemble(agg, dims, t.View().labels, t.opts.Format)

	// edits refer to cell keys of previous data
	t.edit.Reset()
	t.publish(RefreshFull, start, v)

	if t.edit.IsEnabled && t.opts.OnSize != nil {
		t.opts.OnSize(Size{
			RowCount: v.RowCount(),
			ColCount: v.ColCount(),
			ValueLen: valueLen(v),
			KeyPos:   v.KeyPos(),
		})
	}
	return v
}

func (t *Table[R]) refreshValues() *View {
	start := time.Now()
	v := t.View().withFormat(t.opts.Format)
	t.publish(RefreshValues, start, v)
	return v
}

func (t *Table[R]) publish(kind RefreshKind, start time.Time, v *View) {
	t.view.Store(v)
	if t.opts.Observer != nil {
		t.opts.Observer.Observe(kind, time.Since(start), v)
	}
}

func valueLen(v *View) int {
	n := 0
	for _, c := range v.cells {
		if c.Src == nil {
			continue
		}
		if k := len(ItemString(c.Src)); k > n {
			n = k
		}
	}
	return n
}

func makeLabels[R any](layout Layout[R]) map[string]map[any]string {
	labels := map[string]map[any]string{}
	for _, fields := range [][]Field[R]{layout.Rows, layout.Cols, layout.Others} {
		for _, f := range fields {
			ls := make(map[any]string, len(f.Enums))
			for _, e := range f.Enums {
				ls[e.Value] = e.Text
			}
			labels[f.Name] = ls
		}
	}
	return labels
}

// StateField is a dimension name and its selected items.
type StateField struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// State is the pivot table state: selected items of row, column and other dimensions,
// display mode and editor state.
type State struct {
	Rows             []StateField `json:"rows"`
	Cols             []StateField `json:"cols"`
	Others           []StateField `json:"others"`
	IsRowColControls bool         `json:"isRowColControls"`
	RowColMode       int          `json:"rowColMode"`
	Edit             *Edit        `json:"edit"`
}

// State returns a snapshot of the table state.
func (t *Table[R]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return State{
		Rows:             stateFields(t.layout.Rows),
		Cols:             stateFields(t.layout.Cols),
		Others:           stateFields(t.layout.Others),
		IsRowColControls: t.opts.IsRowColControls,
		RowColMode:       t.opts.RowColMode,
		Edit:             t.edit.Clone(),
	}
}

func stateFields[R any](fields []Field[R]) []StateField {
	dst := make([]StateField, 0, len(fields))
	for _, f := range fields {
		p := StateField{Name: f.Name, Values: make([]any, len(f.Selection))}
		copy(p.Values, f.Selection)
		dst = append(dst, p)
	}
	return dst
}
