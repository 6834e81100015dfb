package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pivotsvc/internal/pivot"
)

// Dataset is output table data with its current pivot layout and live table.
// A new store or layout builds a new table: item IDs and fields do not survive either change.
type Dataset struct {
	mu     sync.RWMutex
	store  *ColumnStore
	layout *Layout
	table  *pivot.Table[Record]
	base   pivot.Options[Record]
}

// NewDataset builds pivot table of store using layout, or DefaultLayout if layout is nil.
// Observer, OnSize and display options are taken from base.
func NewDataset(store *ColumnStore, layout *Layout, base pivot.Options[Record]) (*Dataset, error) {
	if layout == nil {
		layout = DefaultLayout(store)
	}
	t, err := NewTable(store, layout, base)
	if err != nil {
		return nil, err
	}
	return &Dataset{store: store, layout: layout, table: t, base: base}, nil
}

// NewTable makes pivot table of store records.
func NewTable(store *ColumnStore, l *Layout, base pivot.Options[Record]) (*pivot.Table[Record], error) {
	fields, err := Fields(store, l)
	if err != nil {
		return nil, err
	}
	red, err := pivot.ReductionByName(l.Reduction)
	if err != nil {
		return nil, err
	}
	kind, err := pivot.ParseEditKind(l.Edit.Kind)
	if err != nil {
		return nil, err
	}

	opts := base
	opts.ReadValue = ReadValue
	opts.Reduction = red
	opts.Format = formatOf(l)

	enums := make([]pivot.Enum, len(l.Edit.Enums))
	for k, s := range l.Edit.Enums {
		enums[k] = pivot.Enum{Value: s, Text: s}
	}
	t := pivot.NewTable(fields, opts)
	t.SetEdit(l.Edit.Enabled, kind, enums)
	t.SetData(store.Records())
	return t, nil
}

// Table returns current pivot table.
func (d *Dataset) Table() *pivot.Table[Record] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table
}

// Store returns current data.
func (d *Dataset) Store() *ColumnStore {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store
}

// Layout returns current layout.
func (d *Dataset) Layout() *Layout {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.layout
}

// SetLayout replaces pivot layout, on error current table is kept.
func (d *Dataset) SetLayout(l *Layout) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := NewTable(d.store, l, d.base)
	if err != nil {
		return fmt.Errorf("set layout: %w", err)
	}
	d.layout = l
	d.table = t
	return nil
}

// SetStore replaces data keeping the layout. If layout does not fit new data
// (dimension or item is gone) then default layout of new data is used.
func (d *Dataset) SetStore(store *ColumnStore) (isDefault bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.layout
	t, err := NewTable(store, l, d.base)
	if err != nil {
		l = DefaultLayout(store)
		isDefault = true
		if t, err = NewTable(store, l, d.base); err != nil {
			return false, fmt.Errorf("set data: %w", err)
		}
	}
	d.store = store
	d.layout = l
	d.table = t
	return isDefault, nil
}

// LoadFile reads output table CSV file and replaces data, see SetStore.
func (d *Dataset) LoadFile(ctx context.Context, path string, workers int, log *zap.Logger) (isDefault bool, err error) {
	store, err := LoadColumnar(ctx, path, workers, log)
	if err != nil {
		return false, err
	}
	if isDefault, err = d.SetStore(store); err != nil {
		return false, err
	}
	if isDefault {
		log.Warn("layout does not fit new data, using default layout", zap.String("path", path))
	}
	return isDefault, nil
}

// SetLabels replaces item labels of a layout dimension and refreshes table labels,
// labels are item codes mapped to display text.
func (d *Dataset) SetLabels(dim string, labels map[string]string) (*pivot.View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.layout.clone()
	dl := l.find(dim)
	if dl == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	dl.Labels = labels

	f, err := dimField(d.store, *dl)
	if err != nil {
		return nil, err
	}
	d.table.SetEnums(dim, f.Enums)
	d.layout = l
	return d.table.RefreshLabels(), nil
}

// SetFormat replaces number format of cell values and formats them again.
// Nil decimals shows values as is.
func (d *Dataset) SetFormat(lang string, decimals *int) *pivot.View {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.layout.clone()
	l.Lang = lang
	l.Decimals = decimals
	d.layout = l
	return d.table.SetFormat(formatOf(l))
}

func formatOf(l *Layout) pivot.FormatFunc {
	if l.Decimals == nil {
		return nil
	}
	lang := l.Lang
	if lang == "" {
		lang = "en"
	}
	return pivot.NumberFormat(lang, *l.Decimals)
}
