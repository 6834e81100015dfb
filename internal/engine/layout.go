package engine

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"pivotsvc/internal/pivot"
)

var (
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownItem      = errors.New("unknown dimension item")
)

// DimLayout is a dimension placement and its selected items.
type DimLayout struct {
	Name   string            `yaml:"name" json:"name"`
	Label  string            `yaml:"label,omitempty" json:"label,omitempty"`
	Values []string          `yaml:"values" json:"values"`                     // selected item codes, nil selects all items
	Order  []string          `yaml:"order,omitempty" json:"order,omitempty"`   // display order, unlisted items follow in file order
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"` // item code -> text
}

// EditLayout turns on cell value editor.
type EditLayout struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Kind    string   `yaml:"kind" json:"kind"`
	Enums   []string `yaml:"enums,omitempty" json:"enums,omitempty"`
}

// Layout is a pivot table view of output table: rows, columns, other filters and value processing.
type Layout struct {
	Rows      []DimLayout `yaml:"rows" json:"rows"`
	Cols      []DimLayout `yaml:"cols" json:"cols"`
	Others    []DimLayout `yaml:"others" json:"others"`
	Reduction string      `yaml:"reduction" json:"reduction"`
	Lang      string      `yaml:"lang" json:"lang"`
	Decimals  *int        `yaml:"decimals" json:"decimals"` // no formatting if nil
	Edit      EditLayout  `yaml:"edit" json:"edit"`
}

// LoadLayout reads yaml layout file
func LoadLayout(path string) (*Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(b)
}

// ParseLayout decodes yaml layout
func ParseLayout(b []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &l, nil
}

func (l *Layout) clone() *Layout {
	c := *l
	c.Rows = slices.Clone(l.Rows)
	c.Cols = slices.Clone(l.Cols)
	c.Others = slices.Clone(l.Others)
	return &c
}

// find returns named dimension layout or nil.
func (l *Layout) find(name string) *DimLayout {
	for _, dims := range [][]DimLayout{l.Rows, l.Cols, l.Others} {
		for k := range dims {
			if dims[k].Name == name {
				return &dims[k]
			}
		}
	}
	return nil
}

// DefaultLayout puts first dimension on rows, second on columns
// and the rest on others, all items selected.
func DefaultLayout(store *ColumnStore) *Layout {
	l := &Layout{}
	for k, name := range store.DimNames {
		d := DimLayout{Name: name}
		switch k {
		case 0:
			l.Rows = append(l.Rows, d)
		case 1:
			l.Cols = append(l.Cols, d)
		default:
			l.Others = append(l.Others, d)
		}
	}
	return l
}

// Fields makes pivot dimension fields from layout and store dictionaries.
func Fields(store *ColumnStore, l *Layout) (pivot.Layout[Record], error) {
	var dst pivot.Layout[Record]
	var err error
	if dst.Rows, err = dimFields(store, l.Rows); err != nil {
		return dst, err
	}
	if dst.Cols, err = dimFields(store, l.Cols); err != nil {
		return dst, err
	}
	if dst.Others, err = dimFields(store, l.Others); err != nil {
		return dst, err
	}
	return dst, nil
}

func dimFields(store *ColumnStore, dims []DimLayout) ([]pivot.Field[Record], error) {
	fields := make([]pivot.Field[Record], 0, len(dims))
	for _, d := range dims {
		f, err := dimField(store, d)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func dimField(store *ColumnStore, d DimLayout) (pivot.Field[Record], error) {
	k := store.DimIndex(d.Name)
	if k < 0 {
		return pivot.Field[Record]{}, fmt.Errorf("%w: %q", ErrUnknownDimension, d.Name)
	}
	dict := store.DimDicts[k]

	ids := make(map[string]int, len(dict))
	for id, code := range dict {
		ids[code] = id
	}
	lookup := func(code string) (int, error) {
		id, ok := ids[code]
		if !ok {
			return 0, fmt.Errorf("%w: %s %q", ErrUnknownItem, d.Name, code)
		}
		return id, nil
	}

	// enum order: listed codes first, then the rest in dictionary order
	enums := make([]pivot.Enum, 0, len(dict))
	isListed := make(map[int]bool, len(d.Order))
	addEnum := func(id int) {
		text := dict[id]
		if s, ok := d.Labels[text]; ok {
			text = s
		}
		enums = append(enums, pivot.Enum{Value: id, Text: text})
	}
	for _, code := range d.Order {
		id, err := lookup(code)
		if err != nil {
			return pivot.Field[Record]{}, err
		}
		if !isListed[id] {
			isListed[id] = true
			addEnum(id)
		}
	}
	for id := range dict {
		if !isListed[id] {
			addEnum(id)
		}
	}

	var sel []any
	if d.Values == nil {
		sel = make([]any, len(dict))
		for id := range dict {
			sel[id] = id
		}
	} else {
		sel = make([]any, 0, len(d.Values))
		for _, code := range d.Values {
			id, err := lookup(code)
			if err != nil {
				return pivot.Field[Record]{}, err
			}
			sel = append(sel, id)
		}
	}

	label := d.Label
	if label == "" {
		label = d.Name
	}
	return pivot.Field[Record]{
		Name:      d.Name,
		Label:     label,
		Read:      dimReader(k),
		Selection: sel,
		Enums:     enums,
	}, nil
}

func dimReader(k int) pivot.ProjectorFunc[Record] {
	return func(r Record) (any, bool) {
		if k >= len(r.DimIDs) {
			return nil, false
		}
		return int(r.DimIDs[k]), true
	}
}

// ReadValue returns cell value of not NULL record.
var ReadValue = pivot.ExtractorFunc[Record](func(r Record) (any, bool) {
	if r.IsNull {
		return nil, false
	}
	return r.Value, true
})
