package pivot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EditKind is a type of cell value editor.
type EditKind int

const (
	EditString EditKind = iota // text input
	EditNumber                 // float or integer input
	EditBool                   // checkbox
	EditEnum                   // drop-down of enum values
)

// Edit rejection reasons.
var (
	ErrEditDisabled  = errors.New("edit is not enabled")
	ErrNotEditing    = errors.New("no edit in progress")
	ErrInvalidNumber = errors.New("invalid number")
	ErrInvalidBool   = errors.New("invalid boolean")
	ErrNotInEnum     = errors.New("value is not in enum list")
	ErrUnknownCell   = errors.New("unknown cell key")
	ErrPasteTooBig   = errors.New("pasted block exceeds table size")
)

// EditEvent is one update of cell value in edit history.
type EditEvent struct {
	CellKey    string `json:"cellKey"`
	OldValue   string `json:"oldValue"`
	NewValue   string `json:"newValue"`
	WasUpdated bool   `json:"wasUpdated"` // cell had been updated before this event
}

// Edit is the editor state of a pivot table and undo-redo history.
// Edit is not safe for concurrent use, Table serializes access to it.
type Edit struct {
	IsEnabled   bool              `json:"isEnabled"`
	Kind        EditKind          `json:"kind"`
	IsEdit      bool              `json:"isEdit"`    // edit in progress
	IsUpdated   bool              `json:"isUpdated"` // cell value(s) updated
	CellKey     string            `json:"cellKey"`
	CellValue   string            `json:"cellValue"`
	Updated     map[string]string `json:"updated"`
	History     []EditEvent       `json:"history"`
	LastHistory int               `json:"lastHistory"` // moved back and forth by undo and redo

	enums map[string]bool
}

// NewEdit returns empty, disabled editor state.
func NewEdit() *Edit {
	return &Edit{
		Kind:    EditString,
		Updated: map[string]string{},
		History: []EditEvent{},
	}
}

// Enable turns editing on; enums are the allowed values of EditEnum kind.
func (e *Edit) Enable(kind EditKind, enums []Enum) {
	e.IsEnabled = true
	e.Kind = kind
	e.enums = make(map[string]bool, len(enums))
	for _, en := range enums {
		e.enums[ItemString(en.Value)] = true
	}
}

// Disable turns editing off, pending updates are kept.
func (e *Edit) Disable() {
	e.IsEnabled = false
	e.IsEdit = false
}

// BeginEdit starts editing of a cell.
func (e *Edit) BeginEdit(cellKey, currentValue string) error {
	if !e.IsEnabled {
		return ErrEditDisabled
	}
	e.IsEdit = true
	e.CellKey = cellKey
	e.CellValue = currentValue
	return nil
}

// CommitEdit validates new value of the cell in edit and appends it to history,
// dropping any events which were undone. On error the state is not changed.
func (e *Edit) CommitEdit(newValue string) error {
	if !e.IsEnabled {
		return ErrEditDisabled
	}
	if !e.IsEdit {
		return ErrNotEditing
	}
	val, err := e.Validate(newValue)
	if err != nil {
		return err
	}

	e.push(e.CellKey, e.CellValue, val)
	e.IsEdit = false
	return nil
}

// CancelEdit discards the edit in progress.
func (e *Edit) CancelEdit() {
	e.IsEdit = false
}

// Validate checks value against editor kind and returns it in normalized form.
func (e *Edit) Validate(value string) (string, error) {
	switch e.Kind {
	case EditNumber:
		s := strings.TrimSpace(value)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || isHexFloat(s) {
			return "", fmt.Errorf("%w: %q", ErrInvalidNumber, value)
		}
		return s, nil
	case EditBool:
		b, ok := ParseBool(strings.TrimSpace(value))
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidBool, value)
		}
		return strconv.FormatBool(b), nil
	case EditEnum:
		if !e.enums[value] {
			return "", fmt.Errorf("%w: %q", ErrNotInEnum, value)
		}
	}
	return value, nil
}

func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func (e *Edit) push(cellKey, cellValue, newValue string) {
	prev, wasUpdated := e.Updated[cellKey]
	old := cellValue
	if wasUpdated {
		old = prev
	}
	e.History = append(e.History[:e.LastHistory], EditEvent{
		CellKey:    cellKey,
		OldValue:   old,
		NewValue:   newValue,
		WasUpdated: wasUpdated,
	})
	e.LastHistory = len(e.History)
	e.Updated[cellKey] = newValue
	e.IsUpdated = true
}

// CanUndo is true if there is an update to undo.
func (e *Edit) CanUndo() bool { return e.LastHistory > 0 }

// CanRedo is true if there is an undone update.
func (e *Edit) CanRedo() bool { return e.LastHistory < len(e.History) }

// Undo reverts the last update, it returns false if history is empty.
func (e *Edit) Undo() bool {
	if !e.CanUndo() {
		return false
	}
	e.LastHistory--
	ev := e.History[e.LastHistory]
	if ev.WasUpdated {
		e.Updated[ev.CellKey] = ev.OldValue
	} else {
		delete(e.Updated, ev.CellKey)
	}
	e.IsUpdated = len(e.Updated) > 0
	return true
}

// Redo applies the next undone update, it returns false if there is nothing to redo.
func (e *Edit) Redo() bool {
	if !e.CanRedo() {
		return false
	}
	ev := e.History[e.LastHistory]
	e.Updated[ev.CellKey] = ev.NewValue
	e.LastHistory++
	e.IsUpdated = true
	return true
}

// Reset cleans edit state and history, editor kind and enabled flag are kept.
func (e *Edit) Reset() {
	e.IsEdit = false
	e.IsUpdated = false
	e.CellKey = ""
	e.CellValue = ""
	e.Updated = map[string]string{}
	e.History = []EditEvent{}
	e.LastHistory = 0
}

// CellText returns current value of the cell as text: updated value if any, else cell source.
func (e *Edit) CellText(v *View, cellKey string) string {
	if s, ok := e.Updated[cellKey]; ok {
		return s
	}
	if c, ok := v.Cell(cellKey); ok && c.Src != nil {
		return ItemString(c.Src)
	}
	return ""
}

// Paste updates a block of cells from tab separated text, top left cell at row and col.
// All values are validated first and nothing is updated if any is rejected.
// It returns the number of updated cells.
func (e *Edit) Paste(v *View, row, col int, text string) (int, error) {
	if !e.IsEnabled {
		return 0, ErrEditDisabled
	}
	if row < 0 || col < 0 || row >= v.RowCount() || col >= v.ColCount() {
		return 0, fmt.Errorf("%w: row %d column %d", ErrUnknownCell, row, col)
	}
	maxRows, maxCols := v.RowCount()-row, v.ColCount()-col

	g := ParseTSV(text, maxRows, maxCols)
	if g.RowCount > maxRows || g.ColCount > maxCols {
		return 0, fmt.Errorf("%w: %d x %d into %d x %d", ErrPasteTooBig, g.RowCount, g.ColCount, maxRows, maxCols)
	}

	type upd struct{ key, val string }
	var ups []upd
	for i, cells := range g.Rows {
		for j, s := range cells {
			val, err := e.Validate(s)
			if err != nil {
				return 0, fmt.Errorf("row %d column %d: %w", row+i, col+j, err)
			}
			ups = append(ups, upd{key: v.CellKey(row+i, col+j), val: val})
		}
	}

	for _, u := range ups {
		e.push(u.key, e.CellText(v, u.key), u.val)
	}
	e.IsEdit = false
	return len(ups), nil
}

// Clone returns a deep copy of edit state.
func (e *Edit) Clone() *Edit {
	c := *e
	c.Updated = make(map[string]string, len(e.Updated))
	for k, v := range e.Updated {
		c.Updated[k] = v
	}
	c.History = append([]EditEvent{}, e.History...)
	return &c
}

var editKindNames = []string{"string", "number", "bool", "enum"}

func (k EditKind) String() string {
	if k >= 0 && int(k) < len(editKindNames) {
		return editKindNames[k]
	}
	return "unknown"
}

// ParseEditKind returns editor kind by name, empty name is EditString.
func ParseEditKind(name string) (EditKind, error) {
	if name == "" {
		return EditString, nil
	}
	for k, n := range editKindNames {
		if strings.EqualFold(n, name) {
			return EditKind(k), nil
		}
	}
	return EditString, fmt.Errorf("unknown editor kind: %q", name)
}
