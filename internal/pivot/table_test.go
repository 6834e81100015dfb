package pivot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countObserver struct {
	mu    sync.Mutex
	kinds []RefreshKind
}

func (o *countObserver) Observe(kind RefreshKind, _ time.Duration, _ *View) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
}

func scenarioTable(opts Options[testRec]) *Table[testRec] {
	if opts.ReadValue == nil {
		opts.ReadValue = readTestValue
	}
	return NewTable(Layout[testRec]{
		Rows: []Field[testRec]{ageField(10, 20)},
		Cols: []Field[testRec]{sexField(0, 1)},
	}, opts)
}

func TestTableSetData(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	assert.Zero(t, tbl.View().RowCount())
	assert.Equal(t, "10-20", tbl.View().Label("Age", 10), "labels before data")

	v := tbl.SetData(scenarioRecords())

	assert.Same(t, v, tbl.View())
	assert.Equal(t, 2, v.RowCount())
	assert.Equal(t, 2, v.ColCount())
	assert.Equal(t, "F", v.Label("Sex", 0))
}

func TestTableSetDataEmpty(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	tbl.SetData(scenarioRecords())

	v := tbl.SetData(nil)

	assert.Zero(t, v.RowCount())
	assert.Zero(t, v.ColCount())
	assert.Empty(t, v.CellKeys())
}

func TestTableSetLayout(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	tbl.SetData(scenarioRecords())

	v := tbl.SetLayout(Layout[testRec]{
		Rows: []Field[testRec]{sexField(0, 1)},
		Cols: []Field[testRec]{ageField(20)},
	})

	assert.Equal(t, 1, v.RowCount())
	assert.Equal(t, 1, v.ColCount())
	assert.Equal(t, Tuple{0}, v.Row(0))
	assert.Len(t, tbl.Layout().Rows, 1)
}

func TestTableRefreshResetsEdit(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	tbl.SetData(scenarioRecords())
	require.NoError(t, tbl.WithEdit(func(e *Edit, v *View) error {
		e.Enable(EditNumber, nil)
		if err := e.BeginEdit(v.CellKey(0, 0), e.CellText(v, v.CellKey(0, 0))); err != nil {
			return err
		}
		return e.CommitEdit("42")
	}))
	assert.True(t, tbl.State().Edit.IsUpdated)

	tbl.Refresh()

	st := tbl.State()
	assert.True(t, st.Edit.IsEnabled)
	assert.False(t, st.Edit.IsUpdated)
	assert.Empty(t, st.Edit.History)
}

func TestTableRefreshLabels(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	before := tbl.SetData(scenarioRecords())

	require.True(t, tbl.SetEnums("Sex", []Enum{{Value: 0, Text: "Female"}, {Value: 1, Text: "Male"}}))
	assert.False(t, tbl.SetEnums("Nope", nil))
	assert.Equal(t, "F", tbl.View().Label("Sex", 0), "labels are not changed before refresh")
	v := tbl.RefreshLabels()

	assert.Equal(t, "Female", v.Label("Sex", 0))
	assert.Equal(t, "F", before.Label("Sex", 0), "published view is not changed")
	assert.Equal(t, before.Cells(), v.Cells())
	assert.Equal(t, before.CellKeys(), v.CellKeys())
}

func TestTableSetFormat(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	tbl.SetData(scenarioRecords())

	v := tbl.SetFormat(NumberFormat("en", 1))
	c, ok := v.CellAt(1, 0)
	require.True(t, ok)
	assert.Equal(t, "5.0", c.Value)

	again := tbl.RefreshValues()
	assert.Equal(t, v.Cells(), again.Cells())
}

func TestTableSyncEdgeTriggered(t *testing.T) {
	obs := &countObserver{}
	tbl := scenarioTable(Options[testRec]{Observer: obs})
	tbl.SetData(scenarioRecords())
	obs.kinds = nil

	tbl.Sync(Tickles{})
	assert.Empty(t, obs.kinds, "no flag changed")

	tbl.Sync(Tickles{Full: true})
	tbl.Sync(Tickles{Full: true})
	assert.Equal(t, []RefreshKind{RefreshFull}, obs.kinds)

	tbl.Sync(Tickles{Full: true, Dims: true, Values: true})
	assert.Equal(t, []RefreshKind{RefreshFull, RefreshLabels, RefreshValues}, obs.kinds)

	tbl.Sync(Tickles{})
	assert.Len(t, obs.kinds, 6)
}

func TestTableSize(t *testing.T) {
	var sizes []Size
	tbl := scenarioTable(Options[testRec]{OnSize: func(s Size) { sizes = append(sizes, s) }})
	tbl.SetData(scenarioRecords())
	assert.Empty(t, sizes, "no size without edit")

	require.NoError(t, tbl.WithEdit(func(e *Edit, _ *View) error {
		e.Enable(EditNumber, nil)
		return nil
	}))
	tbl.SetData(append(scenarioRecords(), testRec{Age: 20, Sex: 1, Value: 1234.5}))

	require.Len(t, sizes, 1)
	assert.Equal(t, 2, sizes[0].RowCount)
	assert.Equal(t, 2, sizes[0].ColCount)
	assert.Equal(t, 6, sizes[0].ValueLen)
	assert.Equal(t, []KeyPos{{Name: "Age", Pos: 0}, {Name: "Sex", Pos: 1}}, sizes[0].KeyPos)
}

func TestTableState(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{IsRowColControls: true})
	st := tbl.State()

	assert.Equal(t, 2, st.RowColMode)
	assert.True(t, st.IsRowColControls)
	assert.Equal(t, []StateField{{Name: "Age", Values: []any{10, 20}}}, st.Rows)
	assert.Equal(t, []StateField{{Name: "Sex", Values: []any{0, 1}}}, st.Cols)
	assert.Empty(t, st.Others)
	assert.False(t, st.Edit.IsEnabled)
}

func TestTableConcurrentReaders(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{ReadValue: readTestValue})
	tbl.SetData(scenarioRecords())

	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				v := tbl.View()
				assert.Len(t, v.CellKeys(), v.RowCount()*v.ColCount())
			}
		}()
	}
	for k := 0; k < 20; k++ {
		switch k % 3 {
		case 0:
			tbl.Refresh()
		case 1:
			tbl.RefreshLabels()
		default:
			tbl.RefreshValues()
		}
	}
	wg.Wait()
}

func TestTableSetEdit(t *testing.T) {
	tbl := scenarioTable(Options[testRec]{})
	tbl.SetData(scenarioRecords())

	tbl.SetEdit(true, EditEnum, []Enum{{Value: "a", Text: "A"}})
	st := tbl.State()
	assert.True(t, st.Edit.IsEnabled)
	assert.Equal(t, EditEnum, st.Edit.Kind)

	require.NoError(t, tbl.WithEdit(func(e *Edit, v *View) error {
		require.NoError(t, e.BeginEdit(v.CellKey(0, 0), ""))
		assert.ErrorIs(t, e.CommitEdit("b"), ErrNotInEnum)
		return e.CommitEdit("a")
	}))

	tbl.SetEdit(false, EditString, nil)
	st = tbl.State()
	assert.False(t, st.Edit.IsEnabled)
	assert.False(t, st.Edit.IsEdit)
	assert.True(t, st.Edit.IsUpdated, "pending updates are kept")
}
