package pivot

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembleTest(rows, cols []Field[testRec], recs []testRec, format FormatFunc) *View {
	dims := makeDims(rows, cols, nil)
	agg := Aggregate(recs, dims, readTestValue, nil)
	return Assemble(agg, dims, makeLabels(Layout[testRec]{Rows: rows, Cols: cols}), format)
}

func TestAssembleScenario(t *testing.T) {
	v := assembleTest([]Field[testRec]{ageField(10, 20)}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), nil)

	require.Equal(t, 2, v.RowCount())
	require.Equal(t, 2, v.ColCount())
	assert.Equal(t, Tuple{10}, v.Row(0))
	assert.Equal(t, Tuple{20}, v.Row(1))
	assert.Equal(t, Tuple{0}, v.Col(0))
	assert.Equal(t, Tuple{1}, v.Col(1))
	assert.Equal(t, []string{"10", "20"}, v.RowKeys())
	assert.Equal(t, []string{"0", "1"}, v.ColKeys())

	want := map[[2]int]any{{0, 0}: 3.0, {0, 1}: 2.0, {1, 0}: 5.0}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			c, ok := v.CellAt(i, j)
			w, isWant := want[[2]int{i, j}]
			assert.Equal(t, isWant, ok, "cell %d %d", i, j)
			if ok {
				assert.Equal(t, w, c.Src)
				assert.Equal(t, w, c.Value, "value is source without formatter")
			}
		}
	}
	assert.Equal(t, 3, v.CellCount())
	assert.Equal(t, "10-20", v.Label("Age", 10))
	assert.Equal(t, "M", v.Label("Sex", 1))
	assert.Equal(t, "", v.Label("Sex", 7))
	assert.Equal(t, "", v.Label("Nope", 1))
}

func TestAssembleCrossJoin(t *testing.T) {
	var recs []testRec
	for _, y := range []int{2021, 2020} {
		for _, a := range []int{20, 10} {
			for _, s := range []int{1, 0} {
				recs = append(recs, testRec{Age: a, Sex: s, Year: y, Value: float64(y + a + s)})
			}
		}
	}
	v := assembleTest(
		[]Field[testRec]{yearField(2020, 2021), sexField(0, 1)},
		[]Field[testRec]{ageField(10, 20)},
		recs, nil)

	require.Equal(t, 4, v.RowCount())
	require.Equal(t, 2, v.ColCount())
	keys := v.CellKeys()
	require.Len(t, keys, v.RowCount()*v.ColCount())

	// body key items are in dimension name order: Age, Sex, Year
	n := 0
	for i := 0; i < v.RowCount(); i++ {
		r := v.Row(i)
		for j := 0; j < v.ColCount(); j++ {
			c := v.Col(j)
			assert.Equal(t, key(ItemString(c[0]), ItemString(r[1]), ItemString(r[0])), keys[n])
			assert.Equal(t, keys[n], v.CellKey(i, j))
			n++
		}
	}
	assert.Equal(t, 2, v.RowSpan(0, 0))
	assert.Equal(t, 0, v.RowSpan(1, 0))
	assert.Equal(t, 1, v.RowSpan(1, 1))
	assert.Equal(t, 1, v.ColSpan(1, 0))
	assert.Equal(t, 0, v.ColSpan(1, 5), "out of range")
}

func TestAssembleBodyKeyIndependentOfPlacement(t *testing.T) {
	a := assembleTest([]Field[testRec]{ageField(10, 20)}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), nil)
	b := assembleTest([]Field[testRec]{sexField(0, 1)}, []Field[testRec]{ageField(10, 20)}, scenarioRecords(), nil)

	assert.Equal(t, a.Cells(), b.Cells())
	assert.ElementsMatch(t, a.CellKeys(), b.CellKeys())
}

func TestAssembleEmpty(t *testing.T) {
	v := assembleTest([]Field[testRec]{ageField()}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), nil)

	assert.Zero(t, v.RowCount())
	assert.Zero(t, v.ColCount())
	assert.Empty(t, v.CellKeys())
	assert.Equal(t, "F", v.Label("Sex", 0), "labels exist without data")
}

func TestAssembleFormat(t *testing.T) {
	format := func(src any) string { return fmt.Sprintf("%.2f", src) }
	v := assembleTest([]Field[testRec]{ageField(10, 20)}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), format)

	c, ok := v.CellAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, 3.0, c.Src)
	assert.Equal(t, "3.00", c.Value)

	again := v.withFormat(format)
	if diff := cmp.Diff(v.Cells(), again.Cells()); diff != "" {
		t.Errorf("format refresh changed cells (-before +after):\n%s", diff)
	}
}

func TestViewIsNotModifiedByCallers(t *testing.T) {
	v := assembleTest([]Field[testRec]{ageField(10, 20)}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), nil)

	r := v.Row(0)
	r[0] = 99
	keys := v.CellKeys()
	keys[0] = "changed"
	cells := v.Cells()
	delete(cells, key("10", "0"))

	assert.Equal(t, Tuple{10}, v.Row(0))
	assert.NotEqual(t, "changed", v.CellKey(0, 0))
	assert.Equal(t, 3, v.CellCount())
}

func TestViewMarshalJSON(t *testing.T) {
	v := assembleTest([]Field[testRec]{ageField(10, 20)}, []Field[testRec]{sexField(0, 1)}, scenarioRecords(), nil)

	b, err := json.Marshal(v)
	require.NoError(t, err)

	var got struct {
		RowCount int                          `json:"rowCount"`
		Rows     [][]string                   `json:"rows"`
		CellKeys []string                     `json:"cellKeys"`
		Labels   map[string]map[string]string `json:"labels"`
		RowSpans []int                        `json:"rowSpans"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, [][]string{{"10"}, {"20"}}, got.Rows)
	assert.Len(t, got.CellKeys, 4)
	assert.Equal(t, "20-30", got.Labels["Age"]["20"])
	assert.Equal(t, []int{1, 1}, got.RowSpans)
}

func TestNumberFormat(t *testing.T) {
	f := NumberFormat("en", 2)
	assert.Equal(t, "1,234.50", f(1234.5))
	assert.Equal(t, "7.00", f(7))
	assert.Equal(t, "abc", f("abc"))
	assert.Equal(t, "true", f(true))

	bad := NumberFormat("not a language", 0)
	assert.Equal(t, "1,234", bad(1234.4))
}

func TestCellMarshalNotFinite(t *testing.T) {
	b, err := json.Marshal(Cell{Key: "k", Src: math.NaN(), Value: math.Inf(-1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","src":null,"value":null}`, string(b))

	b, err = json.Marshal(Cell{Key: "k", Src: 1.5, Value: "1.5"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","src":1.5,"value":"1.5"}`, string(b))
}
