package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensionFilter(t *testing.T) {
	d := NewDimension(ageField(10), true, false)
	assert.True(t, d.Filter(10))
	assert.False(t, d.Filter(20))
	assert.False(t, d.Filter("10"), "items are compared by value and type")
}

// Empty selection is intentional: nothing chosen means nothing shown.
func TestDimensionFilterEmptySelection(t *testing.T) {
	d := NewDimension(ageField(), true, false)
	assert.False(t, d.Filter(10))
	assert.False(t, d.Filter(20))
}

func TestDimensionCompare(t *testing.T) {
	f := ageField()
	f.Enums = []Enum{{Value: 30}, {Value: 10}, {Value: 20}}
	d := NewDimension(f, true, false)

	assert.Equal(t, -1, d.Compare(30, 10), "enum order, not numeric order")
	assert.Equal(t, 1, d.Compare(20, 10))
	assert.Equal(t, 0, d.Compare(10, 10))
	assert.Equal(t, -1, d.Compare(20, 5), "values not in enums go last")
	assert.Equal(t, 1, d.Compare(5, 30))
	assert.Equal(t, -1, d.Compare(5, 7), "natural order between unknown values")
	assert.Equal(t, 1, d.Compare("b", "a"))
}

func TestDimensionKeyPos(t *testing.T) {
	// rows: Sex, Year; cols: Age; Age is the first name, then Sex, then Year.
	dims := makeDims(
		[]Field[testRec]{sexField(), yearField()},
		[]Field[testRec]{ageField()},
		[]Field[testRec]{{Name: "AAA"}},
	)
	assert.Equal(t, 1, dims[0].KeyPos())
	assert.Equal(t, 2, dims[1].KeyPos())
	assert.Equal(t, 0, dims[2].KeyPos())
	assert.Equal(t, 0, dims[3].KeyPos(), "other dimensions are not part of body key")
}

func TestDimensionReadWithoutProjector(t *testing.T) {
	d := NewDimension(Field[testRec]{Name: "x", Selection: []any{nil}}, true, false)
	_, ok := d.Read(testRec{})
	assert.False(t, ok)
}
