package pivot

type testRec struct {
	Age   int
	Sex   int
	Year  int
	Value any
}

func ageField(sel ...any) Field[testRec] {
	return Field[testRec]{
		Name:      "Age",
		Label:     "Age group",
		Read:      ProjectorFunc[testRec](func(r testRec) (any, bool) { return r.Age, true }),
		Enums:     []Enum{{Value: 10, Text: "10-20"}, {Value: 20, Text: "20-30"}},
		Selection: sel,
	}
}

func sexField(sel ...any) Field[testRec] {
	return Field[testRec]{
		Name:      "Sex",
		Read:      ProjectorFunc[testRec](func(r testRec) (any, bool) { return r.Sex, true }),
		Enums:     []Enum{{Value: 0, Text: "F"}, {Value: 1, Text: "M"}},
		Selection: sel,
	}
}

func yearField(sel ...any) Field[testRec] {
	return Field[testRec]{
		Name: "Year",
		Read: ProjectorFunc[testRec](func(r testRec) (any, bool) {
			if r.Year == 0 {
				return nil, false
			}
			return r.Year, true
		}),
		Enums:     []Enum{{Value: 2020, Text: "2020"}, {Value: 2021, Text: "2021"}},
		Selection: sel,
	}
}

var readTestValue = ExtractorFunc[testRec](func(r testRec) (any, bool) {
	return r.Value, r.Value != nil
})

// scenarioRecords are the age by sex example: 20/F=5, 10/F=3, 10/M=2.
func scenarioRecords() []testRec {
	return []testRec{
		{Age: 20, Sex: 0, Value: 5.0},
		{Age: 10, Sex: 0, Value: 3.0},
		{Age: 10, Sex: 1, Value: 2.0},
	}
}

func makeDims(rows, cols, others []Field[testRec]) []*Dimension[testRec] {
	var dims []*Dimension[testRec]
	for _, f := range rows {
		dims = append(dims, NewDimension(f, true, false))
	}
	for _, f := range cols {
		dims = append(dims, NewDimension(f, false, true))
	}
	for _, f := range others {
		dims = append(dims, NewDimension(f, false, false))
	}
	setKeyPos(dims)
	return dims
}

func key(items ...string) string { return ItemsToKey(items) }
