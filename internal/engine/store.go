package engine

// ColumnStore holds simulation output rows in Struct-of-Arrays format
type ColumnStore struct {
	// Dimension names in file column order
	DimNames []string

	// Dictionary Encoded item IDs (0..N), one slice per dimension
	DimIDs [][]int32

	// Dictionaries (ID -> item code), one per dimension
	DimDicts [][]string

	// Cell values
	Values []float64
	IsNull []bool
}

// Record is one output table row: dimension item IDs and cell value.
type Record struct {
	DimIDs []int32
	IsNull bool
	Value  float64
}

// Len is the number of rows
func (cs *ColumnStore) Len() int { return len(cs.Values) }

// DimIndex returns column index of dimension or -1 if there is no such dimension.
func (cs *ColumnStore) DimIndex(name string) int {
	for k, n := range cs.DimNames {
		if n == name {
			return k
		}
	}
	return -1
}

// Records unpacks columns into rows.
func (cs *ColumnStore) Records() []Record {
	n := cs.Len()
	ids := make([]int32, n*len(cs.DimIDs)) // one allocation for all rows
	recs := make([]Record, n)

	for i := 0; i < n; i++ {
		r := ids[i*len(cs.DimIDs) : (i+1)*len(cs.DimIDs)]
		for k, col := range cs.DimIDs {
			r[k] = col[i]
		}
		recs[i] = Record{DimIDs: r, IsNull: cs.IsNull[i], Value: cs.Values[i]}
	}
	return recs
}
