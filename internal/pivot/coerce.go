package pivot

import "strings"

// ParseBool treats v as a boolean.
// The second result is false if v is not recognized; callers keep the prior value then.
func ParseBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return intBool(int64(x))
	case int32:
		return intBool(int64(x))
	case int64:
		return intBool(x)
	case float64:
		if x == float64(int64(x)) {
			return intBool(int64(x))
		}
	case string:
		switch strings.ToLower(x) {
		case "true", "t", "1", "yes", "y":
			return true, true
		case "false", "f", "0", "no", "n":
			return false, true
		}
	}
	return false, false
}

func intBool(n int64) (bool, bool) {
	switch n {
	case 1, -1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}

// Grid is a ragged block of tab separated values.
type Grid struct {
	RowCount int
	ColCount int // max column count seen so far
	Rows     [][]string
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseTSV splits text into lines and each line into tab separated cells.
// If maxRows > 0 or maxCols > 0 and the text is bigger, the result is returned
// early and partially filled: compare RowCount and ColCount with the limits to detect that.
func ParseTSV(text string, maxRows, maxCols int) Grid {
	g := Grid{Rows: [][]string{}}
	if text == "" {
		return g
	}

	lines := strings.Split(lineBreaks.Replace(text), "\n")
	g.RowCount = len(lines)
	if g.RowCount > 0 && lines[g.RowCount-1] == "" {
		g.RowCount-- // last line is empty
	}
	if g.RowCount < 1 || (maxRows > 0 && g.RowCount > maxRows) {
		return g
	}

	g.Rows = make([][]string, 0, g.RowCount)
	for k := 0; k < g.RowCount; k++ {
		cells := strings.Split(lines[k], "\t")

		if g.ColCount < len(cells) {
			g.ColCount = len(cells)
		}
		if maxCols > 0 && g.ColCount > maxCols {
			return g
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}
