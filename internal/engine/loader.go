package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoHeader = errors.New("csv header is empty")
	ErrBadRow   = errors.New("invalid csv row")
)

// --- 1. FAST ZERO-ALLOC PARSERS ---

func unsafeToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// fastFloat parses "-123.45" -> -123.45, ok is false if it is not a plain decimal
func fastFloat(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var num float64
	var i int
	isNeg := b[0] == '-'
	if isNeg || b[0] == '+' {
		i++
	}
	if i >= len(b) {
		return 0, false
	}
	for i < len(b) && b[i] != '.' {
		if b[i] < '0' || b[i] > '9' {
			return 0, false
		}
		num = num*10 + float64(b[i]-'0')
		i++
	}
	if i < len(b) {
		i++
		div := 10.0
		for i < len(b) {
			if b[i] < '0' || b[i] > '9' {
				return 0, false
			}
			num += float64(b[i]-'0') / div
			div *= 10
			i++
		}
	}
	if isNeg {
		num = -num
	}
	return num, true
}

// parseValue returns cell value, empty, "null", NaN or infinity is a NULL value
func parseValue(b []byte) (float64, bool, error) {
	if len(b) == 0 || bytes.EqualFold(b, []byte("null")) {
		return 0, true, nil
	}
	if f, ok := fastFloat(b); ok {
		return f, false, nil
	}
	f, err := strconv.ParseFloat(unsafeToString(b), 64) // exponent, NaN, Inf
	if err != nil {
		return 0, false, fmt.Errorf("%w: value %q", ErrBadRow, b)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, nil // not a number is NULL
	}
	return f, false, nil
}

// alignChunk moves chunk [start, end) boundaries to the next line starts
func alignChunk(content []byte, start, end int) (int, int) {
	if start > 0 {
		if i := bytes.IndexByte(content[start:], '\n'); i != -1 {
			start += i + 1
		} else {
			start = len(content)
		}
	}
	if end < len(content) {
		if i := bytes.IndexByte(content[end:], '\n'); i != -1 {
			end += i + 1
		} else {
			end = len(content)
		}
	}
	if start > end {
		start = end
	}
	return start, end
}

// eachLine calls fn for each non-empty line without line break
func eachLine(chunk []byte, fn func(line []byte) error) error {
	for pos := 0; pos < len(chunk); {
		nextPos := len(chunk)
		if i := bytes.IndexByte(chunk[pos:], '\n'); i != -1 {
			nextPos = pos + i
		}
		line := bytes.TrimSuffix(chunk[pos:nextPos], []byte{'\r'})
		pos = nextPos + 1

		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

// --- 2. MAIN LOADER ---

// LoadColumnar reads output table CSV file: dimension columns followed by value column.
// Workers <= 0 means one worker per CPU.
func LoadColumnar(ctx context.Context, path string, workers int, log *zap.Logger) (*ColumnStore, error) {
	start := time.Now()
	log.Info("loading data", zap.String("path", path), zap.Int("workers", workers))

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	store, err := ReadColumnar(ctx, content, workers)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	log.Info("load complete",
		zap.String("path", path),
		zap.Int("rows", store.Len()),
		zap.Strings("dimensions", store.DimNames),
		zap.Duration("elapsed", time.Since(start)))
	return store, nil
}

// ReadColumnar parses CSV content in parallel chunks aligned on line breaks.
func ReadColumnar(ctx context.Context, content []byte, workers int) (*ColumnStore, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// A. Header: dimension names and value column
	hdr := content
	if idx := bytes.IndexByte(content, '\n'); idx != -1 {
		hdr = content[:idx]
		content = content[idx+1:]
	} else {
		content = nil
	}
	hdr = bytes.TrimSuffix(hdr, []byte{'\r'})
	if len(bytes.TrimSpace(hdr)) == 0 {
		return nil, ErrNoHeader
	}
	cols := bytes.Split(hdr, []byte{','})
	numDims := len(cols) - 1

	store := &ColumnStore{
		DimNames: make([]string, numDims),
		DimIDs:   make([][]int32, numDims),
		DimDicts: make([][]string, numDims),
	}
	for k := 0; k < numDims; k++ {
		store.DimNames[k] = string(bytes.TrimSpace(cols[k]))
	}

	// B. Count Rows (Parallel) for Exact Allocation
	chunkSize := len(content)/workers + 1
	rowCounts := make([]int, workers)

	var cg errgroup.Group
	for i := 0; i < workers; i++ {
		cg.Go(func() error {
			s, e := alignChunk(content, min(i*chunkSize, len(content)), min((i+1)*chunkSize, len(content)))
			return eachLine(content[s:e], func([]byte) error {
				rowCounts[i]++
				return nil
			})
		})
	}
	if err := cg.Wait(); err != nil {
		return nil, err
	}

	totalRows := 0
	offsets := make([]int, workers)
	for i, c := range rowCounts {
		offsets[i] = totalRows
		totalRows += c
	}

	// C. Allocate Store ONCE
	store.Values = make([]float64, totalRows)
	store.IsNull = make([]bool, totalRows)
	for k := range store.DimIDs {
		store.DimIDs[k] = make([]int32, totalRows)
	}

	// D. Parallel Parsing into local dictionaries
	type localDict struct {
		idMap map[string]int32
		list  []string
		ids   []int32
	}
	workerDicts := make([][]*localDict, workers)
	sep := []byte{','}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			lds := make([]*localDict, numDims)
			for k := range lds {
				lds[k] = &localDict{idMap: map[string]int32{}, ids: make([]int32, rowCounts[i])}
			}
			workerDicts[i] = lds

			s, e := alignChunk(content, min(i*chunkSize, len(content)), min((i+1)*chunkSize, len(content)))
			row := 0

			return eachLine(content[s:e], func(line []byte) error {
				if row%4096 == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				rest := line

				for _, ld := range lds {
					field, tail, found := bytes.Cut(rest, sep)
					if !found {
						return fmt.Errorf("%w: expected %d columns: %q", ErrBadRow, numDims+1, line)
					}
					rest = tail

					if id, ok := ld.idMap[unsafeToString(field)]; ok {
						ld.ids[row] = id
					} else {
						id = int32(len(ld.list))
						str := string(field) // Allocate string for dict
						ld.list = append(ld.list, str)
						ld.idMap[str] = id
						ld.ids[row] = id
					}
				}

				v, isNull, err := parseValue(rest)
				if err != nil {
					return err
				}
				store.Values[offsets[i]+row] = v
				store.IsNull[offsets[i]+row] = isNull
				row++
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// E. Merge Dictionaries (Parallel), worker order keeps file order of items
	var mg errgroup.Group
	for k := 0; k < numDims; k++ {
		mg.Go(func() error {
			gMap := make(map[string]int32)
			dict := make([]string, 0, 64)
			dest := store.DimIDs[k]

			for w := 0; w < workers; w++ {
				ld := workerDicts[w][k]
				remap := make([]int32, len(ld.list))
				for lid, s := range ld.list {
					gid, exists := gMap[s]
					if !exists {
						gid = int32(len(dict))
						dict = append(dict, s)
						gMap[s] = gid
					}
					remap[lid] = gid
				}
				for n, id := range ld.ids {
					dest[offsets[w]+n] = remap[id]
				}
			}
			store.DimDicts[k] = dict
			return nil
		})
	}
	if err := mg.Wait(); err != nil {
		return nil, err
	}
	return store, nil
}
