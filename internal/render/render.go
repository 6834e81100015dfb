// Package render writes pivot views and download logs as text tables.
package render

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pivotsvc/internal/models"
	"pivotsvc/internal/pivot"
)

const msgNoData = "No data"

// Options are text table display options.
type Options struct {
	Style        table.Style
	RepeatLabels bool // print row and column labels in every cell instead of run start only
	NoBorder     bool
}

// DefaultOptions uses light box drawing.
func DefaultOptions() Options {
	return Options{Style: table.StyleLight}
}

func newWriter(opts Options) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(opts.Style)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	if opts.NoBorder {
		tbl.Style().Options.DrawBorder = false
		tbl.Style().Options.SeparateColumns = false
	}
	return tbl
}

// itemText is enum label of the item or item itself.
func itemText(v *pivot.View, dim string, item any) string {
	if s := v.Label(dim, item); s != "" {
		return s
	}
	return pivot.ItemString(item)
}

func cellText(c pivot.Cell, ok bool) string {
	if !ok || c.Value == nil {
		return ""
	}
	if s, isStr := c.Value.(string); isStr {
		return s
	}
	return pivot.ItemString(c.Value)
}

// View renders pivot table: column headers first, then row headers followed by cell values.
// Header items are printed at the start of each run of equal items unless RepeatLabels is set.
func View(v *pivot.View, opts Options) string {
	if v == nil || v.RowCount() == 0 || v.ColCount() == 0 {
		return msgNoData
	}
	nRow, nCol := v.RowKeyLen(), v.ColKeyLen()
	kp := v.KeyPos()
	rowNames := make([]string, nRow)
	for k := range nRow {
		rowNames[k] = kp[k].Name
	}
	colNames := make([]string, nCol)
	for k := range nCol {
		colNames[k] = kp[nRow+k].Name
	}

	tbl := newWriter(opts)

	for k := range nCol {
		hdr := make(table.Row, 0, nRow+v.ColCount())
		for n := range nRow {
			if n == nRow-1 {
				hdr = append(hdr, colNames[k])
			} else {
				hdr = append(hdr, "")
			}
		}
		for j := range v.ColCount() {
			if opts.RepeatLabels || v.ColSpan(j, k) > 0 {
				hdr = append(hdr, itemText(v, colNames[k], v.Col(j)[k]))
			} else {
				hdr = append(hdr, "")
			}
		}
		tbl.AppendHeader(hdr)
	}
	if nRow > 0 {
		hdr := make(table.Row, 0, nRow+v.ColCount())
		for _, name := range rowNames {
			hdr = append(hdr, name)
		}
		for range v.ColCount() {
			hdr = append(hdr, "")
		}
		tbl.AppendHeader(hdr)
	}

	for i := range v.RowCount() {
		r := v.Row(i)
		row := make(table.Row, 0, nRow+v.ColCount())
		for k := range nRow {
			if opts.RepeatLabels || v.RowSpan(i, k) > 0 {
				row = append(row, itemText(v, rowNames[k], r[k]))
			} else {
				row = append(row, "")
			}
		}
		for j := range v.ColCount() {
			row = append(row, cellText(v.CellAt(i, j)))
		}
		tbl.AppendRow(row)
	}

	cfg := make([]table.ColumnConfig, 0, v.ColCount())
	for j := range v.ColCount() {
		cfg = append(cfg, table.ColumnConfig{Number: nRow + j + 1, Align: text.AlignRight})
	}
	tbl.SetColumnConfigs(cfg)

	return tbl.Render()
}

// Logs renders download logs summary: one line per log and a footer with counts by status.
func Logs(logs []models.DownloadStatusLog, opts Options) string {
	if len(logs) == 0 {
		return msgNoData
	}
	tbl := newWriter(opts)
	tbl.AppendHeader(table.Row{"Status", "Kind", "Model", "Run / Scenario", "Folder", "Zip", "Size", "Updated"})

	for _, d := range logs {
		name := d.RunDigest
		if d.Kind == models.KindWorkset {
			name = d.WorksetName
		}
		size := ""
		if d.IsZip {
			size = models.FileSize(d.ZipSize)
		}
		tbl.AppendRow(table.Row{
			d.Status,
			d.Kind,
			d.ModelDigest,
			name,
			d.Folder,
			d.ZipFileName,
			size,
			models.TimeStamp(d.LogModTime),
		})
	}

	c := models.CountLogs(logs)
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d", c.Total),
		fmt.Sprintf("ready: %d", c.Ready),
		fmt.Sprintf("progress: %d", c.Progress),
		fmt.Sprintf("error: %d", c.Error),
	})
	return tbl.Render()
}

// Files renders download folder tree items.
func Files(items []models.PathItem, opts Options) string {
	if len(items) == 0 {
		return msgNoData
	}
	tbl := newWriter(opts)
	tbl.AppendHeader(table.Row{"Path", "Size", "Modified"})

	var total int64
	for _, p := range items {
		size := ""
		if !p.IsDir {
			size = models.FileSize(p.Size)
			total += p.Size
		}
		tbl.AppendRow(table.Row{p.Path, size, models.TimeStamp(p.ModTime)})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d items", len(items)), models.FileSize(total), ""})
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tbl.Render()
}
