package pipeline

import (
	"errors"
	"fmt"
)

// ErrTableWidth is returned when a table cannot be laid out in the space given.
var ErrTableWidth = errors.New("table does not fit the available width")

// techniqueColumnWeights is the fixed split for the six-column technique
// report (technique, tactic, status, detection, notes, severity).
var techniqueColumnWeights = []float64{0.18, 0.12, 0.15, 0.18, 0.22, 0.15}

// Table styling of the fixed theme.
const (
	TableHeaderSize = 9.0
	TableBodySize   = 8.0
	TableCellPad    = 4.0
	TableLeading    = 1.25 // multiple of the font size
)

// TableCellLayout is a wrapped cell. Present is false for trailing cells a
// short row does not have.
type TableCellLayout struct {
	Present bool
	Header  bool
	Lines   [][]Run
	Size    float64
	Leading float64
}

// TableRowLayout is one laid-out row. Shade alternates 0/1 across data rows.
type TableRowLayout struct {
	Cells  []TableCellLayout
	Height float64
	Header bool
	Shade  int
}

// TableRegion is a laid-out table. Rows[0] is the header row and is repeated
// when the region is split across pages.
type TableRegion struct {
	Columns []float64
	Rows    []TableRowLayout
}

// Width returns the total width of the region.
func (t *TableRegion) Width() float64 {
	var w float64
	for _, c := range t.Columns {
		w += c
	}
	return w
}

// Height returns the total height of the region.
func (t *TableRegion) Height() float64 {
	var h float64
	for _, r := range t.Rows {
		h += r.Height
	}
	return h
}

// ColumnWidths assigns widths for columns columns sharing width.
func ColumnWidths(columns int, width float64) []float64 {
	widths := make([]float64, columns)
	if columns == len(techniqueColumnWeights) {
		for i, w := range techniqueColumnWeights {
			widths[i] = width * w
		}
		return widths
	}
	for i := range widths {
		widths[i] = width / float64(columns)
	}
	return widths
}

// LayoutTable assigns column widths and wraps each cell of a table block.
// A block without rows yields a nil region and no error.
func LayoutTable(b Block, width float64, m Measurer) (*TableRegion, error) {
	if len(b.Rows) == 0 {
		return nil, nil
	}

	columns := len(b.Rows[0].Cells)
	if columns == 0 {
		return nil, nil
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: %.2fpt for %d columns", ErrTableWidth, width, columns)
	}

	region := &TableRegion{Columns: ColumnWidths(columns, width)}
	for i, cw := range region.Columns {
		if cw <= 2*TableCellPad {
			return nil, fmt.Errorf("%w: column %d is %.2fpt wide", ErrTableWidth, i+1, cw)
		}
	}

	dataRow := 0
	for i, row := range b.Rows {
		rl := TableRowLayout{
			Cells:  make([]TableCellLayout, columns),
			Header: i == 0,
		}
		if !rl.Header {
			rl.Shade = dataRow % 2
			dataRow++
		}

		contentHeight := 0.0
		for c := 0; c < columns && c < len(row.Cells); c++ {
			cell := layoutCell(row.Cells[c], region.Columns[c]-2*TableCellPad, m)
			rl.Cells[c] = cell
			if h := float64(len(cell.Lines)) * cell.Leading; h > contentHeight {
				contentHeight = h
			}
		}
		if contentHeight == 0 {
			contentHeight = TableBodySize * TableLeading
		}
		rl.Height = contentHeight + 2*TableCellPad
		region.Rows = append(region.Rows, rl)
	}

	return region, nil
}

func layoutCell(cell Cell, width float64, m Measurer) TableCellLayout {
	size := TableBodySize
	if cell.Header {
		size = TableHeaderSize
	}

	runs := ParseSpans(cell.Text)
	if cell.Header {
		runs = []Run{{Text: PlainText(runs), Bold: true}}
	}

	return TableCellLayout{
		Present: true,
		Header:  cell.Header,
		Lines:   WrapSpans(runs, width, size, m),
		Size:    size,
		Leading: size * TableLeading,
	}
}
