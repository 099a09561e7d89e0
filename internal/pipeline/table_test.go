package pipeline

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func tableBlock(rows ...[]Cell) Block {
	b := Block{Kind: BlockTable}
	for _, cells := range rows {
		b.Rows = append(b.Rows, Row{Cells: cells})
	}
	return b
}

func headerCells(texts ...string) []Cell {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell{Text: t, Header: true}
	}
	return cells
}

func dataCells(texts ...string) []Cell {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell{Text: t}
	}
	return cells
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ---------------------------------------------------------------------------
// TestColumnWidths - Fixed six-column split and equal split
// ---------------------------------------------------------------------------

func TestColumnWidths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns int
		width   float64
		want    []float64
	}{
		{name: "six columns weighted", columns: 6, width: 600, want: []float64{108, 72, 90, 108, 132, 90}},
		{name: "three columns equal", columns: 3, width: 300, want: []float64{100, 100, 100}},
		{name: "one column", columns: 1, width: 250, want: []float64{250}},
		{name: "seven columns equal", columns: 7, width: 700, want: []float64{100, 100, 100, 100, 100, 100, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ColumnWidths(tt.columns, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("ColumnWidths() returned %d widths, want %d", len(got), len(tt.want))
			}
			sum := 0.0
			for i := range got {
				sum += got[i]
				if !approxEqual(got[i], tt.want[i]) {
					t.Errorf("width[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if !approxEqual(sum, tt.width) {
				t.Errorf("sum of widths = %v, want %v", sum, tt.width)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLayoutTable - Cell wrapping, header styling, ragged rows
// ---------------------------------------------------------------------------

func TestLayoutTable(t *testing.T) {
	t.Parallel()

	t.Run("header and shading", func(t *testing.T) {
		t.Parallel()

		b := tableBlock(
			headerCells("A", "B"),
			dataCells("1", "2"),
			dataCells("3", "4"),
			dataCells("5", "6"),
		)
		region, err := LayoutTable(b, 200, fixedMeasurer{})
		if err != nil {
			t.Fatalf("LayoutTable() error = %v", err)
		}
		if len(region.Rows) != 4 {
			t.Fatalf("rows = %d, want 4", len(region.Rows))
		}
		if !region.Rows[0].Header {
			t.Error("first row not marked header")
		}
		for i, want := range []int{0, 1, 0} {
			if got := region.Rows[i+1].Shade; got != want {
				t.Errorf("row %d shade = %d, want %d", i+1, got, want)
			}
		}

		head := region.Rows[0].Cells[0]
		if !head.Header || head.Size != TableHeaderSize {
			t.Errorf("header cell = %+v, want header at size %v", head, TableHeaderSize)
		}
		if len(head.Lines) != 1 || !head.Lines[0][0].Bold {
			t.Errorf("header cell lines = %+v, want one bold line", head.Lines)
		}
		wantHeight := TableHeaderSize*TableLeading + 2*TableCellPad
		if !approxEqual(region.Rows[0].Height, wantHeight) {
			t.Errorf("header height = %v, want %v", region.Rows[0].Height, wantHeight)
		}
		if got := region.Rows[1].Cells[0].Size; got != TableBodySize {
			t.Errorf("data cell size = %v, want %v", got, TableBodySize)
		}
	})

	t.Run("long cell wraps and sets row height", func(t *testing.T) {
		t.Parallel()

		// Columns are 100pt, 92pt of text: 23 runes per line at 8pt.
		long := "word word word word word word word word word word"
		b := tableBlock(headerCells("A", "B"), dataCells(long, "x"))
		region, err := LayoutTable(b, 200, fixedMeasurer{})
		if err != nil {
			t.Fatalf("LayoutTable() error = %v", err)
		}
		cell := region.Rows[1].Cells[0]
		if len(cell.Lines) < 2 {
			t.Fatalf("long cell produced %d lines, want wrapping", len(cell.Lines))
		}
		for _, l := range cell.Lines {
			if w := (fixedMeasurer{}).TextWidth(lineText(l), false, TableBodySize); w > 92 {
				t.Errorf("line %q is %vpt wide, want <= 92", lineText(l), w)
			}
		}
		wantHeight := float64(len(cell.Lines))*cell.Leading + 2*TableCellPad
		if !approxEqual(region.Rows[1].Height, wantHeight) {
			t.Errorf("row height = %v, want %v", region.Rows[1].Height, wantHeight)
		}
	})

	t.Run("bold run glued to text wraps inside the cell", func(t *testing.T) {
		t.Parallel()

		glued := Sanitize("x**"+strings.Repeat("y", 60)+"**", false)
		b := tableBlock(headerCells("A", "B"), dataCells(glued, "x"))
		region, err := LayoutTable(b, 200, fixedMeasurer{})
		if err != nil {
			t.Fatalf("LayoutTable() error = %v", err)
		}
		cell := region.Rows[1].Cells[0]
		if len(cell.Lines) < 2 {
			t.Fatalf("glued cell produced %d lines, want wrapping", len(cell.Lines))
		}
		m := fixedMeasurer{}
		for _, l := range cell.Lines {
			var w float64
			for _, r := range l {
				w += m.TextWidth(r.Text, r.Bold, TableBodySize)
			}
			if w > 92 {
				t.Errorf("line %q is %vpt wide, want <= 92", lineText(l), w)
			}
		}
	})

	t.Run("short and long rows", func(t *testing.T) {
		t.Parallel()

		b := tableBlock(
			headerCells("A", "B", "C"),
			dataCells("1"),
			dataCells("1", "2", "3", "4"),
		)
		region, err := LayoutTable(b, 300, fixedMeasurer{})
		if err != nil {
			t.Fatalf("LayoutTable() error = %v", err)
		}
		short := region.Rows[1].Cells
		if len(short) != 3 || !short[0].Present || short[1].Present || short[2].Present {
			t.Errorf("short row presence = %+v, want only first cell present", short)
		}
		if got := len(region.Rows[2].Cells); got != 3 {
			t.Errorf("long row cells = %d, want 3 (extra cells dropped)", got)
		}
	})

	t.Run("header override cell in data row", func(t *testing.T) {
		t.Parallel()

		b := tableBlock(headerCells("A", "B"), []Cell{{Text: "Total", Header: true}, {Text: "5"}})
		region, err := LayoutTable(b, 200, fixedMeasurer{})
		if err != nil {
			t.Fatalf("LayoutTable() error = %v", err)
		}
		if region.Rows[1].Header {
			t.Error("data row marked as header row")
		}
		if c := region.Rows[1].Cells[0]; !c.Header || c.Size != TableHeaderSize {
			t.Errorf("override cell = %+v, want header styling", c)
		}
	})

	t.Run("no rows is omitted", func(t *testing.T) {
		t.Parallel()

		region, err := LayoutTable(Block{Kind: BlockTable}, 200, fixedMeasurer{})
		if err != nil || region != nil {
			t.Errorf("LayoutTable(empty) = %v, %v; want nil, nil", region, err)
		}
	})

	t.Run("non-positive width fails", func(t *testing.T) {
		t.Parallel()

		b := tableBlock(headerCells("1", "2", "3", "4", "5", "6"))
		for _, w := range []float64{0, -50} {
			if _, err := LayoutTable(b, w, fixedMeasurer{}); !errors.Is(err, ErrTableWidth) {
				t.Errorf("LayoutTable(width=%v) error = %v, want ErrTableWidth", w, err)
			}
		}
	})

	t.Run("columns narrower than padding fail", func(t *testing.T) {
		t.Parallel()

		b := tableBlock(headerCells("1", "2", "3", "4", "5", "6"))
		if _, err := LayoutTable(b, 30, fixedMeasurer{}); !errors.Is(err, ErrTableWidth) {
			t.Errorf("LayoutTable(width=30) error = %v, want ErrTableWidth", err)
		}
	})
}
