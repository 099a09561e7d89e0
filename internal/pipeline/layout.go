package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is returned for page geometry that leaves no room for content.
var ErrInvalidGeometry = errors.New("invalid page geometry")

// Geometry describes the page in points. The flow cursor is measured from
// the bottom edge of the page, so it starts at PageHeight-MarginTop.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

// DefaultGeometry is US Letter with 0.75in margins.
var DefaultGeometry = Geometry{
	PageWidth:    612,
	PageHeight:   792,
	MarginTop:    54,
	MarginBottom: 54,
	MarginLeft:   54,
	MarginRight:  54,
}

// ContentWidth returns the usable width between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// ContentHeight returns the usable height between the top and bottom margins.
func (g Geometry) ContentHeight() float64 {
	return g.PageHeight - g.MarginTop - g.MarginBottom
}

// Validate reports geometry with no usable content area.
func (g Geometry) Validate() error {
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		return fmt.Errorf("%w: page %.2fx%.2fpt", ErrInvalidGeometry, g.PageWidth, g.PageHeight)
	}
	if g.MarginTop < 0 || g.MarginBottom < 0 || g.MarginLeft < 0 || g.MarginRight < 0 {
		return fmt.Errorf("%w: negative margin", ErrInvalidGeometry)
	}
	if g.ContentWidth() <= 0 {
		return fmt.Errorf("%w: content width %.2fpt", ErrInvalidGeometry, g.ContentWidth())
	}
	if g.ContentHeight() <= 0 {
		return fmt.Errorf("%w: content height %.2fpt", ErrInvalidGeometry, g.ContentHeight())
	}
	return nil
}

// Color is an RGB color with 0-255 components.
type Color struct {
	R, G, B int
}

// TextStyle is the fixed styling of one block kind.
type TextStyle struct {
	Size        float64
	Leading     float64
	SpaceBefore float64
	SpaceAfter  float64
	Indent      float64
	Bold        bool
	Color       Color
}

// Styles of the fixed theme.
var (
	StyleHeading1 = TextStyle{Size: 18, Leading: 22, SpaceBefore: 8, SpaceAfter: 6, Bold: true, Color: Color{139, 0, 0}}
	StyleHeading2 = TextStyle{Size: 14, Leading: 18, SpaceBefore: 6, SpaceAfter: 4, Bold: true, Color: Color{31, 56, 100}}
	StyleHeading3 = TextStyle{Size: 12, Leading: 15, SpaceBefore: 4, SpaceAfter: 2, Bold: true, Color: Color{31, 56, 100}}
	StyleSubtitle = TextStyle{Size: 12, Leading: 15, SpaceBefore: 4, SpaceAfter: 2, Bold: true, Color: Color{64, 64, 64}}
	StyleBody     = TextStyle{Size: 10, Leading: 13}
	StyleBullet   = TextStyle{Size: 10, Leading: 13, Indent: 14}
)

// BlankSpacing is the vertical space a blank line adds.
const BlankSpacing = 6.0

// Table spacing of the fixed theme.
const (
	TableSpaceBefore = 4.0
	TableSpaceAfter  = 6.0
)

// BulletMarker is drawn in the indent of the first line of a bullet item.
const BulletMarker = "•"

// LayoutLine is one wrapped line of text, the smallest unit placed on a page.
type LayoutLine struct {
	Runs    []Run
	Size    float64
	Leading float64
	Indent  float64
	Color   Color
	Marker  string
}

// ItemKind identifies what an Item holds.
type ItemKind int

// Item kinds.
const (
	ItemLine ItemKind = iota
	ItemSpace
	ItemTable
)

// Item is one flowable unit.
type Item struct {
	Kind  ItemKind
	Line  *LayoutLine
	Space float64
	Table *TableRegion
}

// Height returns the vertical space the item occupies.
func (it Item) Height() float64 {
	switch it.Kind {
	case ItemLine:
		return it.Line.Leading
	case ItemSpace:
		return it.Space
	case ItemTable:
		return it.Table.Height()
	}
	return 0
}

// LineItem wraps a line as an item.
func LineItem(l LayoutLine) Item {
	return Item{Kind: ItemLine, Line: &l}
}

// SpaceItem returns vertical spacing.
func SpaceItem(h float64) Item {
	return Item{Kind: ItemSpace, Space: h}
}

// Layout converts blocks into flowable items, wrapping text to the content
// width. A table that cannot be laid out fails the whole layout.
func Layout(blocks []Block, g Geometry, m Measurer) ([]Item, error) {
	width := g.ContentWidth()
	items := make([]Item, 0, len(blocks))

	for i, b := range blocks {
		switch b.Kind {
		case BlockBlank:
			items = append(items, SpaceItem(BlankSpacing))

		case BlockHeading:
			style := StyleHeading1
			switch b.Level {
			case 2:
				style = StyleHeading2
			case 3:
				style = StyleHeading3
			}
			items = appendText(items, ParseSpans(b.Text), style, width, m)

		case BlockSubtitle:
			items = appendText(items, ParseSpans(b.Text), StyleSubtitle, width, m)

		case BlockBullet:
			items = appendText(items, ParseSpans(b.Text), StyleBullet, width, m)

		case BlockParagraph:
			items = appendText(items, ParseSpans(b.Text), StyleBody, width, m)

		case BlockTable:
			region, err := LayoutTable(b, width, m)
			if err != nil {
				return nil, fmt.Errorf("laying out block %d: %w", i+1, err)
			}
			if region == nil {
				continue
			}
			items = append(items, SpaceItem(TableSpaceBefore), Item{Kind: ItemTable, Table: region}, SpaceItem(TableSpaceAfter))
		}
	}

	return items, nil
}

func appendText(items []Item, runs []Run, style TextStyle, width float64, m Measurer) []Item {
	if style.Bold {
		runs = []Run{{Text: PlainText(runs), Bold: true}}
	}
	lines := WrapSpans(runs, width-style.Indent, style.Size, m)
	if len(lines) == 0 {
		return items
	}

	if style.SpaceBefore > 0 {
		items = append(items, SpaceItem(style.SpaceBefore))
	}
	for i, runs := range lines {
		line := LayoutLine{
			Runs:    runs,
			Size:    style.Size,
			Leading: style.Leading,
			Indent:  style.Indent,
			Color:   style.Color,
		}
		if i == 0 && style.Indent > 0 {
			line.Marker = BulletMarker
		}
		items = append(items, LineItem(line))
	}
	if style.SpaceAfter > 0 {
		items = append(items, SpaceItem(style.SpaceAfter))
	}
	return items
}
