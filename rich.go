package reportpdf

import (
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/neova-apexred/reportpdf/internal/pipeline"
)

// Table and footer colors of the fixed theme.
var (
	tableHeaderFill = pipeline.Color{R: 31, G: 56, B: 100}
	tableHeaderText = pipeline.Color{R: 255, G: 255, B: 255}
	tableLabelText  = pipeline.Color{R: 31, G: 56, B: 100}
	tableBodyText   = pipeline.Color{R: 33, G: 33, B: 33}
	tableGrid       = pipeline.Color{R: 128, G: 128, B: 128}
	footerText      = pipeline.Color{R: 128, G: 128, B: 128}
)

// tableShades alternate across data rows.
var tableShades = [2]pipeline.Color{
	{R: 255, G: 255, B: 255},
	{R: 242, G: 242, B: 242},
}

const (
	tableGridWidth = 0.5
	footerSize     = 8.0
	footerDate     = "2006-01-02"
	markerGap      = 4.0
)

// richTier renders the full theme: styled headings, wrapped tables and a
// page footer.
type richTier struct{}

func (richTier) render(ctx context.Context, j job) (*Artifact, error) {
	g := j.geometry
	if err := g.Validate(); err != nil {
		return nil, err
	}

	pdf := newDocument(g)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	m := newFontMeasurer(pdf, tr)

	blocks := pipeline.BuildBlocks(pipeline.SplitLines(j.text))
	items, err := pipeline.Layout(blocks, g, m)
	if err != nil {
		return nil, err
	}
	pages := pipeline.Flow(items, g)

	p := &richPainter{pdf: pdf, tr: tr, m: m, g: g}
	if j.title != "" {
		pdf.SetTitle(j.title, true)
	}
	pdf.AliasNbPages("")
	layout := j.dateLayout
	if layout == "" {
		layout = footerDate
	}
	pdf.SetFooterFunc(func() { p.footer(j.date.Format(layout)) })

	for _, page := range pages {
		pdf.AddPage()
		for _, placed := range page.Items {
			p.paint(placed)
		}
	}

	data, err := encode(pdf)
	if err != nil {
		return nil, err
	}
	if err := finalize(ctx, j.path, data); err != nil {
		return nil, err
	}
	return &Artifact{Path: j.path, PageCount: len(pages), Tier: TierRich}, nil
}

type richPainter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	m   *fontMeasurer
	g   Geometry
}

func (p *richPainter) paint(placed pipeline.Placed) {
	top := toPageY(p.g, placed.Top)
	switch placed.Item.Kind {
	case pipeline.ItemLine:
		p.line(placed.Item.Line, top)
	case pipeline.ItemTable:
		p.table(placed.Item.Table, top)
	case pipeline.ItemSpace:
	default:
		panic(fmt.Sprintf("unknown item kind %d", placed.Item.Kind))
	}
}

func (p *richPainter) line(l *pipeline.LayoutLine, top float64) {
	x := p.g.MarginLeft + l.Indent
	y := baseline(top, l.Size, l.Leading)
	p.textColor(l.Color)

	if l.Marker != "" {
		p.pdf.SetFont(fontFamily, "", l.Size)
		mw := p.pdf.GetStringWidth(p.tr(l.Marker))
		p.pdf.Text(x-mw-markerGap, y, p.tr(l.Marker))
	}
	p.runs(l.Runs, x, y, l.Size)
}

// runs draws styled runs left to right from x.
func (p *richPainter) runs(runs []pipeline.Run, x, y, size float64) {
	for _, r := range runs {
		text := p.tr(r.Text)
		p.pdf.SetFont(fontFamily, fontStyle(r.Bold), size)
		p.pdf.Text(x, y, text)
		x += p.pdf.GetStringWidth(text)
	}
}

func (p *richPainter) runsWidth(runs []pipeline.Run, size float64) float64 {
	var w float64
	for _, r := range runs {
		w += p.m.TextWidth(r.Text, r.Bold, size)
	}
	return w
}

func (p *richPainter) table(t *pipeline.TableRegion, top float64) {
	x0 := p.g.MarginLeft
	y := top
	p.pdf.SetLineWidth(tableGridWidth)
	p.drawColor(tableGrid)

	for _, row := range t.Rows {
		fill := tableShades[row.Shade%len(tableShades)]
		if row.Header {
			fill = tableHeaderFill
		}
		x := x0
		for c, w := range t.Columns {
			p.fillColor(fill)
			p.pdf.Rect(x, y, w, row.Height, "FD")
			if cell := row.Cells[c]; cell.Present {
				p.cell(cell, row.Header, x, y, w)
			}
			x += w
		}
		y += row.Height
	}

	p.pdf.Rect(x0, top, t.Width(), t.Height(), "D")
}

// cell draws a wrapped cell. Header cells are centered, data cells left aligned.
func (p *richPainter) cell(c pipeline.TableCellLayout, headerRow bool, x, y, w float64) {
	switch {
	case headerRow:
		p.textColor(tableHeaderText)
	case c.Header:
		p.textColor(tableLabelText)
	default:
		p.textColor(tableBodyText)
	}

	for i, runs := range c.Lines {
		lineTop := y + pipeline.TableCellPad + float64(i)*c.Leading
		lx := x + pipeline.TableCellPad
		if c.Header {
			lx = x + (w-p.runsWidth(runs, c.Size))/2
		}
		p.runs(runs, lx, baseline(lineTop, c.Size, c.Leading), c.Size)
	}
}

// footer writes the generation date and "Page N of M" below the content area.
func (p *richPainter) footer(date string) {
	h := footerSize * pipeline.TableLeading
	y := p.g.PageHeight - p.g.MarginBottom/2 - h/2
	width := p.g.ContentWidth()

	p.textColor(footerText)
	p.pdf.SetFont(fontFamily, "", footerSize)
	p.pdf.SetXY(p.g.MarginLeft, y)
	p.pdf.CellFormat(width, h, p.tr("Generated "+date), "", 0, "L", false, 0, "")
	p.pdf.SetXY(p.g.MarginLeft, y)
	p.pdf.CellFormat(width, h, fmt.Sprintf("Page %d of {nb}", p.pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (p *richPainter) textColor(c pipeline.Color) { p.pdf.SetTextColor(c.R, c.G, c.B) }
func (p *richPainter) fillColor(c pipeline.Color) { p.pdf.SetFillColor(c.R, c.G, c.B) }
func (p *richPainter) drawColor(c pipeline.Color) { p.pdf.SetDrawColor(c.R, c.G, c.B) }
