package reportpdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/neova-apexred/reportpdf/internal/pipeline"
)

// Core font; its metrics ship with gofpdf so no font files are needed.
const fontFamily = "Helvetica"

// creator is written to the PDF metadata.
const creator = "reportpdf"

var _ pipeline.Measurer = (*fontMeasurer)(nil)

// newDocument creates an empty document in points with automatic page
// breaks disabled. Page breaks come from the flow engine.
func newDocument(g Geometry) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(g.MarginLeft, g.MarginTop, g.MarginRight)
	pdf.SetAutoPageBreak(false, g.MarginBottom)
	pdf.SetCreator(creator, false)
	return pdf
}

// fontMeasurer measures text with the core font metrics of a document.
// It changes the document's current font, so callers set the font again
// before drawing.
type fontMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newFontMeasurer(pdf *gofpdf.Fpdf, tr func(string) string) *fontMeasurer {
	return &fontMeasurer{pdf: pdf, tr: tr}
}

func (m *fontMeasurer) TextWidth(text string, bold bool, size float64) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(bold), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}

// baseline returns the y coordinate (from the top edge) of the text baseline
// for a line of the given size whose box starts at top and is leading tall.
func baseline(top, size, leading float64) float64 {
	return top + (leading-size)/2 + size*0.8
}

// toPageY converts a flow cursor (from the bottom edge) to a y coordinate
// from the top edge.
func toPageY(g Geometry, cursor float64) float64 {
	return g.PageHeight - cursor
}

// encode serializes a finished document.
func encode(pdf *gofpdf.Fpdf) ([]byte, error) {
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaint, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaint, err)
	}
	return buf.Bytes(), nil
}
