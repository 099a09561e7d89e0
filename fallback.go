package reportpdf

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/neova-apexred/reportpdf/internal/pipeline"
)

// Fallback styling. Headings are larger and bold; everything else is body text.
const (
	fallbackHeadingSize    = 13.0
	fallbackHeadingLeading = 17.0
	fallbackBodySize       = 10.0
	fallbackBodyLeading    = 13.0
	fallbackCellMax        = 32
	fallbackCellSeparator  = " | "
)

var (
	fallbackTag       = regexp.MustCompile(`<[^<>]*>`)
	fallbackSeparator = regexp.MustCompile(`^[\s:|-]*-[\s:|-]*$`)
)

// fallbackLine is one line of the reduced grammar.
type fallbackLine struct {
	text    string
	heading bool
	blank   bool
	skip    bool
}

// fallbackTier renders plain ASCII lines with the core font. It shares only
// the flow engine with the rich tier and stays usable when the configured
// geometry is not.
type fallbackTier struct{}

func (fallbackTier) render(ctx context.Context, j job) (*Artifact, error) {
	g := j.geometry
	if g.Validate() != nil {
		g = DefaultGeometry
	}

	pdf := newDocument(g)
	m := newFontMeasurer(pdf, func(s string) string { return s })

	var items []pipeline.Item
	for _, raw := range pipeline.SplitLines(j.text) {
		fl := tokenizeFallback(raw)
		switch {
		case fl.skip:
			continue
		case fl.blank:
			items = append(items, pipeline.SpaceItem(pipeline.BlankSpacing))
			continue
		}

		size, leading := fallbackBodySize, fallbackBodyLeading
		if fl.heading {
			size, leading = fallbackHeadingSize, fallbackHeadingLeading
		}
		runs := []pipeline.Run{{Text: fl.text, Bold: fl.heading}}
		for _, wrapped := range pipeline.WrapSpans(runs, g.ContentWidth(), size, m) {
			items = append(items, pipeline.LineItem(pipeline.LayoutLine{
				Runs:    wrapped,
				Size:    size,
				Leading: leading,
			}))
		}
	}
	pages := pipeline.Flow(items, g)

	if title := foldASCII(j.title); title != "" {
		pdf.SetTitle(title, false)
	}
	pdf.SetTextColor(0, 0, 0)
	for _, page := range pages {
		pdf.AddPage()
		for _, placed := range page.Items {
			if placed.Item.Kind != pipeline.ItemLine {
				continue
			}
			l := placed.Item.Line
			x := g.MarginLeft
			y := baseline(toPageY(g, placed.Top), l.Size, l.Leading)
			for _, r := range l.Runs {
				pdf.SetFont(fontFamily, fontStyle(r.Bold), l.Size)
				pdf.Text(x, y, r.Text)
				x += pdf.GetStringWidth(r.Text)
			}
		}
	}

	data, err := encode(pdf)
	if err != nil {
		return nil, err
	}
	if err := finalize(ctx, j.path, data); err != nil {
		return nil, err
	}
	return &Artifact{Path: j.path, PageCount: len(pages), Tier: TierFallback}, nil
}

// tokenizeFallback maps a source line to the reduced grammar: headings,
// flattened table rows, dash bullets and plain text.
func tokenizeFallback(line string) fallbackLine {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return fallbackLine{blank: true}

	case isFallbackHeading(trimmed):
		text := plainFallback(strings.TrimLeft(trimmed, "#"))
		if text == "" {
			return fallbackLine{skip: true}
		}
		return fallbackLine{text: text, heading: true}

	case len(trimmed) > 1 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|"):
		if fallbackSeparator.MatchString(trimmed) {
			return fallbackLine{skip: true}
		}
		fields := strings.Split(strings.Trim(trimmed, "|"), "|")
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = truncateCell(plainFallback(f))
		}
		return fallbackLine{text: strings.Join(cells, fallbackCellSeparator)}

	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return fallbackLine{text: "- " + plainFallback(trimmed[2:])}
	}

	text := plainFallback(trimmed)
	if text == "" {
		return fallbackLine{skip: true}
	}
	return fallbackLine{text: text}
}

// isFallbackHeading accepts the same heading prefixes as the line classifier.
func isFallbackHeading(line string) bool {
	for _, prefix := range []string{"# ", "## ", "### "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// plainFallback drops emphasis markers and tags, folds to ASCII and
// collapses whitespace.
func plainFallback(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = fallbackTag.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Join(strings.Fields(foldASCII(s)), " ")
}

// foldASCII decomposes accented letters to their base letter and drops
// everything outside printable ASCII.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncateCell(s string) string {
	if len(s) > fallbackCellMax {
		return s[:fallbackCellMax]
	}
	return s
}
