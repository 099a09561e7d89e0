package pipeline

import "unicode/utf8"

// fixedMeasurer gives every rune half the font size in width, bold or not.
type fixedMeasurer struct{}

func (fixedMeasurer) TextWidth(text string, _ bool, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
}

func lineText(runs []Run) string {
	return PlainText(runs)
}
