package pipeline

import (
	"strings"
	"unicode/utf8"
)

// Measurer reports the rendered width of text in points.
type Measurer interface {
	TextWidth(text string, bold bool, size float64) float64
}

// Run is a stretch of text drawn in one style.
type Run struct {
	Text string
	Bold bool
}

const (
	boldOpenTag  = "<b>"
	boldCloseTag = "</b>"
)

// ParseSpans splits sanitized text into runs on <b> markup. An unclosed <b>
// stays bold to the end of the text; a stray </b> is ignored.
func ParseSpans(text string) []Run {
	var runs []Run
	bold := false
	for text != "" {
		tag := boldOpenTag
		if bold {
			tag = boldCloseTag
		}
		idx := strings.Index(text, tag)
		if idx < 0 {
			runs = appendRun(runs, Run{Text: text, Bold: bold})
			break
		}
		runs = appendRun(runs, Run{Text: text[:idx], Bold: bold})
		text = text[idx+len(tag):]
		bold = !bold
	}
	for i := range runs {
		runs[i].Text = strings.ReplaceAll(runs[i].Text, boldCloseTag, "")
	}
	return runs
}

func appendRun(runs []Run, r Run) []Run {
	if r.Text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].Bold == r.Bold {
		runs[n-1].Text += r.Text
		return runs
	}
	return append(runs, r)
}

// PlainText joins the text of runs, dropping styling.
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// word is a wrapping token: a whitespace-free stretch of one style. glued
// marks a word that continues the previous one without a space.
type word struct {
	text  string
	bold  bool
	glued bool
}

func splitWords(runs []Run) []word {
	var words []word
	pendingSpace := false
	for _, r := range runs {
		text := r.Text
		for text != "" {
			i := strings.IndexAny(text, " \t\n")
			if i == 0 {
				pendingSpace = true
				text = text[1:]
				continue
			}
			chunk := text
			if i > 0 {
				chunk, text = text[:i], text[i:]
			} else {
				text = ""
			}
			words = append(words, word{text: chunk, bold: r.Bold, glued: len(words) > 0 && !pendingSpace})
			pendingSpace = false
		}
	}
	return words
}

// WrapSpans greedily fills lines no wider than width. Glued words move to
// the next line together; a group wider than a whole line is broken between
// runes. Every line holds at least one rune so wrapping always terminates,
// even for a non-positive width.
func WrapSpans(runs []Run, width, size float64, m Measurer) [][]Run {
	words := splitWords(runs)
	if len(words) == 0 {
		return nil
	}

	var lines [][]Run
	var current []Run
	lineWidth := 0.0

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, current)
		}
		current = nil
		lineWidth = 0
	}
	place := func(text string, bold bool) {
		current = appendRun(current, Run{Text: text, Bold: bold})
		lineWidth += m.TextWidth(text, bold, size)
	}

	for _, group := range groupWords(words) {
		groupWidth := 0.0
		for _, w := range group {
			groupWidth += m.TextWidth(w.text, w.bold, size)
		}

		prefix := ""
		if len(current) > 0 {
			prefix = " "
			if lineWidth+m.TextWidth(prefix, group[0].bold, size)+groupWidth > width {
				flush()
				prefix = ""
			}
		}

		if groupWidth <= width {
			for i, w := range group {
				if i == 0 {
					place(prefix+w.text, w.bold)
					continue
				}
				place(w.text, w.bold)
			}
			continue
		}

		// Oversized group on a fresh line: fill word by word, breaking
		// the words that cannot fit a line on their own.
		for _, w := range group {
			ww := m.TextWidth(w.text, w.bold, size)
			if lineWidth+ww <= width {
				place(w.text, w.bold)
				continue
			}
			if ww <= width {
				flush()
				place(w.text, w.bold)
				continue
			}
			for _, piece := range breakWord(w.text, width, w.bold, size, m) {
				if len(current) > 0 {
					flush()
				}
				place(piece, w.bold)
			}
		}
	}
	flush()

	return lines
}

// groupWords splits words at spaces; each group is a word followed by the
// words glued to it.
func groupWords(words []word) [][]word {
	var groups [][]word
	for _, w := range words {
		if w.glued && len(groups) > 0 {
			groups[len(groups)-1] = append(groups[len(groups)-1], w)
			continue
		}
		groups = append(groups, []word{w})
	}
	return groups
}

// breakWord splits a word into pieces that each fit width, one rune minimum.
func breakWord(text string, width float64, bold bool, size float64, m Measurer) []string {
	var pieces []string
	for text != "" {
		end := 0
		for end < len(text) {
			_, n := utf8.DecodeRuneInString(text[end:])
			if end > 0 && m.TextWidth(text[:end+n], bold, size) > width {
				break
			}
			end += n
		}
		pieces = append(pieces, text[:end])
		text = text[end:]
	}
	return pieces
}
