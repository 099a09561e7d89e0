package pipeline

import (
	"regexp"
	"strings"
)

// punctuationFixes maps mis-encoded punctuation (UTF-8 read as cp1252) to the
// intended character. Order matters: longer sequences come first.
var punctuationFixes = []string{
	"â€”", "-",
	"â€“", "-",
	"â€¢", "•",
	"â€™", "'",
	"â€˜", "'",
	"â€œ", `"`,
	"â€\u009d", `"`,
	"â€¦", "...",
	"Â\u00a0", " ",
	"\u00a0", " ",
}

// noiseSequences lists decorative glyphs and mis-encoded byte sequences that
// the report generator emits as status markers. They are removed verbatim;
// extend the table rather than adding logic.
var noiseSequences = []string{
	// mojibake of emoji status markers
	"ðŸ”´", "ðŸŸ¢", "ðŸŸ¡", "ðŸŸ\u00a0", "ðŸ”µ",
	"ðŸ“Š", "ðŸ“Œ", "ðŸ“\u009d", "ðŸ”\u008d", "ðŸ”’", "ðŸ”“",
	"ðŸŽ¯", "ðŸš¨", "ðŸ’¡", "ðŸ›¡", "ðŸ§ª",
	"âœ…", "âŒ", "âš\u00a0", "â\u00ad\u0090", "âœ”",
	"ï¸\u008f",
	// emoji status markers
	"🔴", "🟢", "🟡", "🟠", "🔵",
	"📊", "📌", "📝", "🔍", "🔒", "🔓",
	"🎯", "🚨", "💡", "🛡", "🧪",
	"✅", "❌", "⚠", "⭐", "✔",
	// variation selector, zero-width joiner and zero-width space
	"\ufe0f", "\u200d", "\u200b",
}

var (
	punctuationReplacer = strings.NewReplacer(punctuationFixes...)
	noiseReplacer       = strings.NewReplacer(pairWithEmpty(noiseSequences)...)

	boldPair        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	markupTag       = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	strongOpen      = regexp.MustCompile(`(?i)<(?:strong|b)(?:\s[^<>]*)?>`)
	strongClose     = regexp.MustCompile(`(?i)</(?:strong|b)\s*>`)
	nonBoldTag      = regexp.MustCompile(`</?(?:[AC-Zac-z][A-Za-z0-9]*|[Bb][A-Za-z0-9]+)(?:[\s/][^<>]*)?>`)
	nestedBoldOpen  = regexp.MustCompile(`(?:<b>\s*){2,}`)
	nestedBoldClose = regexp.MustCompile(`(?:\s*</b>){2,}`)
	emptyBold       = regexp.MustCompile(`<b>\s*</b>`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

func pairWithEmpty(seqs []string) []string {
	out := make([]string, 0, len(seqs)*2)
	for _, s := range seqs {
		out = append(out, s, "")
	}
	return out
}

// Sanitize normalizes a raw text fragment.
//
// Known mis-encoded punctuation is repaired, decorative noise is removed and
// whitespace is collapsed. With forHeader set every emphasis marker and markup
// tag is stripped; otherwise one level of **bold** becomes a <b> span.
// Sanitize(Sanitize(s, h), h) == Sanitize(s, h).
func Sanitize(text string, forHeader bool) string {
	// Each pass can join fragments into a new match (a stripped tag between
	// two asterisks, or nested noise sequences), so run to a fixed point. A
	// changing pass either removes four asterisks or leaves the text no
	// longer, so the loop ends.
	for {
		next := sanitizeOnce(text, forHeader)
		if next == text {
			return text
		}
		text = next
	}
}

func sanitizeOnce(text string, forHeader bool) string {
	if text == "" {
		return ""
	}

	text = noiseReplacer.Replace(punctuationReplacer.Replace(text))

	if forHeader {
		text = strings.ReplaceAll(text, "**", "")
		text = markupTag.ReplaceAllString(text, "")
	} else {
		text = normalizeBold(text)
	}

	return collapseWhitespace(text)
}

// normalizeBold converts **x** pairs to <b>x</b> and reduces any other markup
// to a single level of <b> spans.
func normalizeBold(text string) string {
	text = strongOpen.ReplaceAllString(text, "<b>")
	text = strongClose.ReplaceAllString(text, "</b>")
	text = nonBoldTag.ReplaceAllString(text, "")
	text = boldPair.ReplaceAllString(text, "<b>$1</b>")
	text = nestedBoldOpen.ReplaceAllString(text, "<b>")
	text = nestedBoldClose.ReplaceAllString(text, "</b>")
	text = emptyBold.ReplaceAllString(text, "")
	return text
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
