package pipeline

import (
	"regexp"
	"strings"
)

// Tag identifies the kind of a single source line.
type Tag int

// Line tags, in classification priority order.
const (
	TagBlank Tag = iota
	TagH1
	TagSubtitle
	TagH2
	TagTableRow
	TagTableSeparator
	TagBullet
	TagParagraph
)

var tagNames = [...]string{
	TagBlank:          "blank",
	TagH1:             "h1",
	TagSubtitle:       "subtitle",
	TagH2:             "h2",
	TagTableRow:       "table-row",
	TagTableSeparator: "table-separator",
	TagBullet:         "bullet",
	TagParagraph:      "paragraph",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// TableDelimiter separates table cells.
const TableDelimiter = "|"

// Line is a classified source line. Payload is the line content with the
// markup prefix removed; for table lines it is the whole trimmed line.
type Line struct {
	Tag     Tag
	Payload string
}

var (
	fullyBold     = regexp.MustCompile(`^\*\*(.+)\*\*$`)
	separatorBody = regexp.MustCompile(`^[\s:|-]*-[\s:|-]*$`)
)

// Classify tags a single line. It is pure and looks at nothing but the line.
func Classify(line string) Line {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return Line{Tag: TagBlank}

	case strings.HasPrefix(trimmed, "# "):
		return Line{Tag: TagH1, Payload: strings.TrimSpace(trimmed[2:])}

	case strings.HasPrefix(trimmed, "### "):
		rest := strings.TrimSpace(trimmed[4:])
		if m := fullyBold.FindStringSubmatch(rest); m != nil {
			return Line{Tag: TagSubtitle, Payload: strings.TrimSpace(m[1])}
		}

	case strings.HasPrefix(trimmed, "## "):
		return Line{Tag: TagH2, Payload: strings.TrimSpace(trimmed[3:])}
	}

	if isTableLine(trimmed) {
		if separatorBody.MatchString(trimmed) {
			return Line{Tag: TagTableSeparator, Payload: trimmed}
		}
		return Line{Tag: TagTableRow, Payload: trimmed}
	}

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return Line{Tag: TagBullet, Payload: strings.TrimSpace(trimmed[2:])}
	}

	return Line{Tag: TagParagraph, Payload: trimmed}
}

// isTableLine reports whether s starts and ends with the delimiter and has at
// least one delimiter in between.
func isTableLine(s string) bool {
	if len(s) < 3 || !strings.HasPrefix(s, TableDelimiter) || !strings.HasSuffix(s, TableDelimiter) {
		return false
	}
	return strings.Contains(s[1:len(s)-1], TableDelimiter)
}
