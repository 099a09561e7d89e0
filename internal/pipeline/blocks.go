package pipeline

import (
	"regexp"
	"strings"
)

// BlockKind identifies the variant held by a Block.
type BlockKind int

// Block kinds.
const (
	BlockBlank BlockKind = iota
	BlockHeading
	BlockSubtitle
	BlockBullet
	BlockParagraph
	BlockTable
)

var blockKindNames = [...]string{
	BlockBlank:     "blank",
	BlockHeading:   "heading",
	BlockSubtitle:  "subtitle",
	BlockBullet:    "bullet",
	BlockParagraph: "paragraph",
	BlockTable:     "table",
}

func (k BlockKind) String() string {
	if k < 0 || int(k) >= len(blockKindNames) {
		return "unknown"
	}
	return blockKindNames[k]
}

// Block is one semantic unit of a report. Level is set for headings (1..3),
// Rows for tables, Text for everything else except blanks.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
	Rows  []Row
}

// Row is one retained table row. Rows of the same table may differ in length.
type Row struct {
	Cells []Cell
}

// Cell is a sanitized table cell.
type Cell struct {
	Text   string
	Header bool
}

// separatorCell marks a row as a header/body separator wherever it appears.
const separatorCell = "---"

// headerEmphasis matches raw cell text that styles itself as a column label.
var headerEmphasis = regexp.MustCompile(`(?i)\*\*[^*]+\*\*|<(?:b|strong)>|^\s*#+\s`)

// SplitLines normalizes line endings and splits source text into lines.
func SplitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	return strings.Split(source, "\n")
}

// BuildBlocks classifies every line and groups the result into blocks in
// source order. Contiguous table rows and separators form one table block.
func BuildBlocks(lines []string) []Block {
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); {
		line := Classify(lines[i])
		i++

		switch line.Tag {
		case TagBlank:
			blocks = append(blocks, Block{Kind: BlockBlank})
		case TagH1:
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 1, Text: Sanitize(line.Payload, true)})
		case TagH2:
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 2, Text: Sanitize(line.Payload, true)})
		case TagSubtitle:
			blocks = append(blocks, Block{Kind: BlockSubtitle, Text: Sanitize(line.Payload, true)})
		case TagBullet:
			blocks = append(blocks, Block{Kind: BlockBullet, Text: Sanitize(line.Payload, false)})
		case TagParagraph:
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: Sanitize(line.Payload, false)})
		case TagTableRow, TagTableSeparator:
			// A leading separator with no rows after it is dropped entirely.
			raw := []Line{line}
			for i < len(lines) {
				next := Classify(lines[i])
				if next.Tag != TagTableRow && next.Tag != TagTableSeparator {
					break
				}
				raw = append(raw, next)
				i++
			}
			if rows := buildRows(raw); len(rows) > 0 {
				blocks = append(blocks, Block{Kind: BlockTable, Rows: rows})
			}
		}
	}

	return blocks
}

// buildRows turns accumulated table lines into rows, dropping separators.
func buildRows(lines []Line) []Row {
	var rows []Row
	for _, line := range lines {
		if line.Tag == TagTableSeparator {
			continue
		}
		fields := splitCells(line.Payload)
		if isSeparatorRow(fields) {
			continue
		}

		first := len(rows) == 0
		cells := make([]Cell, len(fields))
		for j, raw := range fields {
			header := first || headerEmphasis.MatchString(raw)
			cells[j] = Cell{Text: Sanitize(raw, header), Header: header}
		}
		rows = append(rows, Row{Cells: cells})
	}
	return rows
}

// splitCells splits a table line on the delimiter and drops the empty fields
// produced by the outer delimiters.
func splitCells(line string) []string {
	fields := strings.Split(line, TableDelimiter)
	if len(fields) > 0 && strings.TrimSpace(fields[0]) == "" {
		fields = fields[1:]
	}
	if len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

func isSeparatorRow(fields []string) bool {
	for _, f := range fields {
		if strings.Contains(f, separatorCell) {
			return true
		}
	}
	return false
}
