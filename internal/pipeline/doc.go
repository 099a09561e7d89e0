// Package pipeline implements the report-to-page layout pipeline.
//
// The stages run strictly in order and hold no state between calls:
//   - Sanitize normalizes text fragments (noise removal, bold markup)
//   - Classify tags a single source line
//   - BuildBlocks groups classified lines into blocks, merging table rows
//   - LayoutTable sizes columns and wraps table cells
//   - Layout turns blocks into flowable items (lines, spacing, tables)
//   - Flow places items on pages against the page margins
//
// Painting pages into a PDF and writing the file are handled by the root
// reportpdf package. Keeping this package free of PDF and file system
// concerns makes every stage testable with a fixed-width Measurer.
package pipeline
