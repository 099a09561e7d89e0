// Package reportpdf renders semi-structured text reports to paginated PDF.
//
// # Quick Start
//
// Create a renderer and render report text to a file:
//
//	r, err := reportpdf.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	art, err := r.Render(ctx, reportpdf.Input{
//	    Text: "# Findings\n\n| Technique | Status |\n|---|---|\n| T1078 | Detected |",
//	    Path: "report.pdf",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(art.PageCount, art.Tier)
//
// # Input Format
//
// The text is read line by line. Recognized lines:
//
//	# Title               level 1 heading
//	## Section            level 2 heading
//	### **Subtitle**      subtitle (the rest must be wrapped in **)
//	| a | b |             table row
//	|---|---|             table separator (dropped)
//	- item / * item       bullet
//	blank line            vertical space
//
// Everything else is a paragraph. **bold** pairs become bold runs in body
// text. Malformed input never fails a render: unpaired markers stay as text,
// ragged table rows are laid out as far as they go, and unknown glyphs are
// removed.
//
// # Rendering Tiers
//
// Render first tries the rich tier: themed headings, wrapped tables with a
// repeated header row, and a page footer. If anything in that attempt fails,
// including a panic, the plain fallback tier renders the same text as ASCII
// lines. Only the tier that succeeds writes the output file, and the write is
// atomic. Artifact.Tier reports which one produced the file.
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r, err := reportpdf.NewRenderer(
//	    reportpdf.WithLogger(logrus.StandardLogger()),
//	    reportpdf.WithPage(&reportpdf.PageSettings{Size: "a4", Orientation: "portrait", Margin: 1}),
//	)
//
// A Renderer holds no per-render state and is safe for concurrent use.
package reportpdf
