package reportpdf

import (
	"fmt"
	"strings"

	"github.com/neova-apexred/reportpdf/internal/pipeline"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.75
)

const pointsPerInch = 72.0

// pageSizes in points, portrait.
var pageSizes = map[string][2]float64{
	PageSizeLetter: {612, 792},
	PageSizeA4:     {595.28, 841.89},
	PageSizeLegal:  {612, 1008},
}

// Geometry is the page size and margins in points.
type Geometry = pipeline.Geometry

// DefaultGeometry is US Letter with 0.75in margins.
var DefaultGeometry = pipeline.DefaultGeometry

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if _, ok := pageSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

// Geometry converts validated settings to points.
func (p *PageSettings) Geometry() Geometry {
	if p == nil {
		return DefaultGeometry
	}
	size := pageSizes[strings.ToLower(p.Size)]
	w, h := size[0], size[1]
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		w, h = h, w
	}
	m := p.Margin * pointsPerInch
	return Geometry{
		PageWidth:    w,
		PageHeight:   h,
		MarginTop:    m,
		MarginBottom: m,
		MarginLeft:   m,
		MarginRight:  m,
	}
}

// Input contains render parameters.
type Input struct {
	Text  string        // Report text; empty renders one blank page
	Path  string        // Output file path (required)
	Title string        // Document title (optional, default: first level 1 heading)
	Page  *PageSettings // Page settings (optional, nil = renderer geometry)
}

// Tier identifies which renderer produced an artifact.
type Tier int

// Rendering tiers.
const (
	TierRich Tier = iota
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierRich:
		return "rich"
	case TierFallback:
		return "fallback"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Artifact describes a PDF that was completely written to disk.
type Artifact struct {
	Path      string
	PageCount int
	Tier      Tier
}
