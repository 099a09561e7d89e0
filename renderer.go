package reportpdf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neova-apexred/reportpdf/internal/dateutil"
	"github.com/neova-apexred/reportpdf/internal/pipeline"
)

var (
	_ tier = richTier{}
	_ tier = fallbackTier{}
)

// tier renders one job to a finished file or fails without leaving one.
type tier interface {
	render(ctx context.Context, j job) (*Artifact, error)
}

// job is everything a tier needs for one render.
type job struct {
	text       string
	path       string
	title      string
	geometry   Geometry
	date       time.Time
	dateLayout string // Footer date layout, empty means ISO
}

// Renderer renders report text to PDF, falling back to a plain rendering
// when the rich one fails. Create with NewRenderer.
type Renderer struct {
	log        logrus.FieldLogger
	geometry   Geometry
	page       *PageSettings
	title      string
	dateFormat string
	dateLayout string
	now        func() time.Time
	rich       tier
	fallback   tier
}

// NewRenderer creates a Renderer with default configuration.
// Returns an error if page settings given with WithPage or the footer date
// format given with WithDateFormat are invalid.
func NewRenderer(opts ...Option) (*Renderer, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Renderer{
		log:      discard,
		geometry: DefaultGeometry,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.page != nil {
		if err := r.page.Validate(); err != nil {
			return nil, err
		}
		r.geometry = r.page.Geometry()
	}

	layout, err := dateutil.Layout(r.dateFormat)
	if err != nil {
		return nil, err
	}
	r.dateLayout = layout

	// Tiers may be injected by tests.
	if r.rich == nil {
		r.rich = richTier{}
	}
	if r.fallback == nil {
		r.fallback = fallbackTier{}
	}

	return r, nil
}

// Render writes input.Text as a PDF at input.Path. Malformed text never
// fails a render. The error is non-nil only when the output path is empty,
// page settings are invalid, ctx is already done, or both tiers failed; in
// the last case it wraps ErrRenderFailed and no file is written.
func (r *Renderer) Render(ctx context.Context, input Input) (*Artifact, error) {
	if input.Path == "" {
		return nil, ErrEmptyOutputPath
	}
	if err := input.Page.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j := job{
		text:       input.Text,
		path:       input.Path,
		title:      r.resolveTitle(input),
		geometry:   r.geometry,
		date:       r.now(),
		dateLayout: r.dateLayout,
	}
	if input.Page != nil {
		j.geometry = input.Page.Geometry()
	}

	log := r.log.WithField("path", input.Path)

	art, richErr := attempt(ctx, r.rich, j)
	if richErr == nil {
		log.WithFields(logrus.Fields{"tier": art.Tier, "pages": art.PageCount}).Debug("report rendered")
		return art, nil
	}
	log.WithError(richErr).Warn("rich rendering failed, using fallback")

	art, fallbackErr := attempt(ctx, r.fallback, j)
	if fallbackErr != nil {
		log.WithError(fallbackErr).Error("fallback rendering failed")
		return nil, fmt.Errorf("%w: %w (rich tier: %v)", ErrRenderFailed, fallbackErr, richErr)
	}

	log.WithFields(logrus.Fields{"tier": art.Tier, "pages": art.PageCount}).Info("report rendered")
	return art, nil
}

// attempt runs one tier, turning a panic into an error.
func attempt(ctx context.Context, t tier, j job) (art *Artifact, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			art = nil
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()
	return t.render(ctx, j)
}

// resolveTitle picks the document title: Input.Title, then the first level 1
// heading, then the renderer default.
func (r *Renderer) resolveTitle(input Input) string {
	if t := strings.TrimSpace(input.Title); t != "" {
		return t
	}
	for _, line := range pipeline.SplitLines(input.Text) {
		if l := pipeline.Classify(line); l.Tag == pipeline.TagH1 {
			if t := pipeline.Sanitize(l.Payload, true); t != "" {
				return t
			}
		}
	}
	return r.title
}
