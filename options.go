package reportpdf

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for tier fallbacks and render summaries.
// The default logger discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithGeometry sets the page geometry in points.
// Invalid geometry is not rejected here; it sends every render to the fallback tier.
func WithGeometry(g Geometry) Option {
	return func(r *Renderer) {
		r.geometry = g
		r.page = nil
	}
}

// WithPage sets the page geometry from size, orientation and margin.
// Settings are validated by NewRenderer.
func WithPage(p *PageSettings) Option {
	return func(r *Renderer) {
		r.page = p
	}
}

// WithTitle sets the document title used when neither Input.Title nor a
// level 1 heading provides one.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// WithDateFormat sets the footer date format: a preset (iso, european, us,
// long) or tokens such as "DD/MM/YYYY". NewRenderer rejects invalid formats
// with ErrInvalidDateFormat.
func WithDateFormat(format string) Option {
	return func(r *Renderer) {
		r.dateFormat = format
	}
}

// WithClock sets the time source for the footer date.
// Panics if now is nil (programmer error).
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("reportpdf: WithClock requires a non-nil clock")
	}
	return func(r *Renderer) {
		r.now = now
	}
}
