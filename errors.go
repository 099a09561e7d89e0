package reportpdf

import (
	"errors"

	"github.com/neova-apexred/reportpdf/internal/dateutil"
)

// Sentinel errors for library operations.
var (
	ErrRenderFailed    = errors.New("report rendering failed")
	ErrEmptyOutputPath = errors.New("output path cannot be empty")
	ErrFinalize        = errors.New("failed to write PDF")
	ErrPaint           = errors.New("failed to paint PDF")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// ErrInvalidDateFormat rejects a footer date format.
	ErrInvalidDateFormat = dateutil.ErrInvalidDateFormat
)
