package main

import (
	"context"
	"errors"
	"os"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/config"
)

// Exit codes for the reportpdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitRender  = 4 // Both rendering tiers failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Render errors (exit 4)
	if errors.Is(err, reportpdf.ErrRenderFailed) ||
		errors.Is(err, ErrRenderBatch) {
		return ExitRender
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadReport) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoReports) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidDuration) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, reportpdf.ErrInvalidPageSize) ||
		errors.Is(err, reportpdf.ErrInvalidOrientation) ||
		errors.Is(err, reportpdf.ErrInvalidMargin) ||
		errors.Is(err, reportpdf.ErrInvalidDateFormat) {
		return ExitUsage
	}

	// Interrupted by signal
	if errors.Is(err, context.Canceled) {
		return ExitGeneral
	}

	return ExitGeneral
}
