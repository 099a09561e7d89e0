package main

// Notes:
// - exitCodeFor: we test sentinel errors from reportpdf, config and this
//   package, plus wrapped errors to verify the errors.Is() chain.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage)
//   and custom codes are below 126.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Render errors (exit 4)
		{"render failed", reportpdf.ErrRenderFailed, ExitRender},
		{"batch failed", fmt.Errorf("%w: 1 of 2", ErrRenderBatch), ExitRender},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"read report", ErrReadReport, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"no reports", ErrNoReports, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"unknown command", ErrUnknownCommand, ExitUsage},
		{"invalid log format", ErrInvalidLogFormat, ExitUsage},
		{"invalid workers", ErrInvalidWorkerCount, ExitUsage},
		{"invalid extension", ErrInvalidExtension, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config too large", config.ErrConfigTooLarge, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid duration", config.ErrInvalidDuration, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"invalid page size", reportpdf.ErrInvalidPageSize, ExitUsage},
		{"invalid orientation", reportpdf.ErrInvalidOrientation, ExitUsage},
		{"invalid margin", fmt.Errorf("page: %w", reportpdf.ErrInvalidMargin), ExitUsage},
		{"invalid date format", reportpdf.ErrInvalidDateFormat, ExitUsage},

		// General
		{"canceled", context.Canceled, ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("conventional codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitRender} {
		if code >= 126 {
			t.Errorf("exit code %d collides with shell-reserved codes", code)
		}
	}
}
