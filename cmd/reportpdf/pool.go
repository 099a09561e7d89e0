package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/neova-apexred/reportpdf/internal/config"
)

// ErrInvalidWorkerCount reports a worker count outside 0..MaxWorkers.
var ErrInvalidWorkerCount = errors.New("invalid worker count")

// resolvePoolSize determines how many reports render at once.
// Priority: explicit flag > GOMAXPROCS-based calculation.
func resolvePoolSize(flagWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / 2

	if n < 1 {
		return 1
	}
	if n > config.MaxWorkers {
		return config.MaxWorkers
	}
	return n
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}
