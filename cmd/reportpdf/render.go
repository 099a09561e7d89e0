package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/config"
	"github.com/neova-apexred/reportpdf/internal/fileutil"
	"github.com/neova-apexred/reportpdf/internal/hints"
)

// Sentinel errors for batch rendering.
var (
	ErrReadReport  = errors.New("failed to read report file")
	ErrRenderBatch = errors.New("some reports failed to render")
)

// Renderer is the part of reportpdf.Renderer the CLI uses.
type Renderer interface {
	Render(ctx context.Context, in reportpdf.Input) (*reportpdf.Artifact, error)
}

var _ Renderer = (*reportpdf.Renderer)(nil)

// RenderResult holds the outcome of a single report.
type RenderResult struct {
	InputPath  string
	OutputPath string
	PageCount  int
	Tier       reportpdf.Tier
	Err        error
	Duration   time.Duration
}

// runRender renders every report named by args.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeRenderFlags(flags, cfg)
	env.Config = cfg

	if err := validateWorkers(cfg.Render.Workers); err != nil {
		return err
	}
	page, err := buildPageSettings(cfg.Render.Page)
	if err != nil {
		return err
	}

	log, err := newLogger(env.Stderr, flags.common, logrus.WarnLevel, "text")
	if err != nil {
		return err
	}
	configureMaxProcs(log)

	files, err := discoverFiles(positional, cfg.Render.OutputDir)
	if err != nil {
		return err
	}

	renderer, err := reportpdf.NewRenderer(
		reportpdf.WithLogger(log),
		reportpdf.WithPage(page),
		reportpdf.WithTitle(cfg.Render.Title),
		reportpdf.WithDateFormat(cfg.Render.DateFormat),
		reportpdf.WithClock(env.Now),
	)
	if err != nil {
		return err
	}

	workers := resolvePoolSize(cfg.Render.Workers)
	log.WithFields(logrus.Fields{"files": len(files), "workers": workers}).Debug("rendering reports")

	results := renderBatch(ctx, renderer, files, workers, env.Now)
	if failed := printResults(results, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRenderBatch, failed, len(results))
	}
	return nil
}

// mergeRenderFlags applies explicitly set CLI flags over config values.
func mergeRenderFlags(flags *renderFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Render.OutputDir = flags.output
	}
	if flags.workers != 0 {
		cfg.Render.Workers = flags.workers
	}
	if flags.title != "" {
		cfg.Render.Title = flags.title
	}
	if flags.dateFormat != "" {
		cfg.Render.DateFormat = flags.dateFormat
	}
	if flags.page.size != "" {
		cfg.Render.Page.Size = flags.page.size
	}
	if flags.page.orientation != "" {
		cfg.Render.Page.Orientation = flags.page.orientation
	}
	if flags.page.margin != 0 {
		cfg.Render.Page.Margin = flags.page.margin
	}
}

// buildPageSettings turns page config into renderer settings. An untouched
// config returns nil so the renderer keeps its default geometry; otherwise
// unset fields take their defaults.
func buildPageSettings(pc config.PageConfig) (*reportpdf.PageSettings, error) {
	if pc.Size == "" && pc.Orientation == "" && pc.Margin == 0 {
		return nil, nil
	}

	ps := reportpdf.DefaultPageSettings()
	if pc.Size != "" {
		ps.Size = pc.Size
	}
	if pc.Orientation != "" {
		ps.Orientation = pc.Orientation
	}
	if pc.Margin != 0 {
		ps.Margin = pc.Margin
	}

	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForPageSettings())
	}
	return ps, nil
}

// renderBatch renders files with at most workers in flight. One failure
// does not stop the others.
func renderBatch(ctx context.Context, r Renderer, files []ReportFile, workers int, now func() time.Time) []RenderResult {
	results := make([]RenderResult, len(files))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, f := range files {
		g.Go(func() error {
			results[i] = renderFile(ctx, r, f, now)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// renderFile reads one report and renders it to its output path.
func renderFile(ctx context.Context, r Renderer, f ReportFile, now func() time.Time) RenderResult {
	start := now()
	result := RenderResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	finish := func(err error) RenderResult {
		result.Err = err
		result.Duration = now().Sub(start)
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return finish(fmt.Errorf("%w: %w", ErrReadReport, err))
	}

	if err := fileutil.EnsureDir(filepath.Dir(f.OutputPath)); err != nil {
		return finish(fmt.Errorf("creating output directory: %w%s", err, hints.ForOutputDirectory()))
	}

	art, err := r.Render(ctx, reportpdf.Input{Text: string(content), Path: f.OutputPath})
	if err != nil {
		return finish(err)
	}

	result.PageCount = art.PageCount
	result.Tier = art.Tier
	return finish(nil)
}

// printResults reports each outcome and returns the failure count.
func printResults(results []RenderResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		succeeded++
		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %s, %v)\n",
				r.InputPath, r.OutputPath, r.PageCount, r.Tier, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s (%d pages)\n", r.OutputPath, r.PageCount)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}
