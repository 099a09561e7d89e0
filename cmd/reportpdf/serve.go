package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/config"
	"github.com/neova-apexred/reportpdf/internal/fileutil"
	"github.com/neova-apexred/reportpdf/internal/generate"
	"github.com/neova-apexred/reportpdf/internal/hints"
	"github.com/neova-apexred/reportpdf/internal/server"
	"github.com/neova-apexred/reportpdf/internal/simulate"
)

// runServe starts the HTTP API and blocks until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeServeFlags(flags, cfg)
	env.Config = cfg

	log, err := newLogger(env.Stderr, flags.common, logrus.InfoLevel, flags.logFormat)
	if err != nil {
		return err
	}
	configureMaxProcs(log)

	opts, err := buildServerOptions(cfg, env, log)
	if err != nil {
		return err
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	ln, err := server.Listen(ctx, cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}
	log.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"reports": cfg.Server.OutputDir,
		"version": Version,
	}).Info("server listening")

	return srv.Serve(ctx, ln)
}

// mergeServeFlags applies explicitly set CLI flags over config values.
func mergeServeFlags(flags *serveFlags, cfg *config.Config) {
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.outputDir != "" {
		cfg.Server.OutputDir = flags.outputDir
	}
	if flags.simDir != "" {
		cfg.Simulator.Dir = flags.simDir
	}
	if flags.logsDir != "" {
		cfg.Simulator.LogsDir = flags.logsDir
	}
}

// buildServerOptions wires the renderer, generator, simulator and identity
// checker from cfg. Optional collaborators that cannot be configured are
// left nil and their routes answer 503.
func buildServerOptions(cfg *config.Config, env *Environment, log *logrus.Logger) (server.Options, error) {
	page, err := buildPageSettings(cfg.Render.Page)
	if err != nil {
		return server.Options{}, err
	}
	renderer, err := reportpdf.NewRenderer(
		reportpdf.WithLogger(log.WithField("component", "renderer")),
		reportpdf.WithPage(page),
		reportpdf.WithTitle(cfg.Render.Title),
		reportpdf.WithDateFormat(cfg.Render.DateFormat),
		reportpdf.WithClock(env.Now),
	)
	if err != nil {
		return server.Options{}, err
	}

	// Durations were checked by Validate.
	grace, _ := config.ParseDuration("server.shutdownGrace", cfg.Server.ShutdownGrace)

	gen, err := buildGenerator(cfg.Generator, env, log)
	if err != nil {
		return server.Options{}, err
	}

	sim, store := buildSimulator(cfg.Simulator, log)

	opts := server.Options{
		Renderer:      renderer,
		Simulator:     sim,
		Credentials:   store,
		Identity:      simulate.STSChecker{},
		OutputDir:     cfg.Server.OutputDir,
		MaxRenders:    cfg.Server.MaxRenders,
		AllowOrigins:  cfg.Server.AllowOrigins,
		ShutdownGrace: grace,
		Log:           log.WithField("component", "server"),
	}
	// A nil *OpenAI stored in the interface would not compare equal to nil.
	if gen != nil {
		opts.Generator = gen
	}
	return opts, nil
}

// buildGenerator returns nil when no API key or base URL is configured.
func buildGenerator(gc config.GeneratorConfig, env *Environment, log logrus.FieldLogger) (*generate.OpenAI, error) {
	key := ""
	if gc.APIKeyEnv != "" {
		key = env.Getenv(gc.APIKeyEnv)
	}
	if key == "" && gc.BaseURL == "" {
		log.WithField("env", gc.APIKeyEnv).Warn("prompt reports disabled: no API key" + hints.ForGeneratorKey(gc.APIKeyEnv))
		return nil, nil
	}

	timeout, _ := config.ParseDuration("generator.timeout", gc.Timeout)
	gen, err := generate.NewOpenAI(generate.Config{
		APIKey:       key,
		BaseURL:      gc.BaseURL,
		Model:        gc.Model,
		SystemPrompt: gc.SystemPrompt,
		Timeout:      timeout,
		MaxRetries:   2,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("model", gc.Model).Debug("generator configured")
	return gen, nil
}

// buildSimulator wires the exec runner and credential store. A missing
// module directory only warns; runs fail until it exists.
func buildSimulator(sc config.SimulatorConfig, log *logrus.Logger) (*simulate.Simulator, *simulate.CredentialStore) {
	cleanup, _ := config.ParseDuration("simulator.cleanupDelay", sc.CleanupDelay)
	timeout, _ := config.ParseDuration("simulator.commandTimeout", sc.CommandTimeout)

	if !fileutil.DirExists(sc.Dir) {
		log.WithField("dir", sc.Dir).Warn("attack simulator not found" + hints.ForSimulatorBuild(sc.Dir))
	}

	simLog := log.WithField("component", "simulator")
	runner := &simulate.ExecRunner{
		Dir:     sc.Dir,
		Binary:  sc.Binary,
		Package: sc.Package,
		Timeout: timeout,
		Log:     simLog,
	}
	store := simulate.NewCredentialStore(sc.CredentialsFile)

	opts := []simulate.Option{
		simulate.WithCredentials(store),
		simulate.WithLogger(simLog),
	}
	if sc.LogsDir != "" {
		opts = append(opts, simulate.WithLogsDir(sc.LogsDir))
	}
	if sc.CleanupDelay != "" {
		opts = append(opts, simulate.WithCleanupDelay(cleanup))
	}
	return simulate.New(runner, opts...), store
}
