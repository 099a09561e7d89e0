// Package server exposes report rendering and the attack simulator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/neova-apexred/reportpdf"
	"github.com/neova-apexred/reportpdf/internal/fileutil"
	"github.com/neova-apexred/reportpdf/internal/generate"
	"github.com/neova-apexred/reportpdf/internal/hints"
	"github.com/neova-apexred/reportpdf/internal/simulate"
)

// Defaults applied by New.
const (
	DefaultMaxRenders    = 4
	DefaultShutdownGrace = 10 * time.Second
	maxBodySize          = "1M"
)

// ErrNoRenderer is returned by New without a renderer.
var ErrNoRenderer = errors.New("server: renderer is required")

// Renderer renders report text to a PDF file.
type Renderer interface {
	Render(ctx context.Context, in reportpdf.Input) (*reportpdf.Artifact, error)
}

// Simulator runs and reverts attack techniques.
type Simulator interface {
	Run(ctx context.Context, technique string) (*simulate.RunLog, error)
	Revert(ctx context.Context, technique string) (*simulate.RevertResult, error)
	LoadLog(technique string) (*simulate.RunLog, error)
}

// Options wires the server's collaborators. Only Renderer and OutputDir are
// required; routes whose collaborator is nil answer 503.
type Options struct {
	Renderer      Renderer
	Generator     generate.Generator
	Simulator     Simulator
	Credentials   *simulate.CredentialStore
	Identity      simulate.IdentityChecker
	OutputDir     string
	MaxRenders    int
	AllowOrigins  []string
	ShutdownGrace time.Duration
	Log           logrus.FieldLogger
}

// Server is the HTTP front end.
type Server struct {
	e             *echo.Echo
	log           logrus.FieldLogger
	renderer      Renderer
	generator     generate.Generator
	simulator     Simulator
	creds         *simulate.CredentialStore
	identity      simulate.IdentityChecker
	outputDir     string
	renders       *semaphore.Weighted
	shutdownGrace time.Duration
	newID         func() string
}

// New builds the server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "reports"
	}
	if err := fileutil.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForOutputDirectory())
	}
	if opts.MaxRenders <= 0 {
		opts.MaxRenders = DefaultMaxRenders
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: opts.AllowOrigins}))
	e.Use(requestLogger(log))

	s := &Server{
		e:             e,
		log:           log,
		renderer:      opts.Renderer,
		generator:     opts.Generator,
		simulator:     opts.Simulator,
		creds:         opts.Credentials,
		identity:      opts.Identity,
		outputDir:     opts.OutputDir,
		renders:       semaphore.NewWeighted(int64(opts.MaxRenders)),
		shutdownGrace: opts.ShutdownGrace,
		newID:         uuid.NewString,
	}

	// Health check endpoint
	e.GET("/ping", s.ping)

	// Render a report from text or a prompt
	e.POST("/reports", s.createReport)
	// Download a rendered report
	e.GET("/reports/:name", s.getReport)

	// Run the full lifecycle of a technique
	e.POST("/attack/run", s.runAttack)
	// Revert a technique
	e.POST("/attack/revert", s.revertAttack)
	// Last saved run log of a technique
	e.GET("/attack/logs/:technique", s.getRunLog)

	// Store simulator credentials
	e.POST("/aws/config", s.saveAWSConfig)
	// Check who the stored credentials authenticate as
	e.GET("/aws/identity", s.getAWSIdentity)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.e }

// Listen opens a TCP listener on addr.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}

// Serve handles connections on ln until ctx is done, then shuts down
// gracefully, waiting up to the shutdown grace period for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("request failed")
			case v.Error != nil:
				entry.WithError(v.Error).Warn("request rejected")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}

func (s *Server) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "pong"})
}

func (s *Server) createReport(c echo.Context) error {
	var req ReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	ctx := c.Request().Context()

	text := req.Text
	if strings.TrimSpace(text) == "" {
		if strings.TrimSpace(req.Prompt) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "text or prompt is required")
		}
		if s.generator == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "text generation is not configured")
		}
		generated, err := s.generator.Generate(ctx, req.Prompt)
		if err != nil {
			if errors.Is(err, generate.ErrEmptyPrompt) {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("failed to generate report: %v", err))
		}
		text = generated
	}

	if err := s.renders.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled while waiting to render")
	}
	defer s.renders.Release(1)

	name := s.newID() + ".pdf"
	art, err := s.renderer.Render(ctx, reportpdf.Input{
		Text:  text,
		Path:  filepath.Join(s.outputDir, name),
		Title: req.Title,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to render report: %v", err))
	}

	s.log.WithFields(logrus.Fields{
		"report": name,
		"pages":  art.PageCount,
		"tier":   art.Tier.String(),
	}).Info("report rendered")

	return c.JSON(http.StatusCreated, ReportResponse{
		Filename:  name,
		URL:       "/reports/" + name,
		PageCount: art.PageCount,
		Tier:      art.Tier.String(),
	})
}

func (s *Server) getReport(c echo.Context) error {
	name := c.Param("name")
	path, err := fileutil.ResolveDownload(s.outputDir, name)
	switch {
	case errors.Is(err, fileutil.ErrInvalidName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, fileutil.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Attachment(path, filepath.Base(path))
}

func (s *Server) runAttack(c echo.Context) error {
	technique, err := s.bindTechnique(c)
	if err != nil {
		return err
	}

	runLog, err := s.simulator.Run(c.Request().Context(), technique)
	if err != nil {
		return simulatorError(err)
	}
	return c.JSON(http.StatusOK, runLog)
}

func (s *Server) revertAttack(c echo.Context) error {
	technique, err := s.bindTechnique(c)
	if err != nil {
		return err
	}

	res, err := s.simulator.Revert(c.Request().Context(), technique)
	if err != nil {
		return simulatorError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) getRunLog(c echo.Context) error {
	if s.simulator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "attack simulator is not configured")
	}
	runLog, err := s.simulator.LoadLog(c.Param("technique"))
	switch {
	case errors.Is(err, simulate.ErrInvalidTechnique):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		return echo.NewHTTPError(http.StatusNotFound, "no run log for technique")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runLog)
}

func (s *Server) bindTechnique(c echo.Context) (string, error) {
	if s.simulator == nil {
		return "", echo.NewHTTPError(http.StatusServiceUnavailable, "attack simulator is not configured")
	}
	var req TechniqueRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.TechniqueID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "no technique_id provided")
	}
	return req.TechniqueID, nil
}

func simulatorError(err error) error {
	switch {
	case errors.Is(err, simulate.ErrInvalidTechnique):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, simulate.ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error()+hints.ForCredentials())
	case errors.Is(err, simulate.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) saveAWSConfig(c echo.Context) error {
	if s.creds == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "credential storage is not configured")
	}
	var req simulate.Credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if err := s.creds.Save(req); err != nil {
		if errors.Is(err, simulate.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to save AWS configuration: %v", err))
	}

	s.log.WithField("region", req.Region).Info("AWS configuration saved")
	return c.JSON(http.StatusOK, MessageResponse{Message: "AWS configuration saved"})
}

func (s *Server) getAWSIdentity(c echo.Context) error {
	if s.creds == nil || s.identity == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "identity check is not configured")
	}
	creds, err := s.creds.Credentials()
	if err != nil {
		if errors.Is(err, simulate.ErrMissingCredentials) {
			return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error()+hints.ForCredentials())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	id, err := s.identity.CallerIdentity(c.Request().Context(), creds)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, id)
}
