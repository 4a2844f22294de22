// Package http provides the HTTP API for brandguard.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/pipeline"
	"github.com/fyrsmithlabs/brandguard/internal/profile"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// GenerationTimeout bounds a single generation request end to end.
	GenerationTimeout time.Duration

	// DefaultTopK is applied when a generate request leaves top_k unset.
	// Zero falls through to the pipeline's own default.
	DefaultTopK int
}

// NewServer creates a new HTTP server around a pipeline.
func NewServer(p *pipeline.Pipeline, logger *zap.Logger, cfg *Config) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		pipeline: p,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/clients", s.handleRegisterClient)
	v1.POST("/documents", s.handleIngest)
	v1.POST("/generate", s.handleGenerate)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// IngestRequest is the request body for POST /api/v1/documents.
type IngestRequest struct {
	Documents []docstore.Document `json:"documents"`
}

// IngestResponse is the response body for POST /api/v1/documents.
type IngestResponse struct {
	Handles []string `json:"handles"`
}

// RegisterClientResponse is the response body for POST /api/v1/clients.
type RegisterClientResponse struct {
	ClientID string `json:"client_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	ErrorKind string `json:"error_kind"`
	Stage     string `json:"stage,omitempty"`
	Message   string `json:"message"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleRegisterClient(c echo.Context) error {
	var cp profile.ClientProfile
	if err := c.Bind(&cp); err != nil {
		s.logger.Warn("invalid client profile request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorKind: string(pipeline.KindInvalidArgument),
			Message:   "invalid request body",
		})
	}

	if err := s.pipeline.RegisterClient(cp); err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterClientResponse{ClientID: cp.ClientID})
}

func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorKind: string(pipeline.KindInvalidArgument),
			Message:   "invalid request body",
		})
	}
	if len(req.Documents) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorKind: string(pipeline.KindInvalidArgument),
			Message:   "documents field is required",
		})
	}

	handles, err := s.pipeline.Ingest(c.Request().Context(), req.Documents)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, IngestResponse{Handles: handles})
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req pipeline.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid generate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorKind: string(pipeline.KindInvalidArgument),
			Message:   "invalid request body",
		})
	}

	if req.TopK == 0 {
		req.TopK = s.config.DefaultTopK
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.GenerationTimeout)
	defer cancel()

	result, err := s.pipeline.Generate(ctx, req)
	if err != nil {
		return s.errorResponse(c, err)
	}

	// An insufficient-context refusal is a well formed outcome, not a
	// transport error. It travels as a 200 with error_kind set.
	return c.JSON(http.StatusOK, result)
}

// errorResponse maps pipeline errors onto HTTP statuses.
func (s *Server) errorResponse(c echo.Context, err error) error {
	kind := pipeline.KindOf(err)
	stage := pipeline.StageOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case pipeline.KindInvalidArgument:
		status = http.StatusBadRequest
	case pipeline.KindUnknownClient:
		status = http.StatusNotFound
	case pipeline.KindGenerationTimeout:
		status = http.StatusGatewayTimeout
	case pipeline.KindGenerationUnavailable:
		status = http.StatusBadGateway
	case pipeline.KindCanceled:
		// Client closed request (nginx convention); net/http has no
		// constant for it. The response rarely reaches anyone.
		status = 499
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
	}

	return c.JSON(status, ErrorResponse{
		ErrorKind: string(kind),
		Stage:     string(stage),
		Message:   err.Error(),
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
