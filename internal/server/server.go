// Package server exposes the front desk over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/clinic-frontdesk/agent/internal/agent/graph"
	"github.com/clinic-frontdesk/agent/internal/core"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

type Config struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"clinic-frontdesk"`
	Version         string        `envconfig:"SERVICE_VERSION" default:"0.1.0"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	HealthTimeout   time.Duration `envconfig:"HEALTH_TIMEOUT" default:"3s"`
}

// Server serves the chat and health endpoints.
type Server struct {
	cfg    Config
	echo   *echo.Echo
	runner graph.Runner
	health *HealthChecker
}

func New(cfg Config, env core.Environment, runner graph.Runner, checks map[string]CheckFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logx.Info()
			if v.Error != nil {
				ev = logx.Error().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")
			return nil
		},
	}))

	s := &Server{
		cfg:    cfg,
		echo:   e,
		runner: runner,
		health: NewHealthChecker(cfg, env, checks),
	}

	api := e.Group("/api/v1")
	api.POST("/chat", s.Chat)
	api.GET("/health", s.Health)
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("Starting HTTP server")
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	logx.Info().Msg("Shutting down HTTP server")
	return s.echo.Shutdown(shutdownCtx)
}
