package server

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/clinic-frontdesk/agent/internal/core"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	ServiceHealthy   = "healthy"
	ServiceUnhealthy = "unhealthy"
)

// CheckFunc reports the health of one dependency.
type CheckFunc func(ctx context.Context) error

type ServiceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status      string                   `json:"status"`
	Version     string                   `json:"version"`
	Environment string                   `json:"environment"`
	ServiceName string                   `json:"service_name"`
	Services    map[string]ServiceStatus `json:"services,omitempty"`
}

// HealthChecker checks every dependency concurrently.
type HealthChecker struct {
	cfg    Config
	env    core.Environment
	checks map[string]CheckFunc
}

func NewHealthChecker(cfg Config, env core.Environment, checks map[string]CheckFunc) *HealthChecker {
	return &HealthChecker{cfg: cfg, env: env, checks: checks}
}

// Check never fails; an unhealthy dependency only degrades the overall status.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	resp := HealthResponse{
		Status:      StatusOK,
		Version:     h.cfg.Version,
		Environment: h.env.String(),
		ServiceName: h.cfg.ServiceName,
		Services:    make(map[string]ServiceStatus, len(h.checks)),
	}

	if h.cfg.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.HealthTimeout)
		defer cancel()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			st := ServiceStatus{Status: ServiceHealthy, Message: "connected successfully"}
			if err := check(gctx); err != nil {
				logx.Warn().Err(err).Str("service", name).Msg("Health check failed")
				st = ServiceStatus{Status: ServiceUnhealthy, Message: err.Error()}
			}
			mu.Lock()
			resp.Services[name] = st
			mu.Unlock()
			// failures are reported, not propagated, so siblings keep running
			return nil
		})
	}
	_ = g.Wait()

	for _, st := range resp.Services {
		if st.Status != ServiceHealthy {
			resp.Status = StatusDegraded
		}
	}
	return resp
}

// Health reports the service and dependency status.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, s.health.Check(c.Request().Context()))
}
