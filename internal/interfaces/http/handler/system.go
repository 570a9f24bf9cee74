package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// StrategyLister describes the registered pipeline strategies
type StrategyLister interface {
	Describe() map[strategy.StrategyType][]strategy.Info
}

// SystemHandler handles health and build information endpoints
type SystemHandler struct {
	BaseHandler
	name         string
	version      string
	startTime    time.Time
	checks       map[string]HealthCheck
	checkTimeout time.Duration
	strategies   StrategyLister
}

// SystemOption configures a SystemHandler
type SystemOption func(*SystemHandler)

// WithHealthCheck adds a named dependency probe to the health endpoint
func WithHealthCheck(name string, check HealthCheck) SystemOption {
	return func(h *SystemHandler) {
		h.checks[name] = check
	}
}

// WithStrategies lists the pipeline strategies in the system info
func WithStrategies(l StrategyLister) SystemOption {
	return func(h *SystemHandler) {
		h.strategies = l
	}
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		name:         name,
		version:      version,
		startTime:    time.Now(),
		checks:       make(map[string]HealthCheck),
		checkTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name       string                                    `json:"name"`
	Version    string                                    `json:"version"`
	GoVersion  string                                    `json:"go_version"`
	Uptime     string                                    `json:"uptime"`
	Strategies map[strategy.StrategyType][]strategy.Info `json:"strategies,omitempty"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports liveness and probes the result store and report archive
// when they are configured. Any failing probe turns the answer into a 503.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy"}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Checks = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	resp.Time = time.Now().UTC().Format(time.RFC3339)
	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// GetSystemInfo returns build and uptime information
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.strategies != nil {
		info.Strategies = h.strategies.Describe()
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}
