package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/providers"
	"github.com/pitchside/scoutline/internal/recommender"
	"github.com/pitchside/scoutline/pkg/cache"
)

// HealthHandler reports service liveness and dependency status.
type HealthHandler struct {
	engine   *recommender.Engine
	provider *providers.FootballProvider
	cache    *cache.Service
	logger   *logrus.Logger
	started  time.Time
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(
	engine *recommender.Engine,
	provider *providers.FootballProvider,
	cacheService *cache.Service,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		engine:   engine,
		provider: provider,
		cache:    cacheService,
		logger:   logger,
		started:  time.Now(),
	}
}

// Health reports overall service health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{
		"engine":          h.engine.State().String(),
		"circuit_breaker": h.provider.BreakerState().String(),
	}

	status := "healthy"
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "unreachable"
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Service:   "scoutline",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Checks:    checks,
	})
}
