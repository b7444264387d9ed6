package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/advice"
	"github.com/yanqian/suncare/internal/domain/auth"
	"github.com/yanqian/suncare/internal/domain/monitor"
	"github.com/yanqian/suncare/internal/domain/profile"
	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/internal/infra/config"
)

// MonitorController is the live monitor as seen by the transport.
type MonitorController interface {
	Start(ctx context.Context) error
	Stop()
	Status() monitor.Status
}

// SensorStore accepts device readings and exposes the latest one.
type SensorStore interface {
	sensor.Publisher
	sensor.LatestReader
}

// SessionServer upgrades a request into a notification session for an account.
type SessionServer interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, accountID string)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	authSvc    auth.Service
	profileSvc profile.Service
	adviceSvc  advice.Service
	monitor    MonitorController
	sensors    SensorStore
	sessions   SessionServer
	deviceKey  string
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	authSvc auth.Service,
	profileSvc profile.Service,
	adviceSvc advice.Service,
	monitor MonitorController,
	sensors SensorStore,
	sessions SessionServer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authSvc:    authSvc,
		profileSvc: profileSvc,
		adviceSvc:  adviceSvc,
		monitor:    monitor,
		sensors:    sensors,
		sessions:   sessions,
		deviceKey:  cfg.Ingest.DeviceKey,
		logger:     logger.With("component", "http.handler"),
	}
}

// Healthz reports liveness plus the monitor state.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"monitor": h.monitor.Status().State,
	})
}
