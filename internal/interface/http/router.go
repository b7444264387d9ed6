package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/auth"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/pkg/metrics"
)

const sensorReadingsPath = "/api/v1/sensor/readings"

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		metrics.Middleware(),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger, sensorReadingsPath),
	)

	router.GET("/healthz", handler.Healthz)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/refresh", handler.Refresh)

		api.POST("/sensor/readings", handler.PublishReading)
		api.GET("/sensor/latest", handler.LatestReading)
	}

	secured := api.Group("")
	secured.Use(authMiddleware(authSvc, false))
	{
		secured.GET("/profile", handler.GetProfile)
		secured.PUT("/profile/conditions", handler.UpdateConditions)
		secured.GET("/profile/advice", handler.Advice)
		secured.POST("/profiles/recalculate", handler.RecalculateAll)

		secured.GET("/monitor", handler.MonitorStatus)
		secured.POST("/monitor/start", handler.StartMonitor)
		secured.POST("/monitor/stop", handler.StopMonitor)
	}

	api.GET("/sessions/ws", authMiddleware(authSvc, true), handler.Sessions)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
