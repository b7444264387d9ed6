package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/internal/infra/ingest"
)

const deviceKeyHeader = ingest.DeviceKeyHeader

// SensorReadingRequest is what a device (or the ingest bridge) posts.
type SensorReadingRequest struct {
	UVIntensity *int   `json:"uvIntensity"`
	Applied     bool   `json:"applied"`
	Source      string `json:"source"`
}

// LatestReadingResponse pairs the live reading with the persisted last-applied instant.
type LatestReadingResponse struct {
	Reading       *sensor.Reading `json:"reading"`
	LastAppliedAt *time.Time      `json:"lastAppliedAt"`
}

// PublishReading overwrites the shared reading.
func (h *Handler) PublishReading(c *gin.Context) {
	if h.deviceKey != "" {
		got := c.GetHeader(deviceKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.deviceKey)) != 1 {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid device key", nil))
			return
		}
	}
	var req SensorReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	if req.UVIntensity != nil && *req.UVIntensity < 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "uvIntensity cannot be negative", nil))
		return
	}

	now := time.Now().UTC()
	reading := sensor.Reading{
		UVIntensity: req.UVIntensity,
		Applied:     req.Applied,
		ReceivedAt:  now,
		Source:      req.Source,
	}
	if reading.Source == "" {
		reading.Source = "http"
	}
	if req.Applied {
		reading.AppliedAt = &now
	}
	if err := h.sensors.Publish(c.Request.Context(), reading); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "feed_error", errMessage(err), err))
		return
	}
	c.JSON(http.StatusAccepted, reading)
}

// LatestReading returns the current shared reading, if any.
func (h *Handler) LatestReading(c *gin.Context) {
	ctx := c.Request.Context()
	var resp LatestReadingResponse
	reading, ok, err := h.sensors.Latest(ctx)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadGateway, "feed_error", errMessage(err), err))
		return
	}
	if ok {
		resp.Reading = &reading
	}
	lastApplied, err := h.profileSvc.LastApplied(ctx)
	if err != nil {
		abortWithAppError(c, err, "sensor_failed")
		return
	}
	resp.LastAppliedAt = lastApplied
	c.JSON(http.StatusOK, resp)
}
