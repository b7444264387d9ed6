package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MonitorStatus returns a snapshot of the live monitor.
func (h *Handler) MonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

// StartMonitor loads profiles and subscribes to the feed. Starting twice is a no-op.
func (h *Handler) StartMonitor(c *gin.Context) {
	if err := h.monitor.Start(c.Request.Context()); err != nil {
		abortWithAppError(c, err, "monitor_failed")
		return
	}
	c.JSON(http.StatusOK, h.monitor.Status())
}

// StopMonitor unsubscribes and clears the tracking table.
func (h *Handler) StopMonitor(c *gin.Context) {
	h.monitor.Stop()
	c.JSON(http.StatusOK, h.monitor.Status())
}

// Sessions upgrades to a websocket notification session bound to the caller.
func (h *Handler) Sessions(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	h.sessions.HandleWebSocket(c.Writer, c.Request, accountID)
}
