package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/auth"
)

// Register creates an account and its skin profile.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithAppError(c, err, "register_failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithAppError(c, err, "login_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates the access token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithAppError(c, err, "refresh_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
