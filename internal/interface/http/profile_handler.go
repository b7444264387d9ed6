package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/advice"
	"github.com/yanqian/suncare/internal/domain/profile"
)

// GetProfile returns the caller's profile with baseline and live risk.
func (h *Handler) GetProfile(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	p, err := h.profileSvc.Get(c.Request.Context(), accountID)
	if err != nil {
		abortWithAppError(c, err, "profile_failed")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateConditions replaces the caller's skin condition text and reclassifies it.
func (h *Handler) UpdateConditions(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req profile.UpdateConditionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	p, err := h.profileSvc.UpdateConditions(c.Request.Context(), accountID, req)
	if err != nil {
		abortWithAppError(c, err, "profile_failed")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Advice returns personalized skincare text. It always answers once the profile loads.
func (h *Handler) Advice(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	p, err := h.profileSvc.Get(c.Request.Context(), accountID)
	if err != nil {
		abortWithAppError(c, err, "advice_failed")
		return
	}
	resp := h.adviceSvc.Summary(c.Request.Context(), advice.Request{
		Age:              p.Age,
		SkinConditions:   p.SkinConditions,
		Severity:         p.ConditionSeverity,
		SkinToneIndex:    p.SkinToneIndex,
		BaselineCategory: p.Baseline.Category,
	})
	c.JSON(http.StatusOK, resp)
}

// RecalculateAll recomputes baseline and final risk for every stored profile.
func (h *Handler) RecalculateAll(c *gin.Context) {
	res, err := h.profileSvc.RecalculateAll(c.Request.Context())
	if err != nil {
		abortWithAppError(c, err, "recalculate_failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
