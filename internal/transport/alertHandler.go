package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/alert"
)

type AlertHandler struct {
	gate *alert.CooldownGate
}

func NewAlertHandler(gate *alert.CooldownGate) *AlertHandler {
	return &AlertHandler{gate: gate}
}

type thresholdRequest struct {
	Threshold      float64 `json:"threshold" binding:"required"`
	CooldownWindow int     `json:"cooldownWindowSeconds"`
}

// UpdateThreshold changes the runtime alerting settings. Takes effect
// for the next detection, in-flight cooldowns keep their timestamps.
func (h *AlertHandler) UpdateThreshold(c *gin.Context) {
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Threshold <= 0 || req.Threshold > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be in (0, 1]"})
		return
	}

	h.gate.SetThreshold(req.Threshold)
	if req.CooldownWindow > 0 {
		h.gate.SetWindow(time.Duration(req.CooldownWindow) * time.Second)
	}

	threshold, window := h.gate.Settings()
	c.JSON(http.StatusOK, gin.H{
		"threshold":             threshold,
		"cooldownWindowSeconds": int(window.Seconds()),
	})
}
