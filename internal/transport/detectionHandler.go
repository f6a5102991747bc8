package transport

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/emergency-ops/internal/alert"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type DetectionHandler struct {
	pipeline *alert.Pipeline
}

func NewDetectionHandler(pipeline *alert.Pipeline) *DetectionHandler {
	return &DetectionHandler{pipeline: pipeline}
}

// Ingest accepts detection callbacks from the video service. The
// producer must never be failed over a bad frame, so malformed
// payloads are logged and acknowledged. Alerting runs detached from
// the request so the camera service is not held up by email fan-out.
func (h *DetectionHandler) Ingest(c *gin.Context) {
	var event entity.DetectionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		logrus.WithError(err).Warn("Received malformed detection payload")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	go h.pipeline.ProcessDetection(context.Background(), &event)

	c.JSON(http.StatusOK, gin.H{"received": true})
}
