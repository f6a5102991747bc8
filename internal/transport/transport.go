package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
	"github.com/ds124wfegd/emergency-ops/internal/transport/middleware"
)

// HealthChecker reports broker liveness for the health endpoint.
type HealthChecker interface {
	HealthCheck() error
}

func InitRoutes(
	notificationHandler *NotificationHandler,
	messageHandler *MessageHandler,
	detectionHandler *DetectionHandler,
	alertHandler *AlertHandler,
	queue HealthChecker,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		queueStatus := "ok"
		if queue != nil {
			if err := queue.HealthCheck(); err != nil {
				status = http.StatusServiceUnavailable
				queueStatus = err.Error()
			}
		}
		c.JSON(status, gin.H{
			"status":    "ok",
			"queue":     queueStatus,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		// Detection intake is machine-to-machine; it carries no user
		// identity.
		api.POST("/detections", detectionHandler.Ingest)

		authed := api.Group("", middleware.Identity())
		{
			notifications := authed.Group("/notifications")
			{
				notifications.GET("/unread", notificationHandler.Unread)
				notifications.PUT("/:id/read", notificationHandler.MarkRead)

				admin := notifications.Group("", middleware.RequireRole(entity.RoleAdmin))
				{
					admin.POST("/send", notificationHandler.Send)
					admin.POST("/test", notificationHandler.Test)
					admin.GET("/history", notificationHandler.History)
					admin.GET("/stats", notificationHandler.Stats)
					admin.POST("/schedule", notificationHandler.Schedule)
					admin.GET("/scheduled", notificationHandler.Scheduled)
					admin.DELETE("/scheduled/:id", notificationHandler.CancelScheduled)
					admin.GET("/:id/delivery-status", notificationHandler.DeliveryStatus)
				}

				notifications.POST("/emergency",
					middleware.RequireRole(entity.RoleAdmin, entity.RoleOperator),
					notificationHandler.Emergency)
			}

			messages := authed.Group("/messages")
			{
				messages.GET("", messageHandler.List)
				messages.POST("", messageHandler.Send)
				messages.PATCH("/:id/read", messageHandler.MarkRead)
				messages.GET("/stats", messageHandler.Stats)
				messages.POST("/broadcast",
					middleware.RequireRole(entity.RoleAdmin, entity.RoleOperator),
					messageHandler.Broadcast)
			}

			alerts := authed.Group("/alerts", middleware.RequireRole(entity.RoleAdmin))
			{
				alerts.PUT("/threshold", alertHandler.UpdateThreshold)
			}
		}
	}

	return router
}
