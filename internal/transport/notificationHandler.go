package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
	"github.com/ds124wfegd/emergency-ops/internal/service"
	"github.com/ds124wfegd/emergency-ops/internal/transport/middleware"
)

type NotificationHandler struct {
	notifications service.Notifications
}

func NewNotificationHandler(notifications service.Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type channelsRequest struct {
	SendInApp bool `json:"sendInApp"`
	SendEmail bool `json:"sendEmail"`
	SendSMS   bool `json:"sendSMS"`
}

type sendNotificationRequest struct {
	Type               string                 `json:"type"`
	Title              string                 `json:"title" binding:"required"`
	Message            string                 `json:"message" binding:"required"`
	Severity           string                 `json:"severity"`
	Recipients         string                 `json:"recipients"`
	TargetZone         string                 `json:"targetZone"`
	SpecificRecipients []string               `json:"specificRecipients"`
	Channels           *channelsRequest       `json:"channels"`
	Metadata           map[string]interface{} `json:"metadata"`
}

func (r *sendNotificationRequest) toEntity() (*entity.NotificationRequest, error) {
	spec, err := entity.ParseRecipientSpec(r.Recipients, r.TargetZone, r.SpecificRecipients)
	if err != nil {
		return nil, err
	}

	channels := entity.Channels{InApp: true}
	if r.Channels != nil {
		channels = entity.Channels{
			InApp: r.Channels.SendInApp,
			Email: r.Channels.SendEmail,
			SMS:   r.Channels.SendSMS,
		}
	}

	return &entity.NotificationRequest{
		Type:     r.Type,
		Title:    r.Title,
		Message:  r.Message,
		Severity: entity.Severity(r.Severity),
		Spec:     spec,
		Channels: channels,
		Metadata: r.Metadata,
	}, nil
}

func actorFrom(c *gin.Context) service.Actor {
	user := middleware.CurrentUser(c)
	if user == nil {
		return service.Actor{}
	}
	return service.Actor{ID: user.ID, Name: user.Name, Role: user.Role}
}

func (h *NotificationHandler) Send(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := req.toEntity()
	if err != nil {
		respondError(c, err)
		return
	}

	n, err := h.notifications.Dispatch(c.Request.Context(), request, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
		"total":          n.DeliveryStats.Total,
		"delivered":      n.DeliveryStats.Delivered,
		"failed":         n.DeliveryStats.Failed,
	})
}

type emergencyRequest struct {
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Emergency is the one-click path for human-raised emergencies:
// severity, audience and channels are forced, only the text varies.
func (h *NotificationHandler) Emergency(c *gin.Context) {
	var req emergencyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Title == "" {
		req.Title = "🚨 Emergency Alert"
	}
	if req.Message == "" {
		req.Message = "Emergency situation detected. All personnel please follow emergency protocols."
	}

	n, err := h.notifications.Dispatch(c.Request.Context(), &entity.NotificationRequest{
		Type:     "emergency",
		Title:    req.Title,
		Message:  req.Message,
		Severity: entity.SeverityCritical,
		Spec:     entity.SpecForAll(),
		Channels: entity.Channels{InApp: true, Email: true, SMS: true},
		Metadata: req.Metadata,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
		"total":          n.DeliveryStats.Total,
		"delivered":      n.DeliveryStats.Delivered,
		"failed":         n.DeliveryStats.Failed,
	})
}

// Test sends a fixed low-severity notification to the admin audience,
// in-app only; the body is ignored.
func (h *NotificationHandler) Test(c *gin.Context) {
	n, err := h.notifications.Dispatch(c.Request.Context(), &entity.NotificationRequest{
		Type:     "test",
		Title:    "Test Notification",
		Message:  "This is a test notification from the admin panel.",
		Severity: entity.SeverityLow,
		Spec:     entity.SpecForRole(entity.RoleAdmin),
		Channels: entity.Channels{InApp: true},
		Metadata: map[string]interface{}{"testMode": true},
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
		"total":          n.DeliveryStats.Total,
		"delivered":      n.DeliveryStats.Delivered,
		"failed":         n.DeliveryStats.Failed,
	})
}

func (h *NotificationHandler) History(c *gin.Context) {
	filter := entity.HistoryFilter{
		Type:       c.Query("type"),
		Severity:   c.Query("severity"),
		Recipients: c.Query("recipients"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 20),
	}
	if from := c.Query("dateFrom"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateFrom"})
			return
		}
		filter.DateFrom = &t
	}
	if to := c.Query("dateTo"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateTo"})
			return
		}
		filter.DateTo = &t
	}

	notifications, total, err := h.notifications.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          filter.Page,
		"limit":         filter.Limit,
	})
}

func (h *NotificationHandler) Stats(c *gin.Context) {
	var since time.Time
	switch c.DefaultQuery("timeRange", "7d") {
	case "1d":
		since = time.Now().Add(-24 * time.Hour)
	case "7d":
		since = time.Now().Add(-7 * 24 * time.Hour)
	case "30d":
		since = time.Now().Add(-30 * 24 * time.Hour)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeRange must be 1d, 7d or 30d"})
		return
	}

	stats, err := h.notifications.Stats(c.Request.Context(), since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *NotificationHandler) Unread(c *gin.Context) {
	user := middleware.CurrentUser(c)

	notifications, err := h.notifications.UnreadForUser(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	n, err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

type scheduleRequest struct {
	sendNotificationRequest
	ScheduleTime string `json:"scheduleTime" binding:"required"`
}

func (h *NotificationHandler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at, err := time.Parse(time.RFC3339, req.ScheduleTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduleTime must be RFC3339"})
		return
	}

	request, err := req.toEntity()
	if err != nil {
		respondError(c, err)
		return
	}

	n, err := h.notifications.Schedule(c.Request.Context(), request, at, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
		"scheduledFor":   n.ScheduledFor,
	})
}

func (h *NotificationHandler) Scheduled(c *gin.Context) {
	notifications, err := h.notifications.Scheduled(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

func (h *NotificationHandler) CancelScheduled(c *gin.Context) {
	n, err := h.notifications.CancelScheduled(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
	})
}

func (h *NotificationHandler) DeliveryStatus(c *gin.Context) {
	n, err := h.notifications.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notificationId": n.ID,
		"status":         n.Status,
		"deliveryStats":  n.DeliveryStats,
		"readCount":      len(n.ReadBy),
		"sentAt":         n.SentAt,
		"completedAt":    n.CompletedAt,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
