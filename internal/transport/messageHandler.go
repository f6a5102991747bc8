package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
	"github.com/ds124wfegd/emergency-ops/internal/service"
	"github.com/ds124wfegd/emergency-ops/internal/transport/middleware"
)

type MessageHandler struct {
	messages service.Messages
}

func NewMessageHandler(messages service.Messages) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	Content            string   `json:"content" binding:"required"`
	Type               string   `json:"type"`
	Priority           string   `json:"priority"`
	Recipients         string   `json:"recipients"`
	TargetZone         string   `json:"targetZone"`
	SpecificRecipients []string `json:"specificRecipients"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spec, err := entity.ParseRecipientSpec(req.Recipients, req.TargetZone, req.SpecificRecipients)
	if err != nil {
		respondError(c, err)
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), &service.SendMessageInput{
		Content:  req.Content,
		Type:     entity.MessageType(req.Type),
		Priority: entity.MessagePriority(req.Priority),
		Spec:     spec,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

type broadcastMessageRequest struct {
	Content    string `json:"content" binding:"required"`
	Priority   string `json:"priority"`
	Recipients string `json:"recipients"`
	TargetZone string `json:"targetZone"`
}

func (h *MessageHandler) Broadcast(c *gin.Context) {
	var req broadcastMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spec, err := entity.ParseRecipientSpec(req.Recipients, req.TargetZone, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	msg, err := h.messages.Broadcast(c.Request.Context(), &service.BroadcastMessageInput{
		Content:  req.Content,
		Priority: entity.MessagePriority(req.Priority),
		Spec:     spec,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	filter := entity.MessageFilter{
		Type:     c.Query("type"),
		Priority: c.Query("priority"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 50),
	}

	messages, unread, err := h.messages.ForUser(c.Request.Context(), user, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"unread":   unread,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)

	msg, err := h.messages.MarkRead(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)

	stats, err := h.messages.Stats(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
