package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/datatypes"

	"insight-flow/backend/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type createNotificationRequest struct {
	UserID  uuid.UUID       `json:"user_id" binding:"required"`
	Type    string          `json:"type" binding:"required,max=50"`
	Title   string          `json:"title" binding:"required,max=255"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	unreadOnly, ok := boolQuery(c, "unread_only")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	list, err := h.notifications.ListForUser(db, caller.ID, unreadOnly, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if !bindJSON(c, &req) {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	var data datatypes.JSON
	if len(req.Data) > 0 && string(req.Data) != "null" {
		data = datatypes.JSON(req.Data)
	}
	n, err := h.notifications.CreateNotification(db, services.CreateNotificationInput{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    data,
	}, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id", "notification")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(db, id, caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllRead(db, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": n})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	n, err := h.notifications.UnreadCount(db, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
