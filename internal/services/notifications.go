package services

import (
	"strings"

	"github.com/gofrs/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"insight-flow/backend/internal/models"
)

type CreateNotificationInput struct {
	UserID  uuid.UUID
	Type    string
	Title   string
	Message *string
	Data    datatypes.JSON
}

type NotificationService interface {
	CreateNotification(db *gorm.DB, input CreateNotificationInput, callerID uuid.UUID) (*models.Notification, error)
	ListForUser(db *gorm.DB, userID uuid.UUID, unreadOnly bool, page Page) ([]models.Notification, error)
	MarkRead(db *gorm.DB, id, userID uuid.UUID) error
	MarkAllRead(db *gorm.DB, userID uuid.UUID) (int64, error)
	UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error)
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

// CreateNotification stores a notification for the caller. Notifying another
// user is Forbidden.
func (s *NotificationServiceImpl) CreateNotification(db *gorm.DB, input CreateNotificationInput, callerID uuid.UUID) (*models.Notification, error) {
	if input.UserID != callerID {
		return nil, Forbidden("cannot create notifications for other users")
	}
	if strings.TrimSpace(input.Type) == "" || strings.TrimSpace(input.Title) == "" {
		return nil, InvalidArgument("notification type and title are required")
	}
	n := &models.Notification{
		UserID:  input.UserID,
		Type:    strings.TrimSpace(input.Type),
		Title:   strings.TrimSpace(input.Title),
		Message: input.Message,
		Data:    input.Data,
	}
	if err := db.Create(n).Error; err != nil {
		return nil, storeError(err, "create notification")
	}
	return n, nil
}

func (s *NotificationServiceImpl) ListForUser(db *gorm.DB, userID uuid.UUID, unreadOnly bool, page Page) ([]models.Notification, error) {
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	if err := page.scope(q.Order("created_at DESC")).Find(&out).Error; err != nil {
		return nil, storeError(err, "list notifications")
	}
	return out, nil
}

// MarkRead is idempotent. It fails with NotFound unless the notification
// belongs to userID.
func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, id, userID uuid.UUID) error {
	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return notFoundOr(err, "notification")
	}
	if n.IsRead {
		return nil
	}
	if err := db.Model(&n).Update("is_read", true).Error; err != nil {
		return storeError(err, "mark notification read")
	}
	return nil
}

// MarkAllRead reports how many notifications changed; zero is not an error.
func (s *NotificationServiceImpl) MarkAllRead(db *gorm.DB, userID uuid.UUID) (int64, error) {
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, storeError(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeError(err, "count unread notifications")
	}
	return count, nil
}
