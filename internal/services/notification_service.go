package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrBadTarget            = errors.New("invalid notification target")
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// visibleScope matches notifications addressed to everyone, to the user's
// role, or to the user individually.
func visibleScope(user *models.User) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"target_role = ? OR target_role = ? OR (target_role = ? AND user_id = ?)",
			models.TargetAll, user.Role, models.TargetIndividual, user.ID,
		)
	}
}

func (s *NotificationService) ListForUser(user *models.User) ([]dto.NotificationResponse, error) {
	var notifications []models.Notification
	if err := s.db.Scopes(visibleScope(user)).Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	ids := make([]uuid.UUID, len(notifications))
	for i := range notifications {
		ids[i] = notifications[i].ID
	}
	readSet := make(map[uuid.UUID]bool, len(ids))
	if len(ids) > 0 {
		var reads []models.NotificationRead
		if err := s.db.Where("user_id = ? AND notification_id IN ?", user.ID, ids).Find(&reads).Error; err != nil {
			return nil, fmt.Errorf("failed to load read state: %w", err)
		}
		for _, r := range reads {
			readSet[r.NotificationID] = true
		}
	}

	out := make([]dto.NotificationResponse, len(notifications))
	for i := range notifications {
		out[i] = dto.NewNotificationResponse(&notifications[i], readSet[notifications[i].ID])
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(user *models.User) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Scopes(visibleScope(user)).
		Where("NOT EXISTS (SELECT 1 FROM notification_reads r WHERE r.notification_id = notifications.id AND r.user_id = ?)", user.ID).
		Count(&count).Error
	return count, err
}

// MarkRead records the read in the per-user ledger. Re-marking is a no-op.
func (s *NotificationService) MarkRead(user *models.User, notificationID uuid.UUID) error {
	var notif models.Notification
	if err := s.db.Scopes(visibleScope(user)).First(&notif, "id = ?", notificationID).Error; err != nil {
		return ErrNotificationNotFound
	}

	read := models.NotificationRead{
		ID:             uuid.New(),
		NotificationID: notificationID,
		UserID:         user.ID,
		ReadAt:         time.Now(),
	}
	err := s.db.Create(&read).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// Broadcast creates an admin announcement targeted at everyone, one role, or
// one user.
func (s *NotificationService) Broadcast(req *dto.BroadcastRequest) (*models.Notification, error) {
	notif := models.Notification{
		ID:         uuid.New(),
		Title:      req.Title,
		Message:    req.Message,
		TargetRole: req.TargetRole,
	}

	switch req.TargetRole {
	case models.TargetAll, models.RoleBasic, models.RoleTool, models.RoleMaster:
	case models.TargetIndividual:
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, ErrBadTarget
		}
		notif.UserID = &userID
	default:
		return nil, ErrBadTarget
	}

	if err := s.db.Create(&notif).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &notif, nil
}
