package dto

import (
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
)

type BroadcastRequest struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	TargetRole string `json:"target_role"`
	UserID     string `json:"user_id,omitempty"`
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationResponse(n *models.Notification, read bool) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      read,
		CreatedAt: n.CreatedAt,
	}
}

type ChatMessageRequest struct {
	Body string `json:"body"`
}

type CreateThreadRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type GrantDaysRequest struct {
	TargetRole string `json:"target_role,omitempty"`
	Days       int    `json:"days"`
}

type SweepResponse struct {
	Affected int64  `json:"affected"`
	Message  string `json:"message"`
}
