package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification targets. A notification is visible to a user when TargetAll,
// when TargetRole matches the user's role, or when individual and bound to
// the user's ID.
const (
	TargetAll        = "all"
	TargetIndividual = "individual"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title      string     `gorm:"not null;size:255" json:"title"`
	Message    string     `gorm:"type:text" json:"message"`
	TargetRole string     `gorm:"size:20;not null;default:'all';index" json:"target_role"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NotificationRead marks a notification as read by one user. Broadcast
// notifications share a single row in notifications, so read state has to
// live in its own ledger.
type NotificationRead struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NotificationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_notification_reads_notif_user" json:"notification_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_notification_reads_notif_user" json:"user_id"`
	ReadAt         time.Time `gorm:"not null" json:"read_at"`
}
