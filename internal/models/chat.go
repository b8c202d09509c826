package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ThreadStatusOpen   = "open"
	ThreadStatusClosed = "closed"
)

type ChatThread struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject       string    `gorm:"size:255" json:"subject"`
	Status        string    `gorm:"size:20;not null;default:'open'" json:"status"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ChatMessage carries separate read flags per audience: ReadByUser tracks the
// thread owner, ReadByAdmin tracks support staff.
type ChatMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ThreadID    uuid.UUID `gorm:"type:uuid;not null;index" json:"thread_id"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	FromAdmin   bool      `gorm:"default:false" json:"from_admin"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	ReadByUser  bool      `gorm:"default:false" json:"read_by_user"`
	ReadByAdmin bool      `gorm:"default:false" json:"read_by_admin"`
	CreatedAt   time.Time `json:"created_at"`

	Thread ChatThread `gorm:"foreignKey:ThreadID" json:"-"`
}
