package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tool link types. Exactly one of Link/CustomHTML is populated: internal and
// external tools carry a Link, custom tools carry embedded CustomHTML.
const (
	LinkTypeInternal = "internal"
	LinkTypeExternal = "external"
	LinkTypeCustom   = "custom"
)

type Tool struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	AccessLevel string    `gorm:"size:20;not null;default:'E-BASIC'" json:"access_level"`
	LinkType    string    `gorm:"size:20;not null;default:'external'" json:"link_type"`
	Link        *string   `gorm:"size:2048" json:"link,omitempty"`
	CustomHTML  *string   `gorm:"type:text" json:"custom_html,omitempty"`
	// RestrictedCpfs is a comma-separated CPF allow-list. When non-empty the
	// tool is invisible to everyone except admins and listed CPFs, regardless
	// of AccessLevel.
	RestrictedCpfs *string        `gorm:"type:text" json:"restricted_cpfs,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
