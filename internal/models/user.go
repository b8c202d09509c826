package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role tiers. E-BASIC < E-TOOL < E-MASTER form a total order for access
// comparisons; admin bypasses every check.
const (
	RoleBasic  = "E-BASIC"
	RoleTool   = "E-TOOL"
	RoleMaster = "E-MASTER"
	RoleAdmin  = "admin"
)

type User struct {
	ID                      uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                    string         `gorm:"size:255" json:"name"`
	Email                   string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password                string         `gorm:"not null" json:"-"`
	Role                    string         `gorm:"size:20;default:'E-BASIC'" json:"role"`
	RoleExpiryDate          *time.Time     `json:"role_expiry_date"`
	CPF                     *string        `gorm:"size:14;index" json:"cpf,omitempty"`
	DisablePasswordRecovery bool           `gorm:"default:false" json:"-"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user bypasses entitlement checks entirely.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
