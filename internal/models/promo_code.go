package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PromoTypeRole   = "role"
	PromoTypeCourse = "course"
)

// PromoCode grants either a timed role upgrade (TargetRole, role type) or
// timed access to one course (CourseID, course type). Invariant:
// UsedCount <= MaxUses; inactive or expired codes are unusable even under
// the use cap.
type PromoCode struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code       string     `gorm:"not null;size:100;uniqueIndex" json:"code"`
	PromoType  string     `gorm:"size:20;not null;default:'role'" json:"promo_type"`
	TargetRole *string    `gorm:"size:20" json:"target_role,omitempty"`
	CourseID   *uuid.UUID `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Days       int        `gorm:"not null;default:30" json:"days"`
	MaxUses    int        `gorm:"not null;default:1" json:"max_uses"`
	UsedCount  int        `gorm:"not null;default:0" json:"used_count"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PromoUsage is the one-row-per-(code,user) redemption ledger. The composite
// unique index turns concurrent duplicate redemptions into constraint
// violations instead of silent double-grants.
type PromoUsage struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PromoID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_promo_usages_promo_user" json:"promo_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_promo_usages_promo_user" json:"user_id"`
	UsedAt  time.Time `gorm:"not null" json:"used_at"`

	Promo PromoCode `gorm:"foreignKey:PromoID" json:"-"`
	User  User      `gorm:"foreignKey:UserID" json:"-"`
}
