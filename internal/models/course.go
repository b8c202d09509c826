package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course access policy is derived, never stored: free + visible courses
// follow normal role gating, RequiresPromoCode locks until a course promo is
// redeemed, Price > 0 locks until an active purchase exists.
type Course struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title             string         `gorm:"not null;size:255" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	Category          string         `gorm:"size:100;index" json:"category"`
	Level             string         `gorm:"size:50" json:"level"`
	RequiresPromoCode bool           `gorm:"default:false" json:"requires_promo_code"`
	Price             *float64       `gorm:"type:decimal(10,2)" json:"price,omitempty"`
	IsHidden          bool           `gorm:"default:false" json:"is_hidden"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsFree reports whether the course has no price (nil or zero).
func (c *Course) IsFree() bool {
	return c.Price == nil || *c.Price == 0
}
