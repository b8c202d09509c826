package models

import (
	"time"

	"github.com/google/uuid"
)

// CoursePurchase records a paid unlock. Active is reconciled by the expiry
// sweeper, so access checks must also verify ExpiresAt against the clock
// rather than trusting Active alone between sweeps.
type CoursePurchase struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Price           float64   `gorm:"type:decimal(10,2)" json:"price"`
	StripePaymentID string    `gorm:"size:255;uniqueIndex" json:"stripe_payment_id"`
	PurchasedAt     time.Time `gorm:"not null" json:"purchased_at"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
	Active          bool      `gorm:"default:true;index" json:"active"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}
