package dto

import (
	"time"

	"github.com/google/uuid"
)

// UsePromoRequest redeems a code. CourseID is present only when unlocking a
// course; the code's stored type decides which path applies.
type UsePromoRequest struct {
	Code     string     `json:"code"`
	CourseID *uuid.UUID `json:"course_id,omitempty"`
}

type CreatePromoRequest struct {
	Code       string     `json:"code"`
	PromoType  string     `json:"promo_type"`
	TargetRole string     `json:"target_role,omitempty"`
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	Days       int        `json:"days"`
	MaxUses    int        `json:"max_uses"`
	IsActive   *bool      `json:"is_active,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

type PromoUsageResponse struct {
	PromoID uuid.UUID `json:"promo_id"`
	Code    string    `json:"code"`
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	UsedAt  time.Time `json:"used_at"`
}
