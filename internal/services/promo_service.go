package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/entitlement"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/engtoolshub/engtools-backend/internal/store"
	"github.com/google/uuid"
)

// Validation failures are expected business outcomes, surfaced as 4xx with
// their message. Only infrastructure errors become 5xx.
var (
	ErrCodeInvalid     = errors.New("invalid or inactive promo code")
	ErrCodeLimit       = errors.New("this code has already reached its usage limit")
	ErrCodeExpired     = errors.New("this promo code has expired")
	ErrCodeWrongType   = errors.New("this code cannot be used here")
	ErrCodeWrongCourse = errors.New("this code is not valid for this course")
	ErrCodeUsed        = errors.New("you have already used this promo code")
	ErrUserNotFound    = errors.New("user not found")
)

// PromoStore is the persistence surface the redemption engine needs.
// *store.Store satisfies it.
type PromoStore interface {
	PromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error)
	RedeemPromo(ctx context.Context, promoID, userID uuid.UUID, usedAt time.Time) error
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserPlan(ctx context.Context, userID uuid.UUID, role string, expiry *time.Time) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type PromoService struct {
	store PromoStore
	now   func() time.Time
}

func NewPromoService(st PromoStore) *PromoService {
	return &PromoService{store: st, now: time.Now}
}

func NewPromoServiceAt(st PromoStore, now func() time.Time) *PromoService {
	return &PromoService{store: st, now: now}
}

// RedeemResult is returned on successful redemption.
type RedeemResult struct {
	PromoType string     `json:"promo_type"`
	Days      int        `json:"days"`
	Role      string     `json:"role,omitempty"`
	CourseID  *uuid.UUID `json:"course_id,omitempty"`
	Message   string     `json:"message"`
}

// Redeem validates and applies a promo code for one user, exactly once.
// courseID is non-nil when the caller is unlocking a course; nil for a role
// upgrade. Validation fails fast in a fixed order so retries see the same
// first failure. The usage insert and counter increment run in one
// transaction against a unique (promo, user) index, so a duplicate
// submission loses the race deterministically instead of double-granting.
func (s *PromoService) Redeem(ctx context.Context, userID uuid.UUID, code string, courseID *uuid.UUID) (*RedeemResult, error) {
	promo, err := s.store.PromoCodeByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("promo lookup: %w", err)
	}
	if promo == nil || !promo.IsActive {
		return nil, ErrCodeInvalid
	}
	if promo.UsedCount >= promo.MaxUses {
		return nil, ErrCodeLimit
	}
	now := s.now()
	if promo.ExpiryDate != nil && promo.ExpiryDate.Before(now) {
		return nil, ErrCodeExpired
	}

	forCourse := courseID != nil
	if forCourse != (promo.PromoType == models.PromoTypeCourse) {
		return nil, ErrCodeWrongType
	}
	if forCourse {
		if promo.CourseID == nil || *promo.CourseID != *courseID {
			return nil, ErrCodeWrongCourse
		}
	}

	if err := s.store.RedeemPromo(ctx, promo.ID, userID, now); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrCodeUsed
		case errors.Is(err, store.ErrUsageLimit):
			return nil, ErrCodeLimit
		default:
			return nil, fmt.Errorf("redeem promo: %w", err)
		}
	}

	result := &RedeemResult{
		PromoType: promo.PromoType,
		Days:      promo.Days,
		CourseID:  promo.CourseID,
	}

	if promo.PromoType == models.PromoTypeRole {
		// The code carries its own target role; never re-derive it from
		// usage history.
		targetRole := ""
		if promo.TargetRole != nil {
			targetRole = *promo.TargetRole
		}
		user, err := s.ExtendProStatus(ctx, userID, targetRole, promo.Days)
		if err != nil {
			return nil, err
		}
		result.Role = user.Role
		result.Message = fmt.Sprintf("Code applied: %s plan active for %d more days", user.Role, promo.Days)
	} else {
		// Course access is re-derived by the resolver from the usage
		// timestamp plus the code's day count; the ledger row is the grant.
		result.Message = fmt.Sprintf("Code applied: course unlocked for %d days", promo.Days)
	}

	slog.Info("promo code redeemed",
		"user_id", userID.String(), "code", promo.Code, "promo_type", promo.PromoType)
	return result, nil
}

// ExtendProStatus applies a timed role grant. The new expiry stacks on
// whichever is later of now and the current expiry, so consecutive grants
// add up and a grant never shortens an existing window. An empty targetRole
// means "one step up the ladder". The role never moves down.
func (s *PromoService) ExtendProStatus(ctx context.Context, userID uuid.UUID, targetRole string, days int) (*models.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	newExpiry := entitlement.ExtendedExpiry(user.RoleExpiryDate, now, days)

	newRole := targetRole
	if newRole == "" {
		newRole = entitlement.NextRole(user.Role)
	}
	// Admins keep their role; a grant also never downgrades a paid tier.
	if user.IsAdmin() || entitlement.RoleRank(newRole) < entitlement.RoleRank(user.Role) {
		newRole = user.Role
	}

	if err := s.store.UpdateUserPlan(ctx, userID, newRole, &newExpiry); err != nil {
		return nil, fmt.Errorf("update user plan: %w", err)
	}

	user.Role = newRole
	user.RoleExpiryDate = &newExpiry
	return user, nil
}
