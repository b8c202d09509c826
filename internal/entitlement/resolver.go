package entitlement

import (
	"context"
	"strings"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
)

// ToolVisibility is the tri-state a tool resolves to for a given user.
// Hidden and locked are distinct: hidden tools must not appear even in a
// "locked" listing, locked tools appear but without their payload.
type ToolVisibility int

const (
	ToolHidden ToolVisibility = iota
	ToolLocked
	ToolAllowed
)

// IsToolHidden applies the CPF allow-list precedence rule: a non-empty
// RestrictedCpfs list makes the tool invisible to everyone except admins and
// users whose normalized CPF appears in the list. Users without a CPF on
// file never see restricted tools.
func IsToolHidden(user *models.User, tool *models.Tool) bool {
	if tool.RestrictedCpfs == nil || strings.TrimSpace(*tool.RestrictedCpfs) == "" {
		return false
	}
	if user.IsAdmin() {
		return false
	}
	if user.CPF == nil {
		return true
	}
	own := NormalizeCPF(*user.CPF)
	if own == "" {
		return true
	}
	for _, allowed := range SplitRestrictedCpfs(*tool.RestrictedCpfs) {
		if allowed == own {
			return false
		}
	}
	return true
}

// HasToolAccess is the pure role-rank check, applied only to visible tools.
func HasToolAccess(user *models.User, tool *models.Tool) bool {
	return RoleAtLeast(user.Role, tool.AccessLevel)
}

// ResolveToolVisibility combines both checks into the tri-state used for
// server-side list filtering.
func ResolveToolVisibility(user *models.User, tool *models.Tool) ToolVisibility {
	if IsToolHidden(user, tool) {
		return ToolHidden
	}
	if !HasToolAccess(user, tool) {
		return ToolLocked
	}
	return ToolAllowed
}

// CourseAccess is the resolver's decision for one (user, course) pair.
type CourseAccess struct {
	HasAccess         bool   `json:"has_access"`
	HasPurchased      bool   `json:"has_purchased"`
	RequiresPromoCode bool   `json:"requires_promo_code"`
	RequiresPurchase  bool   `json:"requires_purchase"`
	Message           string `json:"message"`
}

// Store is the read surface the resolver needs. Lookups return (nil, nil)
// when no matching row exists; errors are reserved for infrastructure
// failures.
type Store interface {
	ActivePurchase(ctx context.Context, userID, courseID uuid.UUID, now time.Time) (*models.CoursePurchase, error)
	PromoCodesForCourse(ctx context.Context, courseID uuid.UUID) ([]models.PromoCode, error)
	PromoUsage(ctx context.Context, promoID, userID uuid.UUID) (*models.PromoUsage, error)
}

type Resolver struct {
	store Store
	now   func() time.Time
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// NewResolverAt injects a clock, used by tests and the sweeper.
func NewResolverAt(store Store, now func() time.Time) *Resolver {
	return &Resolver{store: store, now: now}
}

// CheckCourseAccess evaluates the access chain in precedence order; the
// first matching rule wins:
//  1. admin
//  2. active purchase (active AND unexpired, both verified)
//  3. E-MASTER blanket access to the free, non-hidden catalog
//  4. free, non-hidden, no promo requirement: open to any authenticated role
//  5. promo-required: a matching course code redeemed by this user and still
//     inside its granted window
//  6. denied, with a reason the UI can distinguish
func (r *Resolver) CheckCourseAccess(ctx context.Context, user *models.User, course *models.Course) (*CourseAccess, error) {
	if user.IsAdmin() {
		return &CourseAccess{HasAccess: true, Message: "Administrator access"}, nil
	}

	now := r.now()

	purchase, err := r.store.ActivePurchase(ctx, user.ID, course.ID, now)
	if err != nil {
		return nil, err
	}
	if purchase != nil {
		return &CourseAccess{HasAccess: true, HasPurchased: true, Message: "Active purchase"}, nil
	}

	if user.Role == models.RoleMaster && course.IsFree() && !course.IsHidden {
		return &CourseAccess{HasAccess: true, Message: "Included in your plan"}, nil
	}

	if !course.RequiresPromoCode && course.IsFree() && !course.IsHidden {
		return &CourseAccess{HasAccess: true, Message: "Free course"}, nil
	}

	if course.RequiresPromoCode {
		granted, err := r.hasValidPromoGrant(ctx, user.ID, course.ID, now)
		if err != nil {
			return nil, err
		}
		if granted {
			return &CourseAccess{HasAccess: true, Message: "Unlocked by promo code"}, nil
		}
		return &CourseAccess{
			RequiresPromoCode: true,
			Message:           "This course requires a promo code",
		}, nil
	}

	if !course.IsFree() {
		return &CourseAccess{
			RequiresPurchase: true,
			Message:          "This course requires purchase",
		}, nil
	}

	return &CourseAccess{Message: "You do not have access to this course"}, nil
}

// hasValidPromoGrant checks whether any active course code bound to the
// course was redeemed by the user and is still inside its window. The window
// is derived from the usage timestamp on every check, never stored.
func (r *Resolver) hasValidPromoGrant(ctx context.Context, userID, courseID uuid.UUID, now time.Time) (bool, error) {
	codes, err := r.store.PromoCodesForCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	for i := range codes {
		code := &codes[i]
		if !code.IsActive {
			continue
		}
		usage, err := r.store.PromoUsage(ctx, code.ID, userID)
		if err != nil {
			return false, err
		}
		if usage == nil {
			continue
		}
		if !PromoGrantExpiry(usage, code).Before(now) {
			return true, nil
		}
	}
	return false, nil
}
