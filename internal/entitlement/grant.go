package entitlement

import (
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
)

// PromoGrantExpiry is the single place the promo-granted window formula
// lives: redemption timestamp plus the code's day count.
func PromoGrantExpiry(usage *models.PromoUsage, code *models.PromoCode) time.Time {
	return usage.UsedAt.AddDate(0, 0, code.Days)
}

// ExtendedExpiry computes a role expiry after a grant: grants stack on top
// of whichever is later of "now" and the current expiry, so a grant never
// shortens an existing window.
func ExtendedExpiry(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, days)
}
