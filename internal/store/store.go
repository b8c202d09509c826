// Package store is the persistence layer behind the entitlement resolver,
// the promo redemption engine, the sweeper and the billing adapter. Those
// components depend on narrow interfaces they define themselves; *Store
// satisfies all of them, so tests can swap in in-memory fakes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate maps unique-constraint violations, e.g. a second
	// redemption of the same code by the same user.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUsageLimit means the guarded used_count increment found the code
	// already at max_uses.
	ErrUsageLimit = errors.New("usage limit reached")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Resolver reads ---

// ActivePurchase returns the user's purchase for the course when it is both
// flagged active and unexpired, or (nil, nil). Checking expires_at as well
// as active covers the gap between sweeps.
func (s *Store) ActivePurchase(ctx context.Context, userID, courseID uuid.UUID, now time.Time) (*models.CoursePurchase, error) {
	var purchase models.CoursePurchase
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND active = true AND expires_at >= ?", userID, courseID, now).
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *Store) PromoCodesForCourse(ctx context.Context, courseID uuid.UUID) ([]models.PromoCode, error) {
	var codes []models.PromoCode
	err := s.db.WithContext(ctx).
		Where("promo_type = ? AND course_id = ?", models.PromoTypeCourse, courseID).
		Find(&codes).Error
	return codes, err
}

func (s *Store) PromoUsage(ctx context.Context, promoID, userID uuid.UUID) (*models.PromoUsage, error) {
	var usage models.PromoUsage
	err := s.db.WithContext(ctx).
		Where("promo_id = ? AND user_id = ?", promoID, userID).
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// --- Promo redemption ---

func (s *Store) PromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// RedeemPromo inserts the usage row and increments used_count in one
// transaction. The composite unique index on (promo_id, user_id) turns a
// concurrent duplicate submission into ErrDuplicate; the guarded increment
// turns an over-cap race into ErrUsageLimit. Either way the transaction
// rolls back whole.
func (s *Store) RedeemPromo(ctx context.Context, promoID, userID uuid.UUID, usedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		usage := models.PromoUsage{
			ID:      uuid.New(),
			PromoID: promoID,
			UserID:  userID,
			UsedAt:  usedAt,
		}
		if err := tx.Create(&usage).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return err
		}

		res := tx.Model(&models.PromoCode{}).
			Where("id = ? AND used_count < max_uses", promoID).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUsageLimit
		}
		return nil
	})
}

// --- Users ---

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUserPlan(ctx context.Context, userID uuid.UUID, role string, expiry *time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"role":             role,
			"role_expiry_date": expiry,
		}).Error
}

// --- Billing ---

func (s *Store) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Store) PurchaseByPaymentID(ctx context.Context, stripePaymentID string) (*models.CoursePurchase, error) {
	var purchase models.CoursePurchase
	err := s.db.WithContext(ctx).Where("stripe_payment_id = ?", stripePaymentID).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase *models.CoursePurchase) error {
	err := s.db.WithContext(ctx).Create(purchase).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// --- Sweeper ---

// DeactivateExpiredPurchases flips active purchases past their expiry.
// Idempotent: rows already deactivated never match again.
func (s *Store) DeactivateExpiredPurchases(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.CoursePurchase{}).
		Where("active = true AND expires_at < ?", now).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// ExpiredPlanUsers lists paid-tier users whose role expiry has passed.
func (s *Store) ExpiredPlanUsers(ctx context.Context, now time.Time) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role IN ? AND role_expiry_date IS NOT NULL AND role_expiry_date < ?",
			[]string{models.RoleTool, models.RoleMaster}, now).
		Find(&users).Error
	return users, err
}

// DowngradeUser resets an expired paid role back to the base tier.
func (s *Store) DowngradeUser(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"role":             models.RoleBasic,
			"role_expiry_date": nil,
		}).Error
}
