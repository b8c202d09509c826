package services

import (
	"errors"
	"fmt"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPromoNotFound = errors.New("promo code not found")
	ErrPromoTaken    = errors.New("promo code already exists")
	ErrPromoInvalid  = errors.New("invalid promo code definition")
)

// AdminService backs the management panel: user listing, promo code CRUD
// and the redemption ledger. Entitlement mutations (grants, sweeps) go
// through PromoService and SweeperService so admin and automatic paths share
// the same logic.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) ListUsers(page, limit int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

func (s *AdminService) CreatePromo(req *dto.CreatePromoRequest) (*models.PromoCode, error) {
	if req.Code == "" || req.Days <= 0 || req.MaxUses <= 0 {
		return nil, ErrPromoInvalid
	}

	promo := models.PromoCode{
		ID:         uuid.New(),
		Code:       req.Code,
		PromoType:  req.PromoType,
		Days:       req.Days,
		MaxUses:    req.MaxUses,
		IsActive:   true,
		ExpiryDate: req.ExpiryDate,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	switch req.PromoType {
	case models.PromoTypeRole:
		switch req.TargetRole {
		case models.RoleTool, models.RoleMaster:
			role := req.TargetRole
			promo.TargetRole = &role
		case "":
			// ladder-based escalation at redemption time
		default:
			return nil, ErrPromoInvalid
		}
	case models.PromoTypeCourse:
		if req.CourseID == nil {
			return nil, ErrPromoInvalid
		}
		promo.CourseID = req.CourseID
	default:
		return nil, ErrPromoInvalid
	}

	if err := s.db.Create(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPromoTaken
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}
	return &promo, nil
}

func (s *AdminService) ListPromos() ([]models.PromoCode, error) {
	var promos []models.PromoCode
	err := s.db.Order("created_at DESC").Find(&promos).Error
	return promos, err
}

// DeactivatePromo disables a code without touching its usage history.
func (s *AdminService) DeactivatePromo(id uuid.UUID) error {
	res := s.db.Model(&models.PromoCode{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPromoNotFound
	}
	return nil
}

// PromoUsages lists the redemption ledger for one code.
func (s *AdminService) PromoUsages(promoID uuid.UUID) ([]dto.PromoUsageResponse, error) {
	var promo models.PromoCode
	if err := s.db.First(&promo, "id = ?", promoID).Error; err != nil {
		return nil, ErrPromoNotFound
	}

	var usages []models.PromoUsage
	if err := s.db.Preload("User").Where("promo_id = ?", promoID).Order("used_at DESC").Find(&usages).Error; err != nil {
		return nil, err
	}

	out := make([]dto.PromoUsageResponse, len(usages))
	for i, u := range usages {
		out[i] = dto.PromoUsageResponse{
			PromoID: u.PromoID,
			Code:    promo.Code,
			UserID:  u.UserID,
			Email:   u.User.Email,
			UsedAt:  u.UsedAt,
		}
	}
	return out, nil
}
