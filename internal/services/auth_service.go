package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/config"
	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/entitlement"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/engtoolshub/engtools-backend/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrRecoveryDisabled   = errors.New("password recovery is disabled for this account")
	ErrRecoveryMismatch   = errors.New("email and CPF do not match our records")
)

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Registry
}

func NewAuthService(db *gorm.DB, cfg *config.Config, sessions *session.Registry) *AuthService {
	return &AuthService{db: db, cfg: cfg, sessions: sessions}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleBasic,
	}
	if cpf := entitlement.NormalizeCPF(req.CPF); cpf != "" {
		user.CPF = &cpf
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(userID uuid.UUID, req *dto.LogoutRequest) error {
	s.sessions.Drop(userID)
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// DeleteAccount removes the user and every dependent row: tokens, promo
// usages, purchases, chat threads with their messages, and notification
// state. Usage counters on codes stay as history.
func (s *AuthService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if password == "" {
		return errors.New("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	s.sessions.Drop(userID)

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{})
		tx.Where("user_id = ?", userID).Delete(&models.PromoUsage{})
		tx.Where("user_id = ?", userID).Delete(&models.CoursePurchase{})

		var threadIDs []uuid.UUID
		tx.Model(&models.ChatThread{}).Where("user_id = ?", userID).Pluck("id", &threadIDs)
		if len(threadIDs) > 0 {
			tx.Where("thread_id IN ?", threadIDs).Delete(&models.ChatMessage{})
		}
		tx.Where("user_id = ?", userID).Delete(&models.ChatThread{})

		tx.Where("user_id = ?", userID).Delete(&models.NotificationRead{})
		tx.Where("user_id = ? AND target_role = ?", userID, models.TargetIndividual).Delete(&models.Notification{})

		return tx.Delete(&user).Error
	})
}

// RecoverPassword verifies the stored CPF against the supplied one
// (digit-normalized on both sides) and, when they match, replaces the
// password with a random temporary one returned exactly once. Accounts with
// recovery disabled, unknown emails, missing CPFs and mismatches all surface
// the same mismatch error to avoid probing.
func (s *AuthService) RecoverPassword(req *dto.RecoverPasswordRequest) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return "", ErrRecoveryMismatch
	}

	if user.DisablePasswordRecovery {
		return "", ErrRecoveryDisabled
	}
	if user.CPF == nil || entitlement.NormalizeCPF(*user.CPF) != entitlement.NormalizeCPF(req.CPF) ||
		entitlement.NormalizeCPF(req.CPF) == "" {
		return "", ErrRecoveryMismatch
	}

	raw := make([]byte, 9)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate temporary password: %w", err)
	}
	tempPassword := base64.RawURLEncoding.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(&user).Update("password", string(hash)).Error; err != nil {
		return "", fmt.Errorf("failed to reset password: %w", err)
	}

	// Force re-login everywhere.
	s.sessions.Drop(user.ID)
	s.db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Update("revoked", true)

	return tempPassword, nil
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	sid := s.sessions.Register(user.ID)

	accessToken, err := s.generateAccessToken(user, sid)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:             user.ID,
			Name:           user.Name,
			Email:          user.Email,
			Role:           user.Role,
			RoleExpiryDate: user.RoleExpiryDate,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, sid uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"sid":   sid.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
