package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/engtoolshub/engtools-backend/internal/store"
	"github.com/google/uuid"
)

const (
	defaultPlanDays     = 30
	defaultPurchaseDays = 365
)

// BillingStore is the persistence surface the billing adapter needs.
type BillingStore interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	PurchaseByPaymentID(ctx context.Context, stripePaymentID string) (*models.CoursePurchase, error)
	CreatePurchase(ctx context.Context, purchase *models.CoursePurchase) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// BillingService turns confirmed Stripe payments into entitlements: plan
// upgrades go through the same pro-status extension as promo codes, course
// payments become CoursePurchase rows.
type BillingService struct {
	store BillingStore
	promo *PromoService
	now   func() time.Time
}

func NewBillingService(st BillingStore, promo *PromoService) *BillingService {
	return &BillingService{store: st, promo: promo, now: time.Now}
}

// HandleEvent processes a verified webhook event. Events other than
// payment_intent.succeeded are acknowledged and ignored. Payloads with
// unusable metadata are logged and dropped rather than returned as errors,
// since Stripe would retry them forever.
func (s *BillingService) HandleEvent(ctx context.Context, event *dto.StripeEvent) error {
	if event.Type != "payment_intent.succeeded" {
		return nil
	}

	intent := &event.Data.Object
	switch {
	case intent.Metadata["upgradeType"] == "role":
		return s.handlePlanUpgrade(ctx, intent)
	case intent.Metadata["type"] == "course_purchase":
		return s.handleCoursePurchase(ctx, intent)
	default:
		slog.Warn("stripe payment without recognizable metadata", "payment_id", intent.ID)
		return nil
	}
}

func (s *BillingService) handlePlanUpgrade(ctx context.Context, intent *dto.StripePaymentIntent) error {
	userID, err := uuid.Parse(intent.Metadata["userId"])
	if err != nil {
		slog.Warn("plan upgrade with invalid userId metadata", "payment_id", intent.ID)
		return nil
	}

	days := metadataDays(intent.Metadata, "durationDays", defaultPlanDays)
	targetRole := intent.Metadata["planType"]

	user, err := s.promo.ExtendProStatus(ctx, userID, targetRole, days)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.Warn("plan upgrade for unknown user", "payment_id", intent.ID, "user_id", userID.String())
			return nil
		}
		return fmt.Errorf("plan upgrade: %w", err)
	}

	notif := &models.Notification{
		ID:         uuid.New(),
		Title:      "Payment confirmed",
		Message:    fmt.Sprintf("Your %s plan is active for %d more days.", user.Role, days),
		TargetRole: models.TargetIndividual,
		UserID:     &userID,
	}
	if err := s.store.CreateNotification(ctx, notif); err != nil {
		slog.Error("upgrade notification failed", "user_id", userID.String(), "error", err)
	}

	slog.Info("plan upgrade applied", "user_id", userID.String(), "role", user.Role, "days", days)
	return nil
}

func (s *BillingService) handleCoursePurchase(ctx context.Context, intent *dto.StripePaymentIntent) error {
	// Stripe retries webhooks; an already-recorded payment is a no-op.
	existing, err := s.store.PurchaseByPaymentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("purchase dedupe lookup: %w", err)
	}
	if existing != nil {
		return nil
	}

	userID, err := uuid.Parse(intent.Metadata["userId"])
	if err != nil {
		slog.Warn("course purchase with invalid userId metadata", "payment_id", intent.ID)
		return nil
	}
	courseID, err := uuid.Parse(intent.Metadata["courseId"])
	if err != nil {
		slog.Warn("course purchase with invalid courseId metadata", "payment_id", intent.ID)
		return nil
	}

	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("course lookup: %w", err)
	}
	if course == nil {
		slog.Warn("course purchase for unknown course", "payment_id", intent.ID, "course_id", courseID.String())
		return nil
	}

	now := s.now()
	days := metadataDays(intent.Metadata, "durationDays", defaultPurchaseDays)
	purchase := &models.CoursePurchase{
		ID:              uuid.New(),
		UserID:          userID,
		CourseID:        courseID,
		Price:           float64(intent.Amount) / 100,
		StripePaymentID: intent.ID,
		PurchasedAt:     now,
		ExpiresAt:       now.AddDate(0, 0, days),
		Active:          true,
	}
	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		// Concurrent delivery of the same event: unique payment ID wins.
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create purchase: %w", err)
	}

	notif := &models.Notification{
		ID:         uuid.New(),
		Title:      "Course purchase confirmed",
		Message:    fmt.Sprintf("You now have access to %q for %d days.", course.Title, days),
		TargetRole: models.TargetIndividual,
		UserID:     &userID,
	}
	if err := s.store.CreateNotification(ctx, notif); err != nil {
		slog.Error("purchase notification failed", "user_id", userID.String(), "error", err)
	}

	slog.Info("course purchase recorded",
		"user_id", userID.String(), "course_id", courseID.String(), "payment_id", intent.ID)
	return nil
}

func metadataDays(metadata map[string]string, key string, fallback int) int {
	if v, err := strconv.Atoi(metadata[key]); err == nil && v > 0 {
		return v
	}
	return fallback
}
