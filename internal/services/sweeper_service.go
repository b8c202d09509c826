package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SweepStore is the persistence surface the expiry sweeper needs.
type SweepStore interface {
	DeactivateExpiredPurchases(ctx context.Context, now time.Time) (int64, error)
	ExpiredPlanUsers(ctx context.Context, now time.Time) ([]models.User, error)
	DowngradeUser(ctx context.Context, userID uuid.UUID) error
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// SweeperService reconciles stored active/role flags with elapsed time.
// Both sweeps are idempotent, so the hourly schedule and the manual admin
// trigger share the same predicates and a failed run is simply retried by
// the next one.
type SweeperService struct {
	store SweepStore
	cron  *cron.Cron
	now   func() time.Time
}

func NewSweeperService(st SweepStore) *SweeperService {
	return &SweeperService{store: st, cron: cron.New(), now: time.Now}
}

func NewSweeperServiceAt(st SweepStore, now func() time.Time) *SweeperService {
	return &SweeperService{store: st, cron: cron.New(), now: now}
}

// Start schedules both sweeps hourly. Errors inside a run are logged and
// swallowed; a failing sweep must never take the process down.
func (s *SweeperService) Start() error {
	if _, err := s.cron.AddFunc("@hourly", func() {
		ctx := context.Background()
		if _, err := s.SweepPurchases(ctx); err != nil {
			slog.Error("purchase sweep failed", "error", err)
		}
		if _, err := s.SweepExpiredPlans(ctx); err != nil {
			slog.Error("plan sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("expiry sweeper started", "schedule", "@hourly")
	return nil
}

func (s *SweeperService) Stop() {
	s.cron.Stop()
}

// SweepPurchases deactivates course purchases past their expiry and returns
// how many rows were flipped.
func (s *SweeperService) SweepPurchases(ctx context.Context) (int64, error) {
	count, err := s.store.DeactivateExpiredPurchases(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.Info("expired course purchases deactivated", "count", count)
	}
	return count, nil
}

// SweepExpiredPlans downgrades users whose paid role has lapsed back to the
// base tier and leaves each a warning notification. Returns the number of
// users downgraded.
func (s *SweeperService) SweepExpiredPlans(ctx context.Context) (int, error) {
	users, err := s.store.ExpiredPlanUsers(ctx, s.now())
	if err != nil {
		return 0, err
	}

	downgraded := 0
	for i := range users {
		user := &users[i]
		if err := s.store.DowngradeUser(ctx, user.ID); err != nil {
			slog.Error("plan downgrade failed", "user_id", user.ID.String(), "error", err)
			continue
		}
		downgraded++

		userID := user.ID
		notif := &models.Notification{
			ID:         uuid.New(),
			Title:      "Your plan has expired",
			Message:    "Your " + user.Role + " plan has expired and your account is back on the " + models.RoleBasic + " plan. Renew to regain access.",
			TargetRole: models.TargetIndividual,
			UserID:     &userID,
		}
		if err := s.store.CreateNotification(ctx, notif); err != nil {
			slog.Error("expiry notification failed", "user_id", user.ID.String(), "error", err)
		}
	}

	if downgraded > 0 {
		slog.Info("expired plans downgraded", "count", downgraded)
	}
	return downgraded, nil
}
