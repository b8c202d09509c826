package services

import (
	"context"
	"testing"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
)

func TestSweepPurchases(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	st := newMemStore()
	user := st.addUser(&models.User{Role: models.RoleBasic})
	course := st.addCourse(&models.Course{Title: "Foundations"})

	expired := st.addPurchase(&models.CoursePurchase{
		UserID: user.ID, CourseID: course.ID,
		ExpiresAt: now.Add(-time.Hour), Active: true,
	})
	live := st.addPurchase(&models.CoursePurchase{
		UserID: user.ID, CourseID: course.ID,
		ExpiresAt: now.Add(time.Hour), Active: true,
	})

	svc := NewSweeperServiceAt(st, fixedClock(now))
	count, err := svc.SweepPurchases(ctx)
	if err != nil {
		t.Fatalf("SweepPurchases() error = %v", err)
	}
	if count != 1 {
		t.Errorf("deactivated = %d, want 1", count)
	}
	if expired.Active {
		t.Error("expired purchase still active")
	}
	if !live.Active {
		t.Error("live purchase was deactivated")
	}

	// Second run over the same state is a no-op.
	count, err = svc.SweepPurchases(ctx)
	if err != nil {
		t.Fatalf("second SweepPurchases() error = %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep deactivated = %d, want 0", count)
	}
}

func TestSweepExpiredPlans(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	st := newMemStore()
	lapsed := now.Add(-time.Minute)
	future := now.AddDate(0, 0, 7)

	expiredTool := st.addUser(&models.User{Role: models.RoleTool, RoleExpiryDate: &lapsed})
	expiredMaster := st.addUser(&models.User{Role: models.RoleMaster, RoleExpiryDate: &lapsed})
	activeTool := st.addUser(&models.User{Role: models.RoleTool, RoleExpiryDate: &future})
	openEnded := st.addUser(&models.User{Role: models.RoleMaster})
	basic := st.addUser(&models.User{Role: models.RoleBasic})

	svc := NewSweeperServiceAt(st, fixedClock(now))
	count, err := svc.SweepExpiredPlans(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredPlans() error = %v", err)
	}
	if count != 2 {
		t.Errorf("downgraded = %d, want 2", count)
	}

	for _, u := range []*models.User{expiredTool, expiredMaster} {
		got, _ := st.UserByID(ctx, u.ID)
		if got.Role != models.RoleBasic {
			t.Errorf("user role = %q, want %q", got.Role, models.RoleBasic)
		}
		if got.RoleExpiryDate != nil {
			t.Errorf("user expiry = %v, want cleared", got.RoleExpiryDate)
		}
	}
	for _, u := range []*models.User{activeTool, openEnded} {
		got, _ := st.UserByID(ctx, u.ID)
		if got.Role == models.RoleBasic {
			t.Error("unexpired user was downgraded")
		}
	}
	if got, _ := st.UserByID(ctx, basic.ID); got.Role != models.RoleBasic {
		t.Errorf("basic user role = %q", got.Role)
	}

	// Each downgraded user gets an individual warning.
	if len(st.notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(st.notifications))
	}
	for _, n := range st.notifications {
		if n.TargetRole != models.TargetIndividual || n.UserID == nil {
			t.Errorf("notification not individual: target=%q user=%v", n.TargetRole, n.UserID)
		}
	}

	// Idempotent: nothing left to downgrade.
	count, err = svc.SweepExpiredPlans(ctx)
	if err != nil {
		t.Fatalf("second SweepExpiredPlans() error = %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep downgraded = %d, want 0", count)
	}
	if len(st.notifications) != 2 {
		t.Errorf("second sweep added notifications: %d", len(st.notifications))
	}
}
