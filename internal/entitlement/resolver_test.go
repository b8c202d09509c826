package entitlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// memEntitlementStore is an in-memory stand-in for the GORM store.
type memEntitlementStore struct {
	mu        sync.Mutex
	purchases []models.CoursePurchase
	codes     []models.PromoCode
	usages    []models.PromoUsage
}

func (m *memEntitlementStore) ActivePurchase(_ context.Context, userID, courseID uuid.UUID, now time.Time) (*models.CoursePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.purchases {
		p := m.purchases[i]
		if p.UserID == userID && p.CourseID == courseID && p.Active && !p.ExpiresAt.Before(now) {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memEntitlementStore) PromoCodesForCourse(_ context.Context, courseID uuid.UUID) ([]models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PromoCode
	for _, c := range m.codes {
		if c.PromoType == models.PromoTypeCourse && c.CourseID != nil && *c.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memEntitlementStore) PromoUsage(_ context.Context, promoID, userID uuid.UUID) (*models.PromoUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.usages {
		u := m.usages[i]
		if u.PromoID == promoID && u.UserID == userID {
			return &u, nil
		}
	}
	return nil, nil
}

func TestToolHiddenByCPFRestriction(t *testing.T) {
	tool := &models.Tool{
		AccessLevel:    models.RoleBasic,
		RestrictedCpfs: strPtr("123.456.789-09, 98765432100"),
	}

	// E-MASTER without a listed CPF stays blind to a basic-level tool.
	master := &models.User{Role: models.RoleMaster, CPF: strPtr("11122233344")}
	if !IsToolHidden(master, tool) {
		t.Error("restricted tool should be hidden from unlisted E-MASTER")
	}

	// Listed CPF sees it even with formatting differences.
	listed := &models.User{Role: models.RoleBasic, CPF: strPtr("987.654.321-00")}
	if IsToolHidden(listed, tool) {
		t.Error("restricted tool should be visible to a listed CPF")
	}

	// No CPF on file means hidden.
	noCPF := &models.User{Role: models.RoleMaster}
	if !IsToolHidden(noCPF, tool) {
		t.Error("restricted tool should be hidden from users without a CPF")
	}

	// Admin bypasses the allow-list.
	admin := &models.User{Role: models.RoleAdmin}
	if IsToolHidden(admin, tool) {
		t.Error("restricted tool should be visible to admin")
	}

	// Unrestricted tools are never hidden.
	open := &models.Tool{AccessLevel: models.RoleMaster}
	if IsToolHidden(noCPF, open) {
		t.Error("tool without restriction should never be hidden")
	}
}

func TestResolveToolVisibilityTriState(t *testing.T) {
	tool := &models.Tool{AccessLevel: models.RoleMaster}
	basic := &models.User{Role: models.RoleBasic}
	if got := ResolveToolVisibility(basic, tool); got != ToolLocked {
		t.Errorf("expected locked, got %v", got)
	}

	restricted := &models.Tool{AccessLevel: models.RoleBasic, RestrictedCpfs: strPtr("11111111111")}
	if got := ResolveToolVisibility(basic, restricted); got != ToolHidden {
		t.Errorf("expected hidden, got %v", got)
	}

	master := &models.User{Role: models.RoleMaster}
	if got := ResolveToolVisibility(master, tool); got != ToolAllowed {
		t.Errorf("expected allowed, got %v", got)
	}
}

func TestCourseAccessAdminAlwaysGranted(t *testing.T) {
	r := NewResolver(&memEntitlementStore{})
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	course := &models.Course{ID: uuid.New(), IsHidden: true, Price: floatPtr(100), RequiresPromoCode: true}

	access, err := r.CheckCourseAccess(context.Background(), admin, course)
	if err != nil {
		t.Fatal(err)
	}
	if !access.HasAccess {
		t.Error("admin must have access to every course")
	}
}

func TestCourseAccessPurchaseLifecycle(t *testing.T) {
	userID := uuid.New()
	courseID := uuid.New()
	now := time.Now()

	st := &memEntitlementStore{}
	clock := now
	r := NewResolverAt(st, func() time.Time { return clock })

	user := &models.User{ID: userID, Role: models.RoleBasic}
	course := &models.Course{ID: courseID, Price: floatPtr(49.90)}

	// No purchase: denied with the purchase reason.
	access, err := r.CheckCourseAccess(context.Background(), user, course)
	if err != nil {
		t.Fatal(err)
	}
	if access.HasAccess || !access.RequiresPurchase {
		t.Errorf("expected purchase-required denial, got %+v", access)
	}

	// Active purchase grants access.
	st.purchases = append(st.purchases, models.CoursePurchase{
		UserID: userID, CourseID: courseID, Active: true,
		ExpiresAt: now.AddDate(0, 0, 30),
	})
	access, _ = r.CheckCourseAccess(context.Background(), user, course)
	if !access.HasAccess || !access.HasPurchased {
		t.Errorf("expected purchased access, got %+v", access)
	}

	// Past expiry the purchase no longer counts, even before any sweep
	// flips the active flag.
	clock = now.AddDate(0, 0, 31)
	access, _ = r.CheckCourseAccess(context.Background(), user, course)
	if access.HasAccess {
		t.Error("expired purchase must not grant access")
	}
}

func TestCourseAccessMasterFreeCatalog(t *testing.T) {
	r := NewResolver(&memEntitlementStore{})
	master := &models.User{ID: uuid.New(), Role: models.RoleMaster}

	free := &models.Course{ID: uuid.New(), RequiresPromoCode: true}
	access, _ := r.CheckCourseAccess(context.Background(), master, free)
	if !access.HasAccess {
		t.Error("E-MASTER should unlock free non-hidden courses regardless of promo requirement")
	}

	hidden := &models.Course{ID: uuid.New(), IsHidden: true}
	access, _ = r.CheckCourseAccess(context.Background(), master, hidden)
	if access.HasAccess {
		t.Error("hidden course must not be covered by the E-MASTER blanket")
	}

	paid := &models.Course{ID: uuid.New(), Price: floatPtr(10)}
	access, _ = r.CheckCourseAccess(context.Background(), master, paid)
	if access.HasAccess {
		t.Error("paid course must not be covered by the E-MASTER blanket")
	}
}

func TestCourseAccessFreeCourseOpenToAll(t *testing.T) {
	r := NewResolver(&memEntitlementStore{})
	basic := &models.User{ID: uuid.New(), Role: models.RoleBasic}

	free := &models.Course{ID: uuid.New()}
	access, _ := r.CheckCourseAccess(context.Background(), basic, free)
	if !access.HasAccess {
		t.Error("free visible course should be open to E-BASIC")
	}

	hidden := &models.Course{ID: uuid.New(), IsHidden: true}
	access, _ = r.CheckCourseAccess(context.Background(), basic, hidden)
	if access.HasAccess {
		t.Error("hidden course should be denied")
	}
}

func TestCourseAccessPromoGrantWindow(t *testing.T) {
	userID := uuid.New()
	courseID := uuid.New()
	promoID := uuid.New()
	redeemedAt := time.Now()

	st := &memEntitlementStore{
		codes: []models.PromoCode{{
			ID: promoID, PromoType: models.PromoTypeCourse,
			CourseID: &courseID, Days: 14, IsActive: true,
		}},
		usages: []models.PromoUsage{{
			PromoID: promoID, UserID: userID, UsedAt: redeemedAt,
		}},
	}

	clock := redeemedAt
	r := NewResolverAt(st, func() time.Time { return clock })
	user := &models.User{ID: userID, Role: models.RoleBasic}
	course := &models.Course{ID: courseID, RequiresPromoCode: true}

	access, err := r.CheckCourseAccess(context.Background(), user, course)
	if err != nil {
		t.Fatal(err)
	}
	if !access.HasAccess {
		t.Error("redeemed promo should grant access inside its window")
	}

	// 15 days later the 14-day grant has lapsed.
	clock = redeemedAt.AddDate(0, 0, 15)
	access, _ = r.CheckCourseAccess(context.Background(), user, course)
	if access.HasAccess {
		t.Error("promo grant must expire after the code's day count")
	}
	if !access.RequiresPromoCode {
		t.Error("denial should name the promo requirement")
	}

	// Inactive codes stop granting even with a usage row.
	clock = redeemedAt
	st.codes[0].IsActive = false
	access, _ = r.CheckCourseAccess(context.Background(), user, course)
	if access.HasAccess {
		t.Error("inactive code must not keep granting access")
	}
}

func TestPromoGrantExpiry(t *testing.T) {
	usedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	usage := &models.PromoUsage{UsedAt: usedAt}
	code := &models.PromoCode{Days: 14}

	want := usedAt.AddDate(0, 0, 14)
	if got := PromoGrantExpiry(usage, code); !got.Equal(want) {
		t.Errorf("PromoGrantExpiry = %v, want %v", got, want)
	}
}

func TestExtendedExpiryStacks(t *testing.T) {
	now := time.Now()

	// From scratch: now + days.
	got := ExtendedExpiry(nil, now, 30)
	if want := now.AddDate(0, 0, 30); !got.Equal(want) {
		t.Errorf("ExtendedExpiry(nil) = %v, want %v", got, want)
	}

	// Stacking before expiry: the later baseline wins, so d1 then d2 adds up.
	first := ExtendedExpiry(nil, now, 30)
	second := ExtendedExpiry(&first, now, 15)
	if want := now.AddDate(0, 0, 45); !second.Equal(want) {
		t.Errorf("stacked expiry = %v, want %v", second, want)
	}

	// An already-lapsed expiry restarts from now, never from the past.
	past := now.AddDate(0, 0, -10)
	got = ExtendedExpiry(&past, now, 30)
	if want := now.AddDate(0, 0, 30); !got.Equal(want) {
		t.Errorf("expiry from lapsed base = %v, want %v", got, want)
	}
}
