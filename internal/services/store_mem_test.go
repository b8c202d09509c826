package services

import (
	"context"
	"sync"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/engtoolshub/engtools-backend/internal/store"
	"github.com/google/uuid"
)

type usageKey struct {
	promoID uuid.UUID
	userID  uuid.UUID
}

// memStore is an in-memory store fake satisfying PromoStore, BillingStore
// and SweepStore. It reproduces the unique constraints the real store relies
// on, so the race-to-conflict behavior is testable without a database.
type memStore struct {
	mu sync.Mutex

	users         map[uuid.UUID]*models.User
	promos        map[uuid.UUID]*models.PromoCode
	usages        map[usageKey]*models.PromoUsage
	courses       map[uuid.UUID]*models.Course
	purchases     map[uuid.UUID]*models.CoursePurchase
	notifications []*models.Notification
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*models.User),
		promos:    make(map[uuid.UUID]*models.PromoCode),
		usages:    make(map[usageKey]*models.PromoUsage),
		courses:   make(map[uuid.UUID]*models.Course),
		purchases: make(map[uuid.UUID]*models.CoursePurchase),
	}
}

func (m *memStore) addUser(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addPromo(p *models.PromoCode) *models.PromoCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.promos[p.ID] = p
	return p
}

func (m *memStore) addCourse(c *models.Course) *models.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.courses[c.ID] = c
	return c
}

func (m *memStore) addPurchase(p *models.CoursePurchase) *models.CoursePurchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.purchases[p.ID] = p
	return p
}

// --- PromoStore ---

func (m *memStore) PromoCodeByCode(_ context.Context, code string) (*models.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.promos {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) RedeemPromo(_ context.Context, promoID, userID uuid.UUID, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := usageKey{promoID: promoID, userID: userID}
	if _, exists := m.usages[key]; exists {
		return store.ErrDuplicate
	}
	promo, ok := m.promos[promoID]
	if !ok || promo.UsedCount >= promo.MaxUses {
		return store.ErrUsageLimit
	}

	m.usages[key] = &models.PromoUsage{
		ID: uuid.New(), PromoID: promoID, UserID: userID, UsedAt: usedAt,
	}
	promo.UsedCount++
	return nil
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateUserPlan(_ context.Context, userID uuid.UUID, role string, expiry *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Role = role
		u.RoleExpiryDate = expiry
	}
	return nil
}

func (m *memStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

// --- BillingStore ---

func (m *memStore) CourseByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) PurchaseByPaymentID(_ context.Context, stripePaymentID string) (*models.CoursePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.StripePaymentID == stripePaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreatePurchase(_ context.Context, purchase *models.CoursePurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.purchases {
		if p.StripePaymentID == purchase.StripePaymentID {
			return store.ErrDuplicate
		}
	}
	m.purchases[purchase.ID] = purchase
	return nil
}

// --- SweepStore ---

func (m *memStore) DeactivateExpiredPurchases(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, p := range m.purchases {
		if p.Active && p.ExpiresAt.Before(now) {
			p.Active = false
			count++
		}
	}
	return count, nil
}

func (m *memStore) ExpiredPlanUsers(_ context.Context, now time.Time) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if (u.Role == models.RoleTool || u.Role == models.RoleMaster) &&
			u.RoleExpiryDate != nil && u.RoleExpiryDate.Before(now) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) DowngradeUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Role = models.RoleBasic
		u.RoleExpiryDate = nil
	}
	return nil
}
