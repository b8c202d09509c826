package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
)

func paymentEvent(eventType, paymentID string, amount int64, metadata map[string]string) *dto.StripeEvent {
	ev := &dto.StripeEvent{ID: "evt_" + paymentID, Type: eventType}
	ev.Data.Object = dto.StripePaymentIntent{
		ID:       paymentID,
		Amount:   amount,
		Currency: "brl",
		Status:   "succeeded",
		Metadata: metadata,
	}
	return ev
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	st := newMemStore()
	svc := NewBillingService(st, NewPromoService(st))

	ev := paymentEvent("payment_intent.created", "pi_1", 9900, map[string]string{"upgradeType": "role"})
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(st.notifications) != 0 {
		t.Error("ignored event produced side effects")
	}
}

func TestHandleEventPlanUpgrade(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	st := newMemStore()
	user := st.addUser(&models.User{Role: models.RoleBasic})
	promo := NewPromoServiceAt(st, fixedClock(now))
	svc := NewBillingService(st, promo)

	ev := paymentEvent("payment_intent.succeeded", "pi_plan_1", 4900, map[string]string{
		"upgradeType":  "role",
		"userId":       user.ID.String(),
		"planType":     models.RoleMaster,
		"durationDays": "90",
	})
	if err := svc.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	got, _ := st.UserByID(ctx, user.ID)
	if got.Role != models.RoleMaster {
		t.Errorf("role = %q, want %q", got.Role, models.RoleMaster)
	}
	want := now.AddDate(0, 0, 90)
	if got.RoleExpiryDate == nil || !got.RoleExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v", got.RoleExpiryDate, want)
	}
	if len(st.notifications) != 1 {
		t.Errorf("notifications = %d, want 1", len(st.notifications))
	}
}

func TestHandleEventBadMetadataIsDropped(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewBillingService(st, NewPromoService(st))

	// Stripe retries on error; unusable payloads must be acked, not errored.
	for _, metadata := range []map[string]string{
		{},
		{"upgradeType": "role", "userId": "not-a-uuid"},
		{"type": "course_purchase", "userId": uuid.NewString(), "courseId": "nope"},
	} {
		ev := paymentEvent("payment_intent.succeeded", "pi_bad", 100, metadata)
		if err := svc.HandleEvent(ctx, ev); err != nil {
			t.Errorf("HandleEvent(%v) error = %v, want nil", metadata, err)
		}
	}
	if len(st.purchases) != 0 || len(st.notifications) != 0 {
		t.Error("dropped payload produced side effects")
	}
}

func TestHandleEventCoursePurchase(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	st := newMemStore()
	user := st.addUser(&models.User{Role: models.RoleBasic})
	course := st.addCourse(&models.Course{Title: "Concrete Structures"})
	promo := NewPromoServiceAt(st, fixedClock(now))
	svc := NewBillingService(st, promo)
	svc.now = fixedClock(now)

	ev := paymentEvent("payment_intent.succeeded", "pi_course_1", 19900, map[string]string{
		"type":     "course_purchase",
		"userId":   user.ID.String(),
		"courseId": course.ID.String(),
	})
	if err := svc.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	purchase, err := st.PurchaseByPaymentID(ctx, "pi_course_1")
	if err != nil || purchase == nil {
		t.Fatalf("purchase not recorded: %v", err)
	}
	if purchase.Price != 199 {
		t.Errorf("price = %v, want 199", purchase.Price)
	}
	if !purchase.Active {
		t.Error("purchase not active")
	}
	wantExpiry := now.AddDate(0, 0, defaultPurchaseDays)
	if !purchase.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires = %v, want %v", purchase.ExpiresAt, wantExpiry)
	}

	// Redelivery of the same payment is a no-op.
	if err := svc.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("redelivered HandleEvent() error = %v", err)
	}
	if len(st.purchases) != 1 {
		t.Errorf("purchases = %d, want 1 after redelivery", len(st.purchases))
	}
	if len(st.notifications) != 1 {
		t.Errorf("notifications = %d, want 1 after redelivery", len(st.notifications))
	}
}

func signPayload(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return "t=" + strconv.FormatInt(ts.Unix(), 10) + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyStripeSignature(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	tolerance := 5 * time.Minute

	t.Run("valid", func(t *testing.T) {
		header := signPayload(secret, now.Add(-time.Minute), payload)
		if err := VerifyStripeSignature(secret, payload, header, tolerance, now); err != nil {
			t.Fatalf("VerifyStripeSignature() error = %v", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signPayload(secret, now, payload)
		err := VerifyStripeSignature(secret, []byte(`{"id":"evt_2"}`), header, tolerance, now)
		if !errors.Is(err, ErrBadSignature) {
			t.Fatalf("error = %v, want %v", err, ErrBadSignature)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signPayload("whsec_other", now, payload)
		if err := VerifyStripeSignature(secret, payload, header, tolerance, now); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("error = %v, want %v", err, ErrBadSignature)
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := signPayload(secret, now.Add(-10*time.Minute), payload)
		if err := VerifyStripeSignature(secret, payload, header, tolerance, now); !errors.Is(err, ErrStaleSignature) {
			t.Fatalf("error = %v, want %v", err, ErrStaleSignature)
		}
	})

	t.Run("future timestamp", func(t *testing.T) {
		header := signPayload(secret, now.Add(10*time.Minute), payload)
		if err := VerifyStripeSignature(secret, payload, header, tolerance, now); !errors.Is(err, ErrStaleSignature) {
			t.Fatalf("error = %v, want %v", err, ErrStaleSignature)
		}
	})

	t.Run("garbage header", func(t *testing.T) {
		for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc", "t=123"} {
			if err := VerifyStripeSignature(secret, payload, header, tolerance, now); !errors.Is(err, ErrBadSignature) {
				t.Errorf("header %q: error = %v, want %v", header, err, ErrBadSignature)
			}
		}
	})

	t.Run("extra v1 candidates", func(t *testing.T) {
		// Stripe sends multiple v1 entries during secret rolls; any match passes.
		header := signPayload(secret, now, payload) + ",v1=" + hex.EncodeToString(make([]byte, 32))
		if err := VerifyStripeSignature(secret, payload, header, tolerance, now); err != nil {
			t.Fatalf("VerifyStripeSignature() error = %v", err)
		}
	})

	t.Run("empty secret", func(t *testing.T) {
		header := signPayload(secret, now, payload)
		if err := VerifyStripeSignature("", payload, header, tolerance, now); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("error = %v, want %v", err, ErrBadSignature)
		}
	})
}
