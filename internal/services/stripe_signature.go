package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadSignature   = errors.New("webhook signature verification failed")
	ErrStaleSignature = errors.New("webhook timestamp outside tolerance")
)

// VerifyStripeSignature checks a Stripe-Signature header
// ("t=<unix>,v1=<hex hmac>,...") against the raw body: the v1 value must be
// the HMAC-SHA256 of "<t>.<body>" under the endpoint secret, and the
// timestamp must be within tolerance of now. Comparison is constant-time.
func VerifyStripeSignature(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	if secret == "" || header == "" {
		return ErrBadSignature
	}

	var ts int64 = -1
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = parsed
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts < 0 || len(candidates) == 0 {
		return ErrBadSignature
	}

	sent := time.Unix(ts, 0)
	if now.Sub(sent) > tolerance || sent.Sub(now) > tolerance {
		return ErrStaleSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrBadSignature
}
