package dto

// StripeEvent is the subset of a Stripe webhook event the billing adapter
// consumes. Entitlement routing happens on the payment intent metadata:
// upgradeType=role carries userId/planType/durationDays, type=course_purchase
// carries userId/courseId/durationDays.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object StripePaymentIntent `json:"object"`
	} `json:"data"`
}

type StripePaymentIntent struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"` // smallest currency unit
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}
