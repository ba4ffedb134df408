package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/carenest-app/bookingservice/internal/pricing"
)

// Request statuses. Payment is only available once a caregiver has
// accepted; confirmation follows a successful charge.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
)

// Payment statuses tracked on a request. Provider statuses outside this
// set are stored verbatim.
const (
	PaymentStatusPaid           = "paid"
	PaymentStatusFailed         = "failed"
	PaymentStatusRequiresAction = "requires_action"
)

// Request is a childcare booking request. The pricing quote computed at
// creation is stored by value in PricingSnapshot so later rate-table edits
// never change what a historical booking cost.
type Request struct {
	ID         uuid.UUID  `json:"id"`
	ParentID   string     `json:"parent_id"`
	ProviderID string     `json:"provider_id"`
	ChildAge   *int       `json:"child_age,omitempty"`
	CareType   string     `json:"care_type"`
	IsPremium  bool       `json:"is_premium"`
	Province   string     `json:"province,omitempty"`
	StartAt    *time.Time `json:"start_at,omitempty"`
	EndAt      *time.Time `json:"end_at,omitempty"`
	Status     string     `json:"status"`

	PaymentIntentID    string `json:"payment_intent_id,omitempty"`
	PaymentStatus      string `json:"payment_status,omitempty"`
	PaymentAmountCents int64  `json:"payment_amount_cents,omitempty"`
	PaymentCurrency    string `json:"payment_currency,omitempty"`
	PaymentMethodID    string `json:"payment_method_id,omitempty"`

	HourlyRateCents int64          `json:"hourly_rate_cents,omitempty"`
	PricingSnapshot *pricing.Quote `json:"pricing_snapshot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricingFactors maps the request's stored attributes back into calculator
// input, used both at creation and whenever a payment amount must be
// reconfirmed from the snapshot's inputs.
func (r *Request) PricingFactors() pricing.Factors {
	return pricing.Factors{
		Age:       r.ChildAge,
		CareType:  r.CareType,
		IsPremium: r.IsPremium,
		Province:  r.Province,
		StartAt:   r.StartAt,
		EndAt:     r.EndAt,
	}
}

// Payable reports whether the request has reached a state where the parent
// may be charged.
func (r *Request) Payable() bool {
	return r.Status == StatusAccepted || r.Status == StatusConfirmed
}
