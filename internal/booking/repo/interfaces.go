package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// RequestRepository persists booking requests and their payment state. The
// narrow update methods mirror the distinct write paths of the payment
// flow: a quote refresh never races an intent-status update into
// overwriting each other's columns.
type RequestRepository interface {
	// Create persists a new booking request
	Create(ctx context.Context, req *domain.Request) error

	// GetByID retrieves a booking request by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)

	// UpdateStatus updates only the request status
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// UpdateQuote replaces the stored pricing snapshot and the derived
	// amount columns
	UpdateQuote(ctx context.Context, id uuid.UUID, quote pricing.Quote) error

	// UpdatePaymentIntent records the provider intent and its status
	UpdatePaymentIntent(ctx context.Context, id uuid.UUID, intentID, status string, amountCents int64, currency string) error

	// UpdatePaymentStatus updates only the payment status
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error

	// SetPaymentMethod records the payment method to charge
	SetPaymentMethod(ctx context.Context, id uuid.UUID, paymentMethodID string) error
}
