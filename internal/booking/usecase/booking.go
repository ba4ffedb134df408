package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/booking/repo"
	"github.com/carenest-app/bookingservice/internal/events"
	"github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/metrics"
)

// BookingUseCase creates and reads booking requests. A fresh quote is
// computed and snapshotted at creation; the snapshot is what any later
// payment reconfirmation starts from.
type BookingUseCase struct {
	requests  repo.RequestRepository
	pricing   *PricingUseCase
	publisher events.Publisher
}

func NewBookingUseCase(requests repo.RequestRepository, pricingUC *PricingUseCase, publisher events.Publisher) *BookingUseCase {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &BookingUseCase{requests: requests, pricing: pricingUC, publisher: publisher}
}

// CreateRequest persists a new booking request with its quote snapshot
func (uc *BookingUseCase) CreateRequest(ctx context.Context, req *domain.Request) (*domain.Request, error) {
	if req.ParentID == "" {
		return nil, fmt.Errorf("parent id is required")
	}
	if req.Status == "" {
		req.Status = domain.StatusPending
	}

	quote := uc.pricing.Quote(ctx, req.PricingFactors(), nil)
	req.PricingSnapshot = &quote
	req.PaymentAmountCents = quote.TotalBookingCents
	req.HourlyRateCents = quote.TotalHourlyCents
	req.PaymentCurrency = quote.Currency
	req.CareType = quote.CareType

	if err := uc.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}
	metrics.BookingsCreated.Inc()

	event := events.NewEvent(events.TypeBookingCreated, req.ID.String(), map[string]interface{}{
		"parent_id":           req.ParentID,
		"provider_id":         req.ProviderID,
		"total_booking_cents": quote.TotalBookingCents,
		"config_version":      quote.ConfigVersion,
	})
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Warn(ctx, "Failed to publish booking event", zap.Error(err))
	}

	log.Info(ctx, "Booking request created",
		zap.String("booking_id", req.ID.String()),
		zap.Int64("total_booking_cents", quote.TotalBookingCents),
		zap.Int("config_version", quote.ConfigVersion))
	return req, nil
}

// GetRequest retrieves a booking request by ID
func (uc *BookingUseCase) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	return uc.requests.GetByID(ctx, id)
}

// UpdateStatus moves a booking request through its lifecycle
func (uc *BookingUseCase) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	switch status {
	case domain.StatusPending, domain.StatusAccepted, domain.StatusConfirmed,
		domain.StatusDeclined, domain.StatusCancelled:
	default:
		return fmt.Errorf("unknown booking status %q", status)
	}
	return uc.requests.UpdateStatus(ctx, id, status)
}
