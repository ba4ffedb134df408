package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carenest-app/bookingservice/internal/billing"
	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/booking/repo"
	"github.com/carenest-app/bookingservice/internal/events"
	"github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/metrics"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// PaymentResult is what the client needs to finish or observe a payment.
type PaymentResult struct {
	Paid         bool   `json:"paid"`
	Status       string `json:"status,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	AmountCents  int64  `json:"amount_cents,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// PaymentUseCase drives the two payment flows against a booking request:
// client-completed intents and off-session charges. Both recompute the
// amount from the request's stored pricing factors immediately before
// money moves, then persist the refreshed snapshot.
type PaymentUseCase struct {
	requests  repo.RequestRepository
	pricing   *PricingUseCase
	provider  billing.Provider
	publisher events.Publisher
}

func NewPaymentUseCase(requests repo.RequestRepository, pricingUC *PricingUseCase, provider billing.Provider, publisher events.Publisher) *PaymentUseCase {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &PaymentUseCase{requests: requests, pricing: pricingUC, provider: provider, publisher: publisher}
}

// PrepareIntent creates or reconciles the payment intent for a request.
// The first call recomputes the quote, persists it, and opens an intent
// for the booking total; later calls retrieve the existing intent and
// sync its status back onto the request.
func (uc *PaymentUseCase) PrepareIntent(ctx context.Context, requestID uuid.UUID, callerID string) (*PaymentResult, error) {
	req, err := uc.loadPayable(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if req.PaymentStatus == domain.PaymentStatusPaid {
		return &PaymentResult{Paid: true, Status: domain.PaymentStatusPaid}, nil
	}

	if req.PaymentIntentID == "" {
		if req.PaymentMethodID == "" {
			return nil, domain.ErrNoPaymentMethod
		}
		quote := uc.refreshQuote(ctx, req)

		intent, err := uc.provider.CreateIntent(ctx, billing.CreateIntentParams{
			AmountCents: quote.TotalBookingCents,
			Currency:    quote.Currency,
			Metadata:    intentMetadata(req),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create payment intent: %w", err)
		}
		if err := uc.requests.UpdatePaymentIntent(ctx, req.ID, intent.ID, intent.Status, intent.AmountCents, intent.Currency); err != nil {
			return nil, err
		}
		metrics.PaymentIntents.WithLabelValues(intent.Status).Inc()
		metrics.PaymentAmountCents.Observe(float64(intent.AmountCents))
		uc.publish(ctx, events.TypePaymentPrepared, req, intent)

		return &PaymentResult{
			Paid:         intent.Status == billing.IntentStatusSucceeded,
			Status:       intent.Status,
			ClientSecret: intent.ClientSecret,
			AmountCents:  intent.AmountCents,
			Currency:     intent.Currency,
		}, nil
	}

	intent, err := uc.provider.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	status := intent.Status
	if status == billing.IntentStatusSucceeded {
		status = domain.PaymentStatusPaid
	}
	if err := uc.requests.UpdatePaymentIntent(ctx, req.ID, intent.ID, status, intent.AmountCents, intent.Currency); err != nil {
		return nil, err
	}
	metrics.PaymentIntents.WithLabelValues(status).Inc()

	return &PaymentResult{
		Paid:         intent.Status == billing.IntentStatusSucceeded,
		Status:       status,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, nil
}

// Charge confirms payment off-session with the payment method on file (or
// the one supplied). On success the request becomes paid and confirmed; a
// decline that still produced an intent records the intent's status.
func (uc *PaymentUseCase) Charge(ctx context.Context, requestID uuid.UUID, callerID, paymentMethodID string) (*PaymentResult, error) {
	req, err := uc.loadPayable(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if req.PaymentStatus == domain.PaymentStatusPaid {
		return &PaymentResult{Paid: true, Status: domain.PaymentStatusPaid}, nil
	}

	if paymentMethodID == "" {
		paymentMethodID = req.PaymentMethodID
	}
	if paymentMethodID == "" {
		return nil, domain.ErrNoPaymentMethod
	}
	if err := uc.requests.SetPaymentMethod(ctx, req.ID, paymentMethodID); err != nil {
		return nil, err
	}

	quote := uc.refreshQuote(ctx, req)

	intent, err := uc.provider.CreateIntent(ctx, billing.CreateIntentParams{
		AmountCents:     quote.TotalBookingCents,
		Currency:        quote.Currency,
		PaymentMethodID: paymentMethodID,
		Confirm:         true,
		Metadata:        intentMetadata(req),
	})
	if err != nil {
		if intent == nil {
			// No intent came back at all; the charge never started.
			if uerr := uc.requests.UpdatePaymentStatus(ctx, req.ID, domain.PaymentStatusFailed); uerr != nil {
				log.Error(ctx, "Failed to record charge failure", zap.Error(uerr))
			}
			metrics.PaymentIntents.WithLabelValues(domain.PaymentStatusFailed).Inc()
			uc.publish(ctx, events.TypePaymentFailed, req, nil)
			return &PaymentResult{Status: domain.PaymentStatusFailed}, nil
		}
		// Declined confirmation: persist whatever state the intent is in.
		status := intent.Status
		if status == "" {
			status = domain.PaymentStatusFailed
		}
		if uerr := uc.requests.UpdatePaymentIntent(ctx, req.ID, intent.ID, status, intent.AmountCents, intent.Currency); uerr != nil {
			return nil, uerr
		}
		metrics.PaymentIntents.WithLabelValues(status).Inc()
		uc.publish(ctx, events.TypePaymentFailed, req, intent)
		return &PaymentResult{Status: status, AmountCents: intent.AmountCents, Currency: intent.Currency}, nil
	}

	if intent.Status == billing.IntentStatusSucceeded {
		if err := uc.requests.UpdatePaymentIntent(ctx, req.ID, intent.ID, domain.PaymentStatusPaid, intent.AmountCents, intent.Currency); err != nil {
			return nil, err
		}
		if err := uc.requests.UpdateStatus(ctx, req.ID, domain.StatusConfirmed); err != nil {
			return nil, err
		}
		metrics.PaymentIntents.WithLabelValues(domain.PaymentStatusPaid).Inc()
		metrics.PaymentAmountCents.Observe(float64(intent.AmountCents))
		uc.publish(ctx, events.TypePaymentSucceeded, req, intent)
		return &PaymentResult{Paid: true, Status: domain.PaymentStatusPaid, AmountCents: intent.AmountCents, Currency: intent.Currency}, nil
	}

	status := intent.Status
	if err := uc.requests.UpdatePaymentIntent(ctx, req.ID, intent.ID, status, intent.AmountCents, intent.Currency); err != nil {
		return nil, err
	}
	metrics.PaymentIntents.WithLabelValues(status).Inc()
	return &PaymentResult{Status: status, AmountCents: intent.AmountCents, Currency: intent.Currency}, nil
}

// loadPayable fetches the request and applies the shared guards: ownership
// and lifecycle state.
func (uc *PaymentUseCase) loadPayable(ctx context.Context, requestID uuid.UUID, callerID string) (*domain.Request, error) {
	req, err := uc.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if callerID != "" && req.ParentID != callerID {
		return nil, domain.ErrNotAuthorized
	}
	if !req.Payable() {
		return nil, domain.ErrNotPayable
	}
	return req, nil
}

// refreshQuote reprices the request from its stored factors against the
// active config and persists the new snapshot. Persist failures are logged
// but do not block the charge; the provider amount is what matters.
func (uc *PaymentUseCase) refreshQuote(ctx context.Context, req *domain.Request) pricing.Quote {
	quote := uc.pricing.Quote(ctx, req.PricingFactors(), nil)
	if err := uc.requests.UpdateQuote(ctx, req.ID, quote); err != nil {
		log.Error(ctx, "Failed to persist refreshed quote",
			zap.String("booking_id", req.ID.String()), zap.Error(err))
	}
	return quote
}

func (uc *PaymentUseCase) publish(ctx context.Context, eventType string, req *domain.Request, intent *billing.Intent) {
	data := map[string]interface{}{
		"parent_id":   req.ParentID,
		"provider_id": req.ProviderID,
	}
	if intent != nil {
		data["intent_id"] = intent.ID
		data["amount_cents"] = intent.AmountCents
		data["currency"] = intent.Currency
	}
	if err := uc.publisher.Publish(ctx, events.NewEvent(eventType, req.ID.String(), data)); err != nil {
		log.Warn(ctx, "Failed to publish payment event", zap.Error(err))
	}
}

func intentMetadata(req *domain.Request) map[string]string {
	return map[string]string{
		"request_id":  req.ID.String(),
		"parent_id":   req.ParentID,
		"provider_id": req.ProviderID,
	}
}
