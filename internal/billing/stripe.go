package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeProvider implements Provider on the Stripe PaymentIntents API.
type StripeProvider struct {
	logger *zap.Logger
}

// NewStripeProvider creates a Stripe-backed payment provider
func NewStripeProvider(secretKey string, logger *zap.Logger) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	stripe.Key = secretKey
	return &StripeProvider{logger: logger}, nil
}

// CreateIntent creates a payment intent for a booking total. For off-session
// confirmation a card decline surfaces as an error that still carries the
// intent; that intent is mapped and returned alongside the error so the
// caller can persist its status.
func (s *StripeProvider) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	piParams := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(params.Currency),
	}
	if params.CustomerID != "" {
		piParams.Customer = stripe.String(params.CustomerID)
	}
	if params.Confirm {
		piParams.PaymentMethod = stripe.String(params.PaymentMethodID)
		piParams.Confirm = stripe.Bool(true)
		piParams.OffSession = stripe.Bool(true)
	} else {
		piParams.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(piParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.PaymentIntent != nil {
			s.logger.Warn("Payment intent confirmation declined",
				zap.String("intent_id", stripeErr.PaymentIntent.ID),
				zap.String("status", string(stripeErr.PaymentIntent.Status)))
			return mapIntent(stripeErr.PaymentIntent), err
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	s.logger.Info("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount_cents", pi.Amount),
		zap.String("status", string(pi.Status)))
	return mapIntent(pi), nil
}

// GetIntent retrieves a payment intent by ID
func (s *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := paymentintent.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent %s: %w", id, err)
	}
	return mapIntent(pi), nil
}

func (s *StripeProvider) Close() error { return nil }

func mapIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}
