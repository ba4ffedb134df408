package billing

import (
	"context"
	"fmt"
	"sync"
)

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// Intent statuses the booking flow cares about. Providers may report more;
// anything not listed here is passed through verbatim.
const (
	IntentStatusSucceeded      = "succeeded"
	IntentStatusRequiresAction = "requires_action"
	IntentStatusFailed         = "failed"
)

// CreateIntentParams describes a payment intent to create. When Confirm is
// set the intent is confirmed off-session with PaymentMethodID in the same
// call; otherwise the client completes it with the returned secret.
type CreateIntentParams struct {
	AmountCents     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Confirm         bool
	Metadata        map[string]string
}

// Provider is the payment-processor boundary. It consumes the booking
// total computed by the pricing engine; it never influences the amount.
//
// CreateIntent may return both a non-nil Intent and an error: a declined
// off-session confirmation still yields an intent whose status the caller
// must persist.
type Provider interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	Close() error
}

// MockProvider is an in-memory Provider for tests and development. Every
// intent it creates succeeds unless FailNext is set.
type MockProvider struct {
	mu       sync.Mutex
	seq      int
	intents  map[string]*Intent
	FailNext string // when non-empty, the next confirm resolves to this status
}

func NewMockProvider() *MockProvider {
	return &MockProvider{intents: make(map[string]*Intent)}
}

func (m *MockProvider) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	intent := &Intent{
		ID:           fmt.Sprintf("pi_mock_%d", m.seq),
		ClientSecret: fmt.Sprintf("pi_mock_%d_secret", m.seq),
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
	}
	switch {
	case params.Confirm && m.FailNext != "":
		intent.Status = m.FailNext
		m.FailNext = ""
	case params.Confirm:
		intent.Status = IntentStatusSucceeded
	default:
		intent.Status = "requires_payment_method"
	}
	m.intents[intent.ID] = intent
	return intent, nil
}

func (m *MockProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("mock provider: intent %s not found", id)
	}
	return intent, nil
}

func (m *MockProvider) Close() error { return nil }
