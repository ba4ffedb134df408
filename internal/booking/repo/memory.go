package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// MemoryRequestStore is an in-memory RequestRepository for tests and
// database-less development.
type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.Request
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[uuid.UUID]*domain.Request)}
}

func (s *MemoryRequestStore) Create(ctx context.Context, req *domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func (s *MemoryRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *MemoryRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.update(id, func(req *domain.Request) {
		req.Status = status
	})
}

func (s *MemoryRequestStore) UpdateQuote(ctx context.Context, id uuid.UUID, quote pricing.Quote) error {
	return s.update(id, func(req *domain.Request) {
		q := quote
		req.PricingSnapshot = &q
		req.PaymentAmountCents = quote.TotalBookingCents
		req.HourlyRateCents = quote.TotalHourlyCents
	})
}

func (s *MemoryRequestStore) UpdatePaymentIntent(ctx context.Context, id uuid.UUID, intentID, status string, amountCents int64, currency string) error {
	return s.update(id, func(req *domain.Request) {
		req.PaymentIntentID = intentID
		req.PaymentStatus = status
		req.PaymentAmountCents = amountCents
		req.PaymentCurrency = currency
	})
}

func (s *MemoryRequestStore) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.update(id, func(req *domain.Request) {
		req.PaymentStatus = status
	})
}

func (s *MemoryRequestStore) SetPaymentMethod(ctx context.Context, id uuid.UUID, paymentMethodID string) error {
	return s.update(id, func(req *domain.Request) {
		req.PaymentMethodID = paymentMethodID
	})
}

func (s *MemoryRequestStore) update(id uuid.UUID, apply func(*domain.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	apply(req)
	req.UpdatedAt = time.Now()
	return nil
}
