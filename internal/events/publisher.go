package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the booking flow.
const (
	TypeBookingCreated   = "booking.created"
	TypeQuoteComputed    = "booking.quote_computed"
	TypePaymentPrepared  = "payment.intent_prepared"
	TypePaymentSucceeded = "payment.succeeded"
	TypePaymentFailed    = "payment.failed"
	TypeConfigReplaced   = "pricing.config_replaced"
)

// Event represents a domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Aggregate string                 `json:"aggregate"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// NewEvent creates a new event for an aggregate
func NewEvent(eventType, aggregate string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Aggregate: aggregate,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Publisher defines the interface for publishing events
type Publisher interface {
	// Publish publishes an event
	Publish(ctx context.Context, event *Event) error

	// Close closes the publisher
	Close() error
}

// NoopPublisher discards all events; used when Kafka is not configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) Publish(ctx context.Context, event *Event) error { return nil }

func (p *NoopPublisher) Close() error { return nil }
