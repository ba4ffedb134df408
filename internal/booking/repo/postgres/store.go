package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// Store is the PostgreSQL persistence layer. It implements both
// repo.RequestRepository and pricing.ConfigStore: booking requests and the
// pricing-config singleton live in the same database.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a store from a connection string
func NewStore(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: pool}, nil
}

// NewStoreWithPool wraps an existing pool
func NewStoreWithPool(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// Load returns the stored pricing config. On first use the default config
// is inserted and returned, so a fresh database prices identically to no
// database at all.
func (s *Store) Load(ctx context.Context) (pricing.Config, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT config FROM pricing_config WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		cfg := pricing.DefaultConfig()
		if _, err := s.Save(ctx, cfg); err != nil {
			return pricing.Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return pricing.Config{}, fmt.Errorf("failed to load pricing config: %w", err)
	}

	var cfg pricing.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return pricing.Config{}, fmt.Errorf("failed to decode stored pricing config: %w", err)
	}
	return cfg, nil
}

// Save replaces the singleton pricing config, last writer wins
func (s *Store) Save(ctx context.Context, cfg pricing.Config) (pricing.Config, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("failed to encode pricing config: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO pricing_config (id, config, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`,
		raw)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("failed to save pricing config: %w", err)
	}
	return cfg, nil
}

// Create persists a new booking request with its pricing snapshot
func (s *Store) Create(ctx context.Context, req *domain.Request) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	snapshot, err := marshalSnapshot(req.PricingSnapshot)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO childcare_requests (
			id, parent_id, provider_id, child_age, care_type, is_premium, province,
			start_at, end_at, status,
			payment_status, payment_amount_cents, payment_currency,
			hourly_rate_cents, pricing_snapshot
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		req.ID, req.ParentID, req.ProviderID, req.ChildAge, req.CareType, req.IsPremium,
		nullableString(req.Province), req.StartAt, req.EndAt, req.Status,
		nullableString(req.PaymentStatus), req.PaymentAmountCents,
		nullableString(req.PaymentCurrency), req.HourlyRateCents, snapshot,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	return nil
}

// GetByID retrieves a booking request by ID
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var (
		req      domain.Request
		province *string
		intentID *string
		payStat  *string
		payCurr  *string
		payMeth  *string
		snapshot []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, parent_id, provider_id, child_age, care_type, is_premium, province,
		       start_at, end_at, status,
		       payment_intent_id, payment_status, payment_amount_cents, payment_currency,
		       payment_method_id, hourly_rate_cents, pricing_snapshot,
		       created_at, updated_at
		FROM childcare_requests WHERE id = $1`, id).Scan(
		&req.ID, &req.ParentID, &req.ProviderID, &req.ChildAge, &req.CareType,
		&req.IsPremium, &province, &req.StartAt, &req.EndAt, &req.Status,
		&intentID, &payStat, &req.PaymentAmountCents, &payCurr,
		&payMeth, &req.HourlyRateCents, &snapshot,
		&req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}

	req.Province = deref(province)
	req.PaymentIntentID = deref(intentID)
	req.PaymentStatus = deref(payStat)
	req.PaymentCurrency = deref(payCurr)
	req.PaymentMethodID = deref(payMeth)
	if len(snapshot) > 0 {
		var quote pricing.Quote
		if err := json.Unmarshal(snapshot, &quote); err != nil {
			return nil, fmt.Errorf("failed to decode pricing snapshot: %w", err)
		}
		req.PricingSnapshot = &quote
	}
	return &req, nil
}

// UpdateStatus updates only the request status
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.exec(ctx, id,
		`UPDATE childcare_requests SET status=$1, updated_at=NOW() WHERE id=$2`,
		status, id)
}

// UpdateQuote replaces the stored snapshot and derived amount columns
func (s *Store) UpdateQuote(ctx context.Context, id uuid.UUID, quote pricing.Quote) error {
	snapshot, err := marshalSnapshot(&quote)
	if err != nil {
		return err
	}
	return s.exec(ctx, id, `
		UPDATE childcare_requests
		SET payment_amount_cents=$1, hourly_rate_cents=$2, pricing_snapshot=$3, updated_at=NOW()
		WHERE id=$4`,
		quote.TotalBookingCents, quote.TotalHourlyCents, snapshot, id)
}

// UpdatePaymentIntent records the provider intent and its status
func (s *Store) UpdatePaymentIntent(ctx context.Context, id uuid.UUID, intentID, status string, amountCents int64, currency string) error {
	return s.exec(ctx, id, `
		UPDATE childcare_requests
		SET payment_intent_id=$1, payment_status=$2, payment_amount_cents=$3,
		    payment_currency=$4, updated_at=NOW()
		WHERE id=$5`,
		intentID, status, amountCents, currency, id)
}

// UpdatePaymentStatus updates only the payment status
func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.exec(ctx, id,
		`UPDATE childcare_requests SET payment_status=$1, updated_at=NOW() WHERE id=$2`,
		status, id)
}

// SetPaymentMethod records the payment method to charge
func (s *Store) SetPaymentMethod(ctx context.Context, id uuid.UUID, paymentMethodID string) error {
	return s.exec(ctx, id,
		`UPDATE childcare_requests SET payment_method_id=$1, updated_at=NOW() WHERE id=$2`,
		paymentMethodID, id)
}

func (s *Store) exec(ctx context.Context, id uuid.UUID, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func marshalSnapshot(quote *pricing.Quote) ([]byte, error) {
	if quote == nil {
		return nil, nil
	}
	data, err := json.Marshal(quote)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pricing snapshot: %w", err)
	}
	return data, nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
