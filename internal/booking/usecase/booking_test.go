package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/booking/repo"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func newPricingUC(store pricing.ConfigStore) *PricingUseCase {
	return NewPricingUseCase(store, nil, nil)
}

func TestCreateRequest_SnapshotsQuote(t *testing.T) {
	ctx := context.Background()
	requests := repo.NewMemoryRequestStore()
	configStore := pricing.NewMemoryConfigStore()
	uc := NewBookingUseCase(requests, newPricingUC(configStore), nil)

	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	req, err := uc.CreateRequest(ctx, &domain.Request{
		ParentID:   "parent-1",
		ProviderID: "provider-1",
		ChildAge:   intPtr(3),
		CareType:   "basic",
		Province:   "ON",
		StartAt:    timePtr(start),
		EndAt:      timePtr(end),
	})
	require.NoError(t, err)
	require.NotNil(t, req.PricingSnapshot)

	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, int64(7497), req.PaymentAmountCents)
	assert.Equal(t, int64(2499), req.HourlyRateCents)
	assert.Equal(t, "cad", req.PaymentCurrency)
	assert.Equal(t, int64(7497), req.PricingSnapshot.TotalBookingCents)
	assert.Equal(t, 1, req.PricingSnapshot.ConfigVersion)

	stored, err := uc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PricingSnapshot)
	assert.Equal(t, req.PricingSnapshot.TotalBookingCents, stored.PricingSnapshot.TotalBookingCents)
}

func TestCreateRequest_SnapshotSurvivesConfigChange(t *testing.T) {
	ctx := context.Background()
	requests := repo.NewMemoryRequestStore()
	configStore := pricing.NewMemoryConfigStore()
	uc := NewBookingUseCase(requests, newPricingUC(configStore), nil)

	req, err := uc.CreateRequest(ctx, &domain.Request{
		ParentID: "parent-1",
		CareType: "basic",
		Province: "ON",
	})
	require.NoError(t, err)
	before := req.PricingSnapshot.TotalBookingCents

	// Double every ON rate after the booking exists.
	next := pricing.DefaultConfig()
	next.Version = 2
	next.BaseRates["ON"]["basic"] = 4400
	_, err = configStore.Save(ctx, next)
	require.NoError(t, err)

	stored, err := uc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, before, stored.PricingSnapshot.TotalBookingCents,
		"stored snapshot must not track config edits")
	assert.Equal(t, 1, stored.PricingSnapshot.ConfigVersion)
}

func TestCreateRequest_RequiresParent(t *testing.T) {
	uc := NewBookingUseCase(repo.NewMemoryRequestStore(), newPricingUC(pricing.NewMemoryConfigStore()), nil)
	_, err := uc.CreateRequest(context.Background(), &domain.Request{CareType: "basic"})
	assert.Error(t, err)
}

func TestCreateRequest_UnknownCareTypeNormalized(t *testing.T) {
	uc := NewBookingUseCase(repo.NewMemoryRequestStore(), newPricingUC(pricing.NewMemoryConfigStore()), nil)
	req, err := uc.CreateRequest(context.Background(), &domain.Request{
		ParentID: "parent-1",
		CareType: "Deluxe ",
	})
	require.NoError(t, err)
	assert.Equal(t, "basic", req.CareType)
}

func TestUpdateStatus_RejectsUnknown(t *testing.T) {
	ctx := context.Background()
	requests := repo.NewMemoryRequestStore()
	uc := NewBookingUseCase(requests, newPricingUC(pricing.NewMemoryConfigStore()), nil)

	req, err := uc.CreateRequest(ctx, &domain.Request{ParentID: "parent-1", CareType: "basic"})
	require.NoError(t, err)

	assert.Error(t, uc.UpdateStatus(ctx, req.ID, "sideways"))
	require.NoError(t, uc.UpdateStatus(ctx, req.ID, domain.StatusAccepted))

	stored, err := uc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestPricingUseCase_ActiveConfigFallsBack(t *testing.T) {
	uc := NewPricingUseCase(failingConfigStore{}, nil, nil)
	cfg := uc.ActiveConfig(context.Background())
	assert.Equal(t, int64(2000), cfg.BaseRates["default"]["basic"],
		"store failure should degrade to the default config")
}

func TestPricingUseCase_QuoteWithOverrideConfig(t *testing.T) {
	uc := newPricingUC(pricing.NewMemoryConfigStore())
	override := pricing.DefaultConfig()
	override.Version = 9
	override.BaseRates["default"]["basic"] = 100

	q := uc.Quote(context.Background(), pricing.Factors{CareType: "basic"}, &override)
	assert.Equal(t, int64(100), q.BaseRateCents)
	assert.Equal(t, 9, q.ConfigVersion)
}

type failingConfigStore struct{}

func (failingConfigStore) Load(ctx context.Context) (pricing.Config, error) {
	return pricing.Config{}, context.DeadlineExceeded
}

func (failingConfigStore) Save(ctx context.Context, cfg pricing.Config) (pricing.Config, error) {
	return pricing.Config{}, context.DeadlineExceeded
}
