package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/carenest-app/bookingservice/internal/cache"
	"github.com/carenest-app/bookingservice/internal/events"
	"github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/metrics"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// PricingUseCase fronts the config store with the never-fail load contract
// and a read-through cache. Every pricing caller in the service goes
// through ActiveConfig, so a dead store or cache degrades the whole system
// to the default rate table instead of blocking bookings.
type PricingUseCase struct {
	store     pricing.ConfigStore
	cache     *cache.ConfigCache
	publisher events.Publisher
}

// NewPricingUseCase creates a pricing use case. cache may be nil.
func NewPricingUseCase(store pricing.ConfigStore, configCache *cache.ConfigCache, publisher events.Publisher) *PricingUseCase {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &PricingUseCase{store: store, cache: configCache, publisher: publisher}
}

// ActiveConfig returns the rate table to price against right now. Cache
// miss falls through to the store; store failure falls back to the default
// config. It never returns an error.
func (uc *PricingUseCase) ActiveConfig(ctx context.Context) pricing.Config {
	if cfg, err := uc.cache.Get(ctx); err == nil {
		return cfg
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn(ctx, "Config cache read failed", zap.Error(err))
	}

	cfg, err := uc.store.Load(ctx)
	if err != nil {
		log.Error(ctx, "Pricing config load failed, using default config", zap.Error(err))
		metrics.ConfigLoadFailures.Inc()
		return pricing.DefaultConfig()
	}

	if err := uc.cache.Set(ctx, cfg); err != nil {
		log.Warn(ctx, "Config cache write failed", zap.Error(err))
	}
	return cfg
}

// ReplaceConfig persists a new rate table wholesale, last writer wins
func (uc *PricingUseCase) ReplaceConfig(ctx context.Context, cfg pricing.Config) (pricing.Config, error) {
	saved, err := uc.store.Save(ctx, cfg)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("failed to replace pricing config: %w", err)
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		log.Warn(ctx, "Config cache invalidation failed", zap.Error(err))
	}
	metrics.ConfigUpdates.Inc()

	event := events.NewEvent(events.TypeConfigReplaced, "pricing_config", map[string]interface{}{
		"version": saved.Version,
	})
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Warn(ctx, "Failed to publish config event", zap.Error(err))
	}

	log.Info(ctx, "Pricing config replaced", zap.Int("version", saved.Version))
	return saved, nil
}

// Quote prices a set of factors against the active config. When override
// is non-nil the caller supplied an inline config for preview/simulation
// and the stored one is not consulted.
func (uc *PricingUseCase) Quote(ctx context.Context, factors pricing.Factors, override *pricing.Config) pricing.Quote {
	cfg := pricing.Config{}
	if override != nil {
		cfg = *override
	} else {
		cfg = uc.ActiveConfig(ctx)
	}

	quote := pricing.Calculate(factors, cfg)
	metrics.QuotesComputed.WithLabelValues(quote.CareType, regionLabel(quote)).Inc()
	return quote
}

func regionLabel(q pricing.Quote) string {
	if q.Factors.Province == nil {
		return "none"
	}
	return *q.Factors.Province
}
