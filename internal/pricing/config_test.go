package pricing

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDefaultConfig_Shape(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Currency != "cad" || cfg.Version != 1 {
		t.Fatalf("unexpected currency/version: %s/%d", cfg.Currency, cfg.Version)
	}
	defaults, ok := cfg.BaseRates["default"]
	if !ok || len(defaults) == 0 {
		t.Fatalf("base_rates.default must exist and be non-empty")
	}
	if defaults["basic"] != 2000 || defaults["curriculum"] != 2300 {
		t.Fatalf("unexpected default rates: %v", defaults)
	}
	if len(cfg.AgeBrackets) != 4 || len(cfg.TimeOfDay) != 4 {
		t.Fatalf("expected 4 age brackets and 4 time bands")
	}
	if cfg.TaxRates["QC"] != 14.975 {
		t.Fatalf("QC tax: expected 14.975, got %v", cfg.TaxRates["QC"])
	}
	if cfg.TaxAppliesTo != TaxAppliesToPlatformFee {
		t.Fatalf("tax_applies_to: expected platform_fee, got %s", cfg.TaxAppliesTo)
	}
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	// The config is stored as a JSON document; the struct tags must carry
	// every field through a round trip unchanged.
	cfg := DefaultConfig()

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.BaseRates["ON"]["curriculum"] != 2500 {
		t.Fatalf("ON curriculum lost in round trip: %v", decoded.BaseRates["ON"])
	}
	if decoded.Fees.PlatformFeePercent == nil || *decoded.Fees.PlatformFeePercent != 25 {
		t.Fatalf("platform fee percent lost in round trip")
	}
	if decoded.TimeOfDay[3].Start != "21:00" {
		t.Fatalf("time band order lost in round trip: %v", decoded.TimeOfDay)
	}
}

func TestConfig_PartialDocumentStillPrices(t *testing.T) {
	// A config missing optional sections degrades per the fallback rules
	// instead of crashing the calculator.
	var cfg Config
	if err := json.Unmarshal([]byte(`{"base_rates":{"default":{"basic":1500}}}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	q := Calculate(Factors{Age: intPtr(3), CareType: "basic", Province: "ON", IsPremium: true}, cfg)

	if q.BaseRateCents != 1500 {
		t.Fatalf("expected 1500 base rate, got %d", q.BaseRateCents)
	}
	if q.HourlyRateCents != 1500 {
		t.Fatalf("no brackets or discount configured: expected 1500 hourly, got %d", q.HourlyRateCents)
	}
	if q.ProviderFeeCents+q.PlatformFeeCents != q.HourlyRateCents {
		t.Fatalf("split invariant broken on partial config")
	}
	if q.Currency != "cad" || q.ConfigVersion != 1 {
		t.Fatalf("missing currency/version should fall back, got %s/%d", q.Currency, q.ConfigVersion)
	}
}

func TestMemoryConfigStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfigStore()

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != DefaultConfig().Version {
		t.Fatalf("empty store should serve the default config")
	}

	next := DefaultConfig()
	next.Version = 2
	next.BaseRates["ON"]["basic"] = 2400
	if _, err := store.Save(ctx, next); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if loaded.Version != 2 || loaded.BaseRates["ON"]["basic"] != 2400 {
		t.Fatalf("save not reflected: %+v", loaded)
	}
}

func TestLoadOrDefault_NilStore(t *testing.T) {
	cfg := LoadOrDefault(context.Background(), nil)
	if cfg.BaseRates["default"]["basic"] != 2000 {
		t.Fatalf("nil store should yield the default config")
	}
}
