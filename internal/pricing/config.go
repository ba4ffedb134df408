package pricing

import "sort"

// AgeBracket maps an inclusive child-age range to a rate multiplier.
type AgeBracket struct {
	ID         string  `json:"id"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Multiplier float64 `json:"multiplier"`
}

// TimeBand maps a wall-clock window to a rate multiplier. Start and End are
// "HH:MM" strings; a band with Start > End wraps across midnight.
type TimeBand struct {
	ID         string  `json:"id"`
	Label      string  `json:"label,omitempty"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Multiplier float64 `json:"multiplier"`
}

// Fees holds the revenue split and processor fee parameters. The percent
// fields are pointers so a config that omits one can be told apart from a
// config that sets it to zero: the fee split prefers PlatformFeePercent when
// present, then ProviderSharePercent, then falls back to a 75/25 split.
type Fees struct {
	ProviderSharePercent *float64 `json:"provider_share_percent,omitempty"`
	PlatformFeePercent   *float64 `json:"platform_fee_percent,omitempty"`
	StripePercent        *float64 `json:"stripe_percent,omitempty"`
	StripeFixedCents     *int64   `json:"stripe_fixed_cents,omitempty"`
}

// Tax base selectors for Config.TaxAppliesTo.
const (
	TaxAppliesToPlatformFee = "platform_fee"
	TaxAppliesToTotal       = "total"
)

// Config is the versioned rate table the calculator runs against. It is
// stored as a single JSON document and replaced wholesale on update; a copy
// of the version is stamped onto every Quote for audit purposes.
//
// BaseRates maps an upper-case region code (or the literal key "default") to
// a care-type -> hourly-cents map. The "default" entry must always exist; it
// is the terminal fallback for every rate lookup.
type Config struct {
	Version                int                         `json:"version"`
	Currency               string                      `json:"currency"`
	LocationFallback       string                      `json:"location_fallback"`
	BaseRates              map[string]map[string]int64 `json:"base_rates"`
	AgeBrackets            []AgeBracket                `json:"age_brackets"`
	TimeOfDay              []TimeBand                  `json:"time_of_day"`
	PremiumDiscountPercent *float64                    `json:"premium_discount_percent,omitempty"`
	Fees                   Fees                        `json:"fees"`
	TaxRates               map[string]float64          `json:"tax_rates"`
	TaxAppliesTo           string                      `json:"tax_applies_to"`
}

// careTypeKeys returns the care-type keys of the default rate row in a
// stable order. Lookups that need "the first care type" use this so the
// result does not depend on map iteration order.
func (c Config) careTypeKeys() []string {
	keys := make([]string, 0, len(c.BaseRates["default"]))
	for k := range c.BaseRates["default"] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func floatPtr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

// DefaultConfig returns the built-in rate table. It is served whenever no
// config has been stored or the store is unreachable, and it is the baseline
// the admin API mutates.
func DefaultConfig() Config {
	return Config{
		Version:          1,
		Currency:         "cad",
		LocationFallback: "default",
		BaseRates: map[string]map[string]int64{
			"default": {"basic": 2000, "curriculum": 2300},
			"AB":      {"basic": 2000, "curriculum": 2300},
			"BC":      {"basic": 2100, "curriculum": 2400},
			"MB":      {"basic": 2000, "curriculum": 2300},
			"NB":      {"basic": 2000, "curriculum": 2300},
			"NL":      {"basic": 2000, "curriculum": 2300},
			"NS":      {"basic": 2100, "curriculum": 2400},
			"NT":      {"basic": 2100, "curriculum": 2400},
			"NU":      {"basic": 2100, "curriculum": 2400},
			"ON":      {"basic": 2200, "curriculum": 2500},
			"PE":      {"basic": 2000, "curriculum": 2300},
			"QC":      {"basic": 2100, "curriculum": 2400},
			"SK":      {"basic": 2000, "curriculum": 2300},
			"YT":      {"basic": 2100, "curriculum": 2400},
		},
		AgeBrackets: []AgeBracket{
			{ID: "0-1", Min: 0, Max: 1, Multiplier: 1.2},
			{ID: "2-4", Min: 2, Max: 4, Multiplier: 1.1},
			{ID: "5-12", Min: 5, Max: 12, Multiplier: 1.0},
			{ID: "13-17", Min: 13, Max: 17, Multiplier: 1.0},
		},
		TimeOfDay: []TimeBand{
			{ID: "early", Label: "Early morning", Start: "06:00", End: "08:59", Multiplier: 1.1},
			{ID: "day", Label: "Daytime", Start: "09:00", End: "16:59", Multiplier: 1.0},
			{ID: "evening", Label: "Evening", Start: "17:00", End: "20:59", Multiplier: 1.15},
			{ID: "late", Label: "Late night", Start: "21:00", End: "23:59", Multiplier: 1.25},
		},
		PremiumDiscountPercent: floatPtr(10),
		Fees: Fees{
			ProviderSharePercent: floatPtr(75),
			PlatformFeePercent:   floatPtr(25),
			StripePercent:        floatPtr(2.9),
			StripeFixedCents:     int64Ptr(30),
		},
		TaxRates: map[string]float64{
			"AB": 5,
			"BC": 12,
			"MB": 12,
			"NB": 15,
			"NL": 15,
			"NS": 15,
			"NT": 5,
			"NU": 5,
			"ON": 13,
			"PE": 15,
			"QC": 14.975,
			"SK": 11,
			"YT": 5,
		},
		TaxAppliesTo: TaxAppliesToPlatformFee,
	}
}
