package pricing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// terminalFallbackCents is returned when every rate lookup fails, including
// the default row. A booking must always price to something.
const terminalFallbackCents = 2000

// minHours is the floor applied to every resolved session duration.
const minHours = 0.25

// Factors carries the booking attributes a quote is computed from. Pointer
// fields are optional; a nil value degrades to a neutral default instead of
// failing the calculation.
type Factors struct {
	Age       *int       `json:"age,omitempty"`
	CareType  string     `json:"care_type"`
	IsPremium bool       `json:"is_premium"`
	Province  string     `json:"province,omitempty"`
	StartAt   *time.Time `json:"start_at,omitempty"`
	EndAt     *time.Time `json:"end_at,omitempty"`
	Hours     *float64   `json:"hours,omitempty"`
}

// FactorSnapshot echoes the normalized inputs back on the quote so a stored
// quote can be re-priced or audited without the originating request.
type FactorSnapshot struct {
	Age       *int    `json:"age"`
	IsPremium bool    `json:"is_premium"`
	Province  *string `json:"province"`
	CareType  string  `json:"care_type"`
}

// Quote is the full price breakdown for one booking. Every intermediate
// value is retained, not just the final total, and all monetary fields are
// integer cents. A Quote is stored by value alongside its booking request,
// so later config edits never alter a historical price.
type Quote struct {
	Currency               string         `json:"currency"`
	BaseRateCents          int64          `json:"base_rate_cents"`
	CareType               string         `json:"care_type"`
	AgeBracket             string         `json:"age_bracket,omitempty"`
	AgeMultiplier          float64        `json:"age_multiplier"`
	TimeBand               string         `json:"time_band,omitempty"`
	TimeMultiplier         float64        `json:"time_multiplier"`
	PremiumDiscountPercent float64        `json:"premium_discount_percent"`
	PremiumDiscountCents   int64          `json:"premium_discount_cents"`
	HourlyRateCents        int64          `json:"hourly_rate_cents"`
	ProviderFeeCents       int64          `json:"provider_fee_cents"`
	PlatformFeeCents       int64          `json:"platform_fee_cents"`
	TaxRatePercent         float64        `json:"tax_rate_percent"`
	TaxCents               int64          `json:"tax_cents"`
	TotalHourlyCents       int64          `json:"total_hourly_cents"`
	Hours                  float64        `json:"hours"`
	TotalBookingCents      int64          `json:"total_booking_cents"`
	StripeFeeCents         int64          `json:"stripe_fee_cents"`
	StripeFeePerHourCents  int64          `json:"stripe_fee_per_hour_cents"`
	Factors                FactorSnapshot `json:"factors"`
	ConfigVersion          int            `json:"config_version"`
}

// Calculate produces the price breakdown for one booking. It is pure and
// total: malformed or missing factors degrade to neutral defaults, and any
// structurally valid config is accepted, so it never returns an error.
//
// The steps run in a fixed order; each feeds the next and reordering them
// changes the result. Rounding happens once per stage, after the multipliers
// have composed.
func Calculate(f Factors, cfg Config) Quote {
	careType := NormalizeCareType(f.CareType, cfg)
	province := normalizeRegion(f.Province)

	baseRate := resolveBaseRateCents(province, careType, cfg)
	ageMult, ageBracket := resolveAgeMultiplier(f.Age, cfg)
	timeMult, timeBand := resolveTimeMultiplier(f.StartAt, cfg)
	discountPercent := clampPercent(cfg.PremiumDiscountPercent, 0)

	rateAfterAge := float64(baseRate) * ageMult
	rateAfterTime := rateAfterAge * timeMult
	var discount float64
	if f.IsPremium {
		discount = rateAfterTime * discountPercent / 100
	}
	hourlyRate := int64(math.Round(rateAfterTime - discount))
	if hourlyRate < 0 {
		hourlyRate = 0
	}

	// The remainder side of the split absorbs the rounding, so provider and
	// platform shares always sum exactly to the hourly rate.
	var providerFee, platformFee int64
	if platformPercent, ok := validPercent(cfg.Fees.PlatformFeePercent); ok {
		platformFee = int64(math.Round(float64(hourlyRate) * platformPercent / 100))
		providerFee = hourlyRate - platformFee
	} else if providerPercent, ok := validPercent(cfg.Fees.ProviderSharePercent); ok {
		providerFee = int64(math.Round(float64(hourlyRate) * providerPercent / 100))
		platformFee = hourlyRate - providerFee
	} else {
		providerFee = int64(math.Round(float64(hourlyRate) * 0.75))
		platformFee = hourlyRate - providerFee
	}

	taxRate := cfg.TaxRates[province]
	if math.IsNaN(taxRate) || math.IsInf(taxRate, 0) {
		taxRate = 0
	}
	taxBase := platformFee
	if cfg.TaxAppliesTo == TaxAppliesToTotal {
		taxBase = hourlyRate
	}
	taxCents := int64(math.Round(float64(taxBase) * taxRate / 100))
	totalHourly := hourlyRate + taxCents

	hours := resolveHours(f.StartAt, f.EndAt, f.Hours)
	totalBooking := int64(math.Round(float64(totalHourly) * hours))

	// Processor fee estimate is informational only. It is never subtracted
	// from the booking total; the split above already absorbs it.
	stripePercent := clampPercent(cfg.Fees.StripePercent, 2.9)
	stripeFixed := int64(30)
	if cfg.Fees.StripeFixedCents != nil {
		stripeFixed = *cfg.Fees.StripeFixedCents
	}
	stripeFee := int64(math.Round(float64(totalBooking)*stripePercent/100)) + stripeFixed
	stripeFeePerHour := int64(math.Round(float64(stripeFee) / math.Max(hours, 1)))

	currency := cfg.Currency
	if currency == "" {
		currency = "cad"
	}
	version := cfg.Version
	if version == 0 {
		version = 1
	}

	var snapshotProvince *string
	if province != "" {
		snapshotProvince = &province
	}

	return Quote{
		Currency:               currency,
		BaseRateCents:          baseRate,
		CareType:               careType,
		AgeBracket:             ageBracket,
		AgeMultiplier:          ageMult,
		TimeBand:               timeBand,
		TimeMultiplier:         timeMult,
		PremiumDiscountPercent: discountPercent,
		PremiumDiscountCents:   int64(math.Round(discount)),
		HourlyRateCents:        hourlyRate,
		ProviderFeeCents:       providerFee,
		PlatformFeeCents:       platformFee,
		TaxRatePercent:         taxRate,
		TaxCents:               taxCents,
		TotalHourlyCents:       totalHourly,
		Hours:                  hours,
		TotalBookingCents:      totalBooking,
		StripeFeeCents:         stripeFee,
		StripeFeePerHourCents:  stripeFeePerHour,
		Factors: FactorSnapshot{
			Age:       f.Age,
			IsPremium: f.IsPremium,
			Province:  snapshotProvince,
			CareType:  careType,
		},
		ConfigVersion: version,
	}
}

// ResolveBaseRateCents looks up the hourly base rate for a region and care
// type. The fallback chain runs: explicit region, location_fallback region,
// the "default" row; then within the resolved row the normalized care type,
// the same care type in the default row, default "basic", and finally a
// hard-coded terminal rate. Absent regions and care types never error.
func ResolveBaseRateCents(province, careType string, cfg Config) int64 {
	return resolveBaseRateCents(normalizeRegion(province), NormalizeCareType(careType, cfg), cfg)
}

func resolveBaseRateCents(province, careKey string, cfg Config) int64 {
	fallbackKey := normalizeRegion(cfg.LocationFallback)
	if fallbackKey == "" {
		fallbackKey = "DEFAULT"
	}
	locationKey := province
	if locationKey == "" {
		locationKey = fallbackKey
	}

	rates := cfg.BaseRates
	row := rates[locationKey]
	if row == nil {
		row = rates[fallbackKey]
	}
	if row == nil {
		row = rates["default"]
	}

	if cents, ok := row[careKey]; ok {
		return cents
	}
	defaultRow := rates["default"]
	if cents, ok := defaultRow[careKey]; ok {
		return cents
	}
	if cents, ok := defaultRow["basic"]; ok {
		return cents
	}
	return terminalFallbackCents
}

// NormalizeCareType lower-cases and trims a care-type value and checks it
// against the default rate row. Unknown care types substitute the first
// default key rather than erroring, so a stale client can still book.
func NormalizeCareType(value string, cfg Config) string {
	careType := strings.ToLower(strings.TrimSpace(value))
	keys := cfg.careTypeKeys()
	for _, k := range keys {
		if k == careType {
			return careType
		}
	}
	if len(keys) > 0 {
		return keys[0]
	}
	return "basic"
}

// resolveAgeMultiplier finds the first bracket whose inclusive range covers
// the age. An unknown age, or an age no bracket covers, is neutral.
func resolveAgeMultiplier(age *int, cfg Config) (float64, string) {
	if age == nil {
		return 1, ""
	}
	for _, b := range cfg.AgeBrackets {
		if *age >= b.Min && *age <= b.Max {
			return safeMultiplier(b.Multiplier), b.ID
		}
	}
	return 1, ""
}

// resolveTimeMultiplier matches the start time's wall-clock minutes against
// the configured bands in order; first match wins. A band whose start is
// later than its end wraps across midnight. No start time, or no matching
// band, is neutral.
func resolveTimeMultiplier(startAt *time.Time, cfg Config) (float64, string) {
	if startAt == nil {
		return 1, ""
	}
	minutes := startAt.Hour()*60 + startAt.Minute()
	for _, band := range cfg.TimeOfDay {
		start, okStart := parseTimeToMinutes(band.Start)
		end, okEnd := parseTimeToMinutes(band.End)
		if !okStart || !okEnd {
			continue
		}
		var match bool
		if start > end {
			match = minutes >= start || minutes <= end
		} else {
			match = minutes >= start && minutes <= end
		}
		if match {
			id := band.ID
			if id == "" {
				id = band.Label
			}
			return safeMultiplier(band.Multiplier), id
		}
	}
	return 1, ""
}

// resolveHours determines the billable session length. An explicit override
// always wins; otherwise the timestamp difference is used, rounded to two
// decimals; a booking with no usable duration signal is priced as one hour.
// The result never drops below a quarter hour.
func resolveHours(startAt, endAt *time.Time, override *float64) float64 {
	if override != nil && !math.IsNaN(*override) && !math.IsInf(*override, 0) {
		return math.Max(minHours, *override)
	}
	if startAt == nil || endAt == nil {
		return 1
	}
	diff := endAt.Sub(*startAt)
	if diff <= 0 {
		return 1
	}
	hours := math.Round(diff.Hours()*100) / 100
	return math.Max(minHours, hours)
}

// parseTimeToMinutes converts an "HH:MM" string to minutes since midnight.
func parseTimeToMinutes(value string) (int, bool) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}

// clampPercent restricts a percentage to [0, 100], falling back when the
// value is absent or not a real number.
func clampPercent(value *float64, fallback float64) float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return fallback
	}
	return math.Min(math.Max(*value, 0), 100)
}

// validPercent is clampPercent without a fallback: the second return
// reports whether a usable percentage was present at all.
func validPercent(value *float64) (float64, bool) {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 0, false
	}
	return math.Min(math.Max(*value, 0), 100), true
}

func safeMultiplier(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

func normalizeRegion(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
