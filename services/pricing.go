package services

import (
	"math"
	"time"

	"chessfam/models"
)

// PremiumDiscountPercent is the flat discount for premium and trial members.
const PremiumDiscountPercent = 10.0

// Registrant carries the attributes pricing may look at.
type Registrant struct {
	Age          *int
	Titles       []models.Title
	Female       bool
	IsPremium    bool
	RegisteredAt time.Time
}

// FeeQuote is the outcome of ComputeFee.
type FeeQuote struct {
	FinalFee       float64 `json:"final_fee"`
	BaseFee        float64 `json:"base_fee"`
	DiscountAmount float64 `json:"discount_amount"`
	DiscountLabel  *string `json:"discount_label"`
}

// ComputeFee prices a registration. Only the premium member discount is
// applied here; early-bird, demographic and title discounts are exposed as
// separate calculators and are not stacked into the registration price.
func ComputeFee(cfg models.PricingConfig, r Registrant) FeeQuote {
	base := cfg.EntryFee
	if base < 0 || math.IsNaN(base) {
		base = 0
	}
	base = round2(base)

	if base > 0 && cfg.PremiumDiscountEligible && r.IsPremium {
		discount := round2(base * PremiumDiscountPercent / 100)
		label := models.DiscountLabelPremium
		return FeeQuote{
			FinalFee:       clampFee(base-discount, base),
			BaseFee:        base,
			DiscountAmount: discount,
			DiscountLabel:  &label,
		}
	}

	return FeeQuote{FinalFee: base, BaseFee: base}
}

// SelectActiveTier returns the tier with the earliest deadline that has not
// passed yet, or nil. A deadline equal to now still counts.
func SelectActiveTier(tiers []models.EarlyBirdTier, now time.Time) *models.EarlyBirdTier {
	var active *models.EarlyBirdTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.Deadline.Before(now) {
			continue
		}
		if active == nil || tier.Deadline.Before(active.Deadline) {
			active = tier
		}
	}
	if active == nil {
		return nil
	}
	selected := *active
	return &selected
}

// ApplyTier prices basePrice under tier.
func ApplyTier(basePrice float64, tier models.EarlyBirdTier) float64 {
	switch tier.DiscountType {
	case models.DiscountPercentage:
		return ApplyPercent(basePrice, tier.Discount)
	case models.DiscountFixed:
		return clampFee(basePrice-math.Max(tier.Discount, 0), basePrice)
	default:
		return clampFee(basePrice, basePrice)
	}
}

// ApplyPercent takes pct percent off base. pct is clamped to [0, 100].
func ApplyPercent(base, pct float64) float64 {
	pct = math.Min(math.Max(pct, 0), 100)
	return clampFee(base*(1-pct/100), base)
}

// DemographicDiscountPercent returns the largest junior, senior or women
// discount the registrant qualifies for. Age based discounts need a known age
// and the matching age bound on the tournament.
func DemographicDiscountPercent(cfg models.PricingConfig, r Registrant) float64 {
	best := 0.0
	if r.Age != nil {
		if cfg.JuniorAgeMax != nil && *r.Age <= *cfg.JuniorAgeMax {
			best = math.Max(best, percentOf(cfg.JuniorDiscount))
		}
		if cfg.SeniorAgeMin != nil && *r.Age >= *cfg.SeniorAgeMin {
			best = math.Max(best, percentOf(cfg.SeniorDiscount))
		}
	}
	if r.Female {
		best = math.Max(best, percentOf(cfg.WomenDiscount))
	}
	return best
}

// TitleDiscountPercent returns the largest titled-player discount for titles.
func TitleDiscountPercent(cfg models.PricingConfig, titles []models.Title) float64 {
	best := 0.0
	for _, title := range titles {
		switch title {
		case models.TitleGM, models.TitleWGM:
			best = math.Max(best, percentOf(cfg.GMWGMDiscount))
		case models.TitleIM, models.TitleWIM:
			best = math.Max(best, percentOf(cfg.IMWIMDiscount))
		case models.TitleFM, models.TitleWFM:
			best = math.Max(best, percentOf(cfg.FMWFMDiscount))
		}
	}
	return best
}

// EarlyBirdQuote previews the early-bird price of a tournament.
type EarlyBirdQuote struct {
	TournamentID string                `json:"tournament_id"`
	Currency     string                `json:"currency"`
	BasePrice    float64               `json:"base_price"`
	Price        float64               `json:"price"`
	Savings      float64               `json:"savings"`
	ActiveTier   *models.EarlyBirdTier `json:"active_tier"`
}

func QuoteEarlyBird(t *models.Tournament, now time.Time) EarlyBirdQuote {
	base := round2(math.Max(t.EntryFee, 0))
	quote := EarlyBirdQuote{
		TournamentID: t.ID,
		Currency:     t.Currency,
		BasePrice:    base,
		Price:        base,
	}
	if tier := SelectActiveTier(t.EarlyBirdPricing, now); tier != nil {
		quote.ActiveTier = tier
		quote.Price = ApplyTier(base, *tier)
		quote.Savings = round2(base - quote.Price)
	}
	return quote
}

func percentOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return math.Min(math.Max(*p, 0), 100)
}

// clampFee keeps fee within [0, ceiling] and rounds it to cents.
func clampFee(fee, ceiling float64) float64 {
	if fee > ceiling {
		fee = ceiling
	}
	if fee < 0 {
		fee = 0
	}
	return round2(fee)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
