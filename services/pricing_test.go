package services

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessfam/models"
)

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name         string
		cfg          models.PricingConfig
		registrant   Registrant
		wantFinal    float64
		wantDiscount float64
		wantLabel    *string
	}{
		{
			name:         "premium member gets ten percent off",
			cfg:          models.PricingConfig{EntryFee: 50, PremiumDiscountEligible: true},
			registrant:   Registrant{IsPremium: true},
			wantFinal:    45,
			wantDiscount: 5,
			wantLabel:    strPtr(models.DiscountLabelPremium),
		},
		{
			name:       "tournament not eligible for premium discount",
			cfg:        models.PricingConfig{EntryFee: 50},
			registrant: Registrant{IsPremium: true},
			wantFinal:  50,
		},
		{
			name:       "non premium registrant",
			cfg:        models.PricingConfig{EntryFee: 50, PremiumDiscountEligible: true},
			registrant: Registrant{},
			wantFinal:  50,
		},
		{
			name:       "free tournament",
			cfg:        models.PricingConfig{EntryFee: 0, PremiumDiscountEligible: true},
			registrant: Registrant{IsPremium: true},
			wantFinal:  0,
		},
		{
			name:         "discount rounds to cents",
			cfg:          models.PricingConfig{EntryFee: 33.33, PremiumDiscountEligible: true},
			registrant:   Registrant{IsPremium: true},
			wantFinal:    30,
			wantDiscount: 3.33,
			wantLabel:    strPtr(models.DiscountLabelPremium),
		},
		{
			name:       "negative fee treated as free",
			cfg:        models.PricingConfig{EntryFee: -10, PremiumDiscountEligible: true},
			registrant: Registrant{IsPremium: true},
			wantFinal:  0,
		},
		{
			name: "demographic and title settings do not change the registration price",
			cfg: models.PricingConfig{
				EntryFee:       40,
				JuniorDiscount: floatPtr(50),
				JuniorAgeMax:   intPtr(18),
				GMWGMDiscount:  floatPtr(100),
			},
			registrant: Registrant{Age: intPtr(12), Titles: []models.Title{models.TitleGM}},
			wantFinal:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := ComputeFee(tt.cfg, tt.registrant)
			assert.InDelta(t, tt.wantFinal, quote.FinalFee, 1e-9)
			assert.InDelta(t, tt.wantDiscount, quote.DiscountAmount, 1e-9)
			assert.Equal(t, tt.wantLabel, quote.DiscountLabel)
			assert.InDelta(t, quote.BaseFee, quote.FinalFee+quote.DiscountAmount, 1e-9)
		})
	}
}

func isCents(v float64) bool {
	return math.Abs(v*100-math.Round(v*100)) < 1e-6
}

func TestComputeFeeBoundsAndRounding(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 2000; i++ {
		cfg := models.PricingConfig{
			EntryFee:                faker.Float64Range(-5, 500),
			PremiumDiscountEligible: faker.Bool(),
		}
		quote := ComputeFee(cfg, Registrant{IsPremium: faker.Bool()})

		require.GreaterOrEqual(t, quote.FinalFee, 0.0, "fee %v", cfg.EntryFee)
		require.LessOrEqual(t, quote.FinalFee, quote.BaseFee, "fee %v", cfg.EntryFee)
		require.True(t, isCents(quote.FinalFee), "final fee %v has more than two decimals", quote.FinalFee)
		require.True(t, isCents(quote.DiscountAmount), "discount %v has more than two decimals", quote.DiscountAmount)
	}
}

func TestSelectActiveTier(t *testing.T) {
	now := fixedNow
	soon := models.EarlyBirdTier{Deadline: now.Add(24 * time.Hour), Discount: 20, DiscountType: models.DiscountPercentage, Label: "super early"}
	later := models.EarlyBirdTier{Deadline: now.Add(72 * time.Hour), Discount: 10, DiscountType: models.DiscountPercentage, Label: "early"}
	past := models.EarlyBirdTier{Deadline: now.Add(-time.Hour), Discount: 30, DiscountType: models.DiscountPercentage}
	exact := models.EarlyBirdTier{Deadline: now, Discount: 5, DiscountType: models.DiscountFixed}

	tests := []struct {
		name  string
		tiers []models.EarlyBirdTier
		want  *models.EarlyBirdTier
	}{
		{"earliest future deadline wins", []models.EarlyBirdTier{later, soon}, &soon},
		{"expired tiers are skipped", []models.EarlyBirdTier{past, later}, &later},
		{"deadline equal to now is active", []models.EarlyBirdTier{later, exact}, &exact},
		{"all expired", []models.EarlyBirdTier{past}, nil},
		{"no tiers", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectActiveTier(tt.tiers, now))
		})
	}
}

func TestApplyTier(t *testing.T) {
	tests := []struct {
		name string
		base float64
		tier models.EarlyBirdTier
		want float64
	}{
		{"percentage", 100, models.EarlyBirdTier{Discount: 20, DiscountType: models.DiscountPercentage}, 80},
		{"percentage rounds", 49.99, models.EarlyBirdTier{Discount: 15, DiscountType: models.DiscountPercentage}, 42.49},
		{"percentage above 100 clamps at zero", 100, models.EarlyBirdTier{Discount: 150, DiscountType: models.DiscountPercentage}, 0},
		{"fixed", 100, models.EarlyBirdTier{Discount: 15, DiscountType: models.DiscountFixed}, 85},
		{"fixed larger than price", 10, models.EarlyBirdTier{Discount: 25, DiscountType: models.DiscountFixed}, 0},
		{"negative fixed never raises price", 10, models.EarlyBirdTier{Discount: -5, DiscountType: models.DiscountFixed}, 10},
		{"unknown type leaves price", 60, models.EarlyBirdTier{Discount: 10, DiscountType: "bogus"}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ApplyTier(tt.base, tt.tier), 1e-9)
		})
	}
}

func TestEarlyBirdTierBeforeDeadline(t *testing.T) {
	tiers := []models.EarlyBirdTier{{
		Deadline:     time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		Discount:     20,
		DiscountType: models.DiscountPercentage,
	}}

	tier := SelectActiveTier(tiers, time.Now())
	require.NotNil(t, tier)
	assert.Equal(t, 80.0, ApplyTier(100, *tier))
}

func TestDemographicDiscountPercent(t *testing.T) {
	cfg := models.PricingConfig{
		JuniorDiscount: floatPtr(25),
		SeniorDiscount: floatPtr(15),
		WomenDiscount:  floatPtr(30),
		JuniorAgeMax:   intPtr(18),
		SeniorAgeMin:   intPtr(65),
	}

	tests := []struct {
		name       string
		cfg        models.PricingConfig
		registrant Registrant
		want       float64
	}{
		{"junior at the age limit", cfg, Registrant{Age: intPtr(18)}, 25},
		{"adult", cfg, Registrant{Age: intPtr(30)}, 0},
		{"senior", cfg, Registrant{Age: intPtr(70)}, 15},
		{"junior woman takes the larger", cfg, Registrant{Age: intPtr(14), Female: true}, 30},
		{"unknown age", cfg, Registrant{}, 0},
		{"no age bound configured", models.PricingConfig{JuniorDiscount: floatPtr(25)}, Registrant{Age: intPtr(10)}, 0},
		{"out of range percent is clamped", models.PricingConfig{WomenDiscount: floatPtr(140)}, Registrant{Female: true}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DemographicDiscountPercent(tt.cfg, tt.registrant))
		})
	}
}

func TestTitleDiscountPercent(t *testing.T) {
	cfg := models.PricingConfig{
		GMWGMDiscount: floatPtr(100),
		IMWIMDiscount: floatPtr(50),
		FMWFMDiscount: floatPtr(25),
	}

	assert.Equal(t, 100.0, TitleDiscountPercent(cfg, []models.Title{models.TitleWGM}))
	assert.Equal(t, 50.0, TitleDiscountPercent(cfg, []models.Title{models.TitleIM}))
	assert.Equal(t, 50.0, TitleDiscountPercent(cfg, []models.Title{models.TitleWFM, models.TitleWIM}))
	assert.Equal(t, 0.0, TitleDiscountPercent(cfg, nil))
	assert.Equal(t, 0.0, TitleDiscountPercent(models.PricingConfig{}, []models.Title{models.TitleGM}))
	assert.Equal(t, 37.5, ApplyPercent(50, TitleDiscountPercent(cfg, []models.Title{models.TitleFM})))
}

func TestQuoteEarlyBird(t *testing.T) {
	tournament := &models.Tournament{
		ID: "t-1",
		PricingConfig: models.PricingConfig{
			EntryFee: 60,
			Currency: "EUR",
			EarlyBirdPricing: []models.EarlyBirdTier{
				{Deadline: fixedNow.Add(48 * time.Hour), Discount: 10, DiscountType: models.DiscountFixed, Label: "early"},
			},
		},
	}

	quote := QuoteEarlyBird(tournament, fixedNow)
	require.NotNil(t, quote.ActiveTier)
	assert.Equal(t, 50.0, quote.Price)
	assert.Equal(t, 10.0, quote.Savings)
	assert.Equal(t, "EUR", quote.Currency)

	expired := QuoteEarlyBird(tournament, fixedNow.Add(72*time.Hour))
	assert.Nil(t, expired.ActiveTier)
	assert.Equal(t, 60.0, expired.Price)
}
