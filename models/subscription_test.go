package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name        string
		sub         Subscription
		wantPremium bool
		wantTrial   bool
	}{
		{"active premium", Subscription{Tier: "premium", Status: SubscriptionActive, CurrentPeriodEnd: &future}, true, false},
		{"active period over", Subscription{Tier: "premium", Status: SubscriptionActive, CurrentPeriodEnd: &past}, false, false},
		{"trialing", Subscription{Tier: "premium", Status: SubscriptionTrialing, TrialEndsAt: &future}, true, true},
		{"trial expired", Subscription{Tier: "premium", Status: SubscriptionTrialing, TrialEndsAt: &past}, false, false},
		{"canceled", Subscription{Tier: "premium", Status: SubscriptionCanceled}, false, false},
		{"free tier", Subscription{Tier: TierFree, Status: SubscriptionActive}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.sub.StatusAt(now)
			assert.Equal(t, tt.wantPremium, status.IsPremium())
			assert.Equal(t, tt.wantTrial, status.InTrial)
		})
	}
}

func TestPlayerAgeAndRating(t *testing.T) {
	birth := time.Date(2010, 6, 15, 0, 0, 0, 0, time.UTC)
	p := Player{BirthDate: &birth}

	assert.Equal(t, 15, *p.AgeAt(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 16, *p.AgeAt(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, DefaultRating, p.EffectiveRating())

	rating := 2100
	p.Rating = &rating
	assert.Equal(t, 2100, p.EffectiveRating())
	assert.Nil(t, (&Player{}).AgeAt(time.Now()))
}
