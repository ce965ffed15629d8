package models

import (
	"time"
)

const TierFree = "free"

type SubscriptionState string

const (
	SubscriptionActive   SubscriptionState = "active"
	SubscriptionTrialing SubscriptionState = "trialing"
	SubscriptionPastDue  SubscriptionState = "past_due"
	SubscriptionCanceled SubscriptionState = "canceled"
)

// Subscription mirrors billing data from the sync service.
// Table name: subscriptions
type Subscription struct {
	ID               string            `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID           string            `gorm:"not null;uniqueIndex" json:"user_id"` // External user ID
	Tier             string            `gorm:"type:varchar(32);not null" json:"tier"`
	Status           SubscriptionState `gorm:"type:varchar(16);not null" json:"status"`
	TrialEndsAt      *time.Time        `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time        `json:"current_period_end,omitempty"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null" json:"updated_at"`
}

// SubscriptionStatus is what pricing needs to know about a subscriber.
type SubscriptionStatus struct {
	Tier    string `json:"tier"`
	InTrial bool   `json:"in_trial"`
}

// IsPremium counts trial users as premium.
func (s SubscriptionStatus) IsPremium() bool {
	return s.InTrial || (s.Tier != "" && s.Tier != TierFree)
}

// StatusAt resolves the mirrored row into a SubscriptionStatus. Lapsed or
// canceled subscriptions fall back to the free tier.
func (s *Subscription) StatusAt(now time.Time) SubscriptionStatus {
	switch s.Status {
	case SubscriptionTrialing:
		if s.TrialEndsAt != nil && !s.TrialEndsAt.After(now) {
			return SubscriptionStatus{Tier: TierFree}
		}
		return SubscriptionStatus{Tier: s.Tier, InTrial: true}
	case SubscriptionActive:
		if s.CurrentPeriodEnd != nil && !s.CurrentPeriodEnd.After(now) {
			return SubscriptionStatus{Tier: TierFree}
		}
		return SubscriptionStatus{Tier: s.Tier}
	default:
		return SubscriptionStatus{Tier: TierFree}
	}
}
