package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultRating = 1500

// Player is a local snapshot of a ChessFam user, keyed by the profile
// service's id. Populated by the player sync worker.
type Player struct {
	ID               string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID   string     `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Name             string     `gorm:"index;not null" json:"name"`
	Email            string     `json:"email,omitempty"`
	Rating           *int       `json:"rating,omitempty"`
	IsAdmin          bool       `gorm:"not null;default:false" json:"is_admin"`
	SubscriptionTier string     `gorm:"type:varchar(32);not null;default:'free'" json:"subscription_tier"`
	InTrial          bool       `gorm:"not null;default:false" json:"in_trial"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	FideTitle        Title      `gorm:"type:varchar(8)" json:"fide_title,omitempty"`
	Gender           string     `gorm:"type:varchar(16)" json:"gender,omitempty"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectiveRating falls back to DefaultRating for unrated players.
func (p *Player) EffectiveRating() int {
	if p.Rating == nil {
		return DefaultRating
	}
	return *p.Rating
}

// AgeAt returns the player's age in whole years, or nil without a birth date.
func (p *Player) AgeAt(now time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	b := p.BirthDate.UTC()
	n := now.UTC()
	age := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		age--
	}
	return &age
}

// PlayerSummary is the public view of a player returned by search.
type PlayerSummary struct {
	ExternalUserID string `json:"external_user_id"`
	Name           string `json:"name"`
	Rating         *int   `json:"rating,omitempty"`
	FideTitle      Title  `json:"fide_title,omitempty"`
}

func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		ExternalUserID: p.ExternalUserID,
		Name:           p.Name,
		Rating:         p.Rating,
		FideTitle:      p.FideTitle,
	}
}
