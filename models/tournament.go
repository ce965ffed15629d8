package models

import (
	"time"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Tournament is a chess event with capacity, schedule and pricing rules.
// Series and festival parents are containers for editions and never take
// registrations themselves.
type Tournament struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
	Location    string `json:"location"`
	OrganizerID string `json:"organizer_id" gorm:"index;not null"`

	StartDate            time.Time        `json:"start_date" gorm:"not null;index"`
	EndDate              *time.Time       `json:"end_date,omitempty"`
	RegistrationDeadline *time.Time       `json:"registration_deadline,omitempty"`
	Status               TournamentStatus `json:"status" gorm:"type:varchar(16);not null;default:'upcoming';index"`
	ApprovalStatus       ApprovalStatus   `json:"approval_status" gorm:"type:varchar(16);not null;default:'pending';index"`

	// CurrentParticipants is only ever changed by the conditional counter
	// updates in the store.
	MaxParticipants     *int `json:"max_participants,omitempty"`
	CurrentParticipants int  `json:"current_participants" gorm:"not null;default:0"`

	RatingMin *int `json:"rating_min,omitempty"`
	RatingMax *int `json:"rating_max,omitempty"`

	PricingConfig `gorm:"embedded"`

	ParentTournamentID *string `json:"parent_tournament_id,omitempty" gorm:"type:uuid;index"`
	IsSeriesParent     bool    `json:"is_series_parent" gorm:"not null;default:false"`
	IsFestivalParent   bool    `json:"is_festival_parent" gorm:"not null;default:false"`

	CoverImageURL string   `json:"cover_image_url,omitempty"`
	GalleryImages []string `json:"gallery_images,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsContainer reports whether t is a series or festival parent.
func (t *Tournament) IsContainer() bool {
	return t.IsSeriesParent || t.IsFestivalParent
}

// HasCapacity reports whether one more registration fits.
func (t *Tournament) HasCapacity() bool {
	return t.MaxParticipants == nil || t.CurrentParticipants < *t.MaxParticipants
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// EarlyBirdTier is a time-boxed discount. A tier is active until its deadline
// has passed.
type EarlyBirdTier struct {
	Deadline     time.Time    `json:"deadline"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discount_type"`
	Label        string       `json:"label,omitempty"`
}

const MaxEarlyBirdTiers = 3

// PricingConfig groups every fee and discount setting of a tournament.
// Unset percentages mean the discount is not offered.
type PricingConfig struct {
	EntryFee                float64         `json:"entry_fee" gorm:"type:numeric(10,2);not null;default:0"`
	Currency                string          `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	PremiumDiscountEligible bool            `json:"premium_discount_eligible" gorm:"not null;default:false"`
	EarlyBirdPricing        []EarlyBirdTier `json:"early_bird_pricing,omitempty" gorm:"serializer:json"`

	JuniorDiscount *float64 `json:"junior_discount,omitempty" gorm:"type:numeric(5,2)"`
	SeniorDiscount *float64 `json:"senior_discount,omitempty" gorm:"type:numeric(5,2)"`
	WomenDiscount  *float64 `json:"women_discount,omitempty" gorm:"type:numeric(5,2)"`
	JuniorAgeMax   *int     `json:"junior_age_max,omitempty"`
	SeniorAgeMin   *int     `json:"senior_age_min,omitempty"`

	GMWGMDiscount *float64 `json:"gm_wgm_discount,omitempty" gorm:"column:gm_wgm_discount;type:numeric(5,2)"`
	IMWIMDiscount *float64 `json:"im_wim_discount,omitempty" gorm:"column:im_wim_discount;type:numeric(5,2)"`
	FMWFMDiscount *float64 `json:"fm_wfm_discount,omitempty" gorm:"column:fm_wfm_discount;type:numeric(5,2)"`
}

// Title is a FIDE title.
type Title string

const (
	TitleGM  Title = "GM"
	TitleWGM Title = "WGM"
	TitleIM  Title = "IM"
	TitleWIM Title = "WIM"
	TitleFM  Title = "FM"
	TitleWFM Title = "WFM"
)

// TournamentReview is a player's rating of a finished tournament.
type TournamentReview struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID string    `json:"tournament_id" gorm:"type:uuid;index;not null"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	UserName     string    `json:"user_name"`
	Rating       int       `json:"rating" gorm:"check:rating >= 1 and rating <= 5"`
	Comment      string    `json:"comment" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
