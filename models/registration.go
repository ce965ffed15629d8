package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

const DiscountLabelPremium = "premium_member"

// Registration enrolls one user in one tournament. Player fields are copied
// from the user directory at registration time and never re-synced.
type Registration struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID string `json:"tournament_id" gorm:"type:uuid;not null;uniqueIndex:idx_registrations_tournament_user,priority:1"`
	UserID       string `json:"user_id" gorm:"not null;uniqueIndex:idx_registrations_tournament_user,priority:2;index"`

	PlayerName   string `json:"player_name"`
	PlayerEmail  string `json:"player_email"`
	PlayerRating *int   `json:"player_rating,omitempty"`

	EntryFee         float64 `json:"entry_fee" gorm:"type:numeric(10,2);not null"`
	OriginalEntryFee float64 `json:"original_entry_fee" gorm:"type:numeric(10,2);not null"`
	DiscountApplied  float64 `json:"discount_applied" gorm:"type:numeric(10,2);not null;default:0"`
	DiscountType     *string `json:"discount_type"`
	Currency         string  `json:"currency" gorm:"type:varchar(3)"`

	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`

	RegisteredAt time.Time `json:"registered_at" gorm:"not null"`
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundFailed    RefundStatus = "failed"
)

// Refund is written by the payment collaborator. It outlives the
// registration it refers to.
type Refund struct {
	ID             string       `json:"id" gorm:"primaryKey;type:uuid"`
	RegistrationID string       `json:"registration_id" gorm:"type:uuid;index;not null"`
	TournamentID   string       `json:"tournament_id" gorm:"type:uuid;index"`
	UserID         string       `json:"user_id" gorm:"index"`
	Amount         float64      `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency       string       `json:"currency" gorm:"type:varchar(3)"`
	Status         RefundStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at" gorm:"autoCreateTime"`
}
