package models

import "time"

// RegistrationNotice is sent to the organizer after a successful registration.
type RegistrationNotice struct {
	TournamentID        string        `json:"tournament_id"`
	TournamentName      string        `json:"tournament_name"`
	RegistrationID      string        `json:"registration_id"`
	PlayerName          string        `json:"player_name"`
	PlayerRating        *int          `json:"player_rating,omitempty"`
	EntryFee            float64       `json:"entry_fee"`
	Currency            string        `json:"currency"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	CurrentParticipants int           `json:"current_participants"`
	MaxParticipants     *int          `json:"max_participants,omitempty"`
}

// WithdrawalNotice is sent to the organizer after a withdrawal. Refund is
// set when a completed refund exists for the removed registration.
type WithdrawalNotice struct {
	TournamentID        string         `json:"tournament_id"`
	TournamentName      string         `json:"tournament_name"`
	RegistrationID      string         `json:"registration_id"`
	PlayerName          string         `json:"player_name"`
	PlayerEmail         string         `json:"player_email"`
	CurrentParticipants int            `json:"current_participants"`
	Refund              *RefundSummary `json:"refund,omitempty"`
}

type RefundSummary struct {
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
