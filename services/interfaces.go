package services

import (
	"context"
	"time"

	"chessfam/models"
)

// TournamentStore persists tournaments and registrations. Counter changes
// happen inside the store as single conditional updates.
type TournamentStore interface {
	RegistrationLookup

	// GetTournament returns apperrors.ErrTournamentNotFound when id is unknown.
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)

	// CreateRegistration inserts reg and increments current_participants in
	// one transaction, returning the new count. It fails with
	// ErrAlreadyRegistered on a (tournament, user) duplicate and with
	// ErrCapacityExceeded when the tournament filled up concurrently.
	CreateRegistration(ctx context.Context, reg *models.Registration) (int, error)

	// DeleteRegistration removes the registration and decrements the counter
	// without letting it go below zero. It returns the deleted row and the
	// new count, or ErrRegistrationNotFound.
	DeleteRegistration(ctx context.Context, tournamentID, userID string) (*models.Registration, int, error)

	// MarkRegistrationPaid flips payment_status to paid.
	MarkRegistrationPaid(ctx context.Context, registrationID, reference string, paidAt time.Time) (*models.Registration, error)
}

// TournamentRepository covers organizer and admin management of tournaments.
type TournamentRepository interface {
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	CreateTournament(ctx context.Context, t *models.Tournament) error
	// UpdateTournament saves t only while it is still upcoming, otherwise
	// ErrTournamentLocked.
	UpdateTournament(ctx context.Context, t *models.Tournament) error
	// DeleteTournament removes a tournament without registrations, otherwise
	// ErrTournamentHasRegistrations.
	DeleteTournament(ctx context.Context, id string) error
	SetApproval(ctx context.Context, id string, status models.ApprovalStatus) error
	ListPublic(ctx context.Context, offset, limit int) ([]models.Tournament, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// AdvanceStatuses moves upcoming tournaments that have started to
	// ongoing and finished ones to completed.
	AdvanceStatuses(ctx context.Context, now time.Time) (started, completed int64, err error)
}

// SeriesStore reads the edition hierarchy.
type SeriesStore interface {
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListEditions(ctx context.Context, parentID string) ([]models.Tournament, error)
	ListReviews(ctx context.Context, tournamentIDs []string, offset, limit int) ([]models.TournamentReview, error)
	ReviewSummary(ctx context.Context, tournamentIDs []string) (count int64, average float64, err error)
}

// UserDirectory returns apperrors.ErrUserNotFound for unknown users.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.Player, error)
}

type SubscriptionStatusProvider interface {
	GetSubscriptionStatus(ctx context.Context, userID string) (models.SubscriptionStatus, error)
}

// RefundLookup returns nil without error when no completed refund exists.
type RefundLookup interface {
	CompletedRefund(ctx context.Context, registrationID string) (*models.Refund, error)
}

type Notifier interface {
	NotifyNewRegistration(ctx context.Context, organizerEmail string, notice models.RegistrationNotice) error
	NotifyWithdrawal(ctx context.Context, organizerEmail string, notice models.WithdrawalNotice) error
}
