package services

import (
	"context"
	"time"

	"chessfam/apperrors"
	"chessfam/models"
)

// RegistrationLookup answers the duplicate check.
type RegistrationLookup interface {
	HasRegistration(ctx context.Context, tournamentID, userID string) (bool, error)
}

type EligibilityChecker struct {
	registrations RegistrationLookup
	now           func() time.Time
}

func NewEligibilityChecker(registrations RegistrationLookup, now func() time.Time) *EligibilityChecker {
	if now == nil {
		now = time.Now
	}
	return &EligibilityChecker{registrations: registrations, now: now}
}

// Check runs the registration checks in order and returns the first failure.
// Series and festival parents never accept registrations.
func (e *EligibilityChecker) Check(ctx context.Context, t *models.Tournament, userID string, userRating int) error {
	if t.Status != models.TournamentUpcoming || t.IsContainer() {
		return apperrors.ErrRegistrationClosed
	}
	if t.RegistrationDeadline != nil && t.RegistrationDeadline.Before(e.now()) {
		return apperrors.ErrDeadlinePassed
	}
	if !t.HasCapacity() {
		return apperrors.ErrTournamentFull
	}

	registered, err := e.registrations.HasRegistration(ctx, t.ID, userID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to check existing registration")
	}
	if registered {
		return apperrors.ErrAlreadyRegistered
	}

	if t.RatingMin != nil && userRating < *t.RatingMin {
		return apperrors.ErrBelowMinRating
	}
	if t.RatingMax != nil && userRating > *t.RatingMax {
		return apperrors.ErrAboveMaxRating
	}
	return nil
}
