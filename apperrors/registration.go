package apperrors

// Registration and tournament failures. Stores and services return these
// values directly so callers can match them with errors.Is.
var (
	ErrTournamentNotFound   = New(CodeNotFound, "tournament not found")
	ErrUserNotFound         = New(CodeNotFound, "user not found")
	ErrRegistrationNotFound = New(CodeNotFound, "not registered")

	ErrRegistrationClosed = New(CodeValidation, "registration closed")
	ErrDeadlinePassed     = New(CodeValidation, "deadline passed")
	ErrTournamentFull     = New(CodeValidation, "tournament is full")
	ErrBelowMinRating     = New(CodeValidation, "below minimum rating")
	ErrAboveMaxRating     = New(CodeValidation, "above maximum rating")
	ErrWithdrawalClosed   = New(CodeValidation, "cannot withdraw from started tournament")
	ErrTournamentLocked   = New(CodeValidation, "tournament can only be changed while upcoming")

	// ErrCapacityExceeded is the atomic-guard variant of ErrTournamentFull:
	// the tournament row exists but the conditional counter update matched nothing.
	ErrCapacityExceeded = New(CodeCapacityExceeded, "tournament is full")

	ErrAlreadyRegistered          = New(CodeConflict, "already registered")
	ErrTournamentHasRegistrations = New(CodeConflict, "tournament has registrations")

	ErrNotOrganizer = New(CodeForbidden, "only the organizer or an admin can change this tournament")
)

var ErrNotInSeries = New(CodeNotFound, "tournament is not part of a series")
