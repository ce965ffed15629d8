package notify

import (
	"context"

	"chessfam/logger"
	"chessfam/models"
)

// LogNotifier writes notices to the log. It is used when no NATS server is
// configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.With("component", "notify")}
}

func (n *LogNotifier) NotifyNewRegistration(_ context.Context, organizerEmail string, notice models.RegistrationNotice) error {
	job := registrationJob(organizerEmail, notice)
	n.log.Info("registration notice",
		"to", job.To,
		"subject", job.Subject,
		"tournament_id", notice.TournamentID,
		"registration_id", notice.RegistrationID,
		"entry_fee", FormatFee(notice.EntryFee, notice.Currency),
	)
	return nil
}

func (n *LogNotifier) NotifyWithdrawal(_ context.Context, organizerEmail string, notice models.WithdrawalNotice) error {
	job := withdrawalJob(organizerEmail, notice)
	n.log.Info("withdrawal notice",
		"to", job.To,
		"subject", job.Subject,
		"tournament_id", notice.TournamentID,
		"registration_id", notice.RegistrationID,
		"refunded", notice.Refund != nil,
	)
	return nil
}
