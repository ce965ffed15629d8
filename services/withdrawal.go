package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chessfam/apperrors"
	"chessfam/logger"
	"chessfam/models"
)

type WithdrawalCoordinator struct {
	deps Dependencies
	log  *logger.Logger
}

func NewWithdrawalCoordinator(deps Dependencies) *WithdrawalCoordinator {
	deps = deps.withDefaults()
	return &WithdrawalCoordinator{
		deps: deps,
		log:  deps.Logger.With("component", "withdrawal"),
	}
}

// Withdraw removes userID from tournamentID while it is still upcoming.
// The refund lookup and organizer notification happen afterwards and are
// never reported to the caller.
func (c *WithdrawalCoordinator) Withdraw(ctx context.Context, tournamentID, userID string) (err error) {
	ctx, span := c.deps.Tracer.Start(ctx, "WithdrawalCoordinator.Withdraw", trace.WithAttributes(
		attribute.String("tournament_id", tournamentID),
		attribute.String("user_id", userID),
	))
	defer func() {
		c.deps.Metrics.WithdrawalOutcome(outcomeOf(err))
		endSpan(span, err)
	}()

	t, err := c.deps.Store.GetTournament(ctx, tournamentID)
	if err != nil {
		logFailure(c.log, "failed to load tournament", err, "tournament_id", tournamentID)
		return err
	}
	if t.Status != models.TournamentUpcoming {
		logFailure(c.log, "withdrawal rejected", apperrors.ErrWithdrawalClosed,
			"tournament_id", tournamentID, "status", t.Status)
		return apperrors.ErrWithdrawalClosed
	}

	reg, count, err := c.deps.Store.DeleteRegistration(ctx, tournamentID, userID)
	if err != nil {
		logFailure(c.log, "failed to remove registration", err, "tournament_id", tournamentID, "user_id", userID)
		return err
	}

	c.deps.invalidateSeriesStats(ctx, t)

	c.log.Info("player withdrew",
		"tournament_id", tournamentID,
		"user_id", userID,
		"registration_id", reg.ID,
		"current_participants", count,
	)

	c.notifyOrganizer(ctx, t.OrganizerID, models.WithdrawalNotice{
		TournamentID:        t.ID,
		TournamentName:      t.Name,
		RegistrationID:      reg.ID,
		PlayerName:          reg.PlayerName,
		PlayerEmail:         reg.PlayerEmail,
		CurrentParticipants: count,
	})
	return nil
}

func (c *WithdrawalCoordinator) notifyOrganizer(ctx context.Context, organizerID string, notice models.WithdrawalNotice) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.SideEffects.Go(ctx, "notify_withdrawal", func(ctx context.Context) error {
		if c.deps.Refunds != nil {
			refund, err := c.deps.Refunds.CompletedRefund(ctx, notice.RegistrationID)
			if err != nil {
				// A missing refund summary still leaves a useful notice.
				c.deps.Metrics.SideEffectFailed("refund_lookup")
				c.log.Warn("refund lookup failed", "registration_id", notice.RegistrationID, "error", err)
			} else if refund != nil {
				notice.Refund = &models.RefundSummary{
					Amount:      refund.Amount,
					Currency:    refund.Currency,
					CompletedAt: refund.CompletedAt,
				}
			}
		}

		organizer, err := c.deps.Users.GetUser(ctx, organizerID)
		if err != nil {
			return fmt.Errorf("lookup organizer %s: %w", organizerID, err)
		}
		if organizer.Email == "" {
			return fmt.Errorf("organizer %s has no email", organizerID)
		}
		return c.deps.Notifier.NotifyWithdrawal(ctx, organizer.Email, notice)
	})
}
