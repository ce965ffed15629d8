package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"chessfam/apperrors"
	"chessfam/cache"
	"chessfam/logger"
	"chessfam/metrics"
	"chessfam/models"
)

// Dependencies wires the registration and withdrawal coordinators.
// Subscriptions, Refunds, Notifier, Metrics and Tracer are optional.
type Dependencies struct {
	Store         TournamentStore
	Users         UserDirectory
	Subscriptions SubscriptionStatusProvider
	Refunds       RefundLookup
	Notifier      Notifier
	SideEffects   *SideEffects
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
	Tracer        trace.Tracer
	Now           func() time.Time
	// SeriesCache, when set, has the parent's series stats dropped after a
	// registration or withdrawal on one of its editions.
	SeriesCache   cache.Cache
}

// invalidateSeriesStats drops the cached rollup of t's series. A failure only
// leaves the stats stale until the TTL runs out.
func (d Dependencies) invalidateSeriesStats(ctx context.Context, t *models.Tournament) {
	if d.SeriesCache == nil || t.ParentTournamentID == nil {
		return
	}
	err := d.SeriesCache.Delete(ctx, seriesStatsKey(*t.ParentTournamentID))
	if err != nil && !cache.IsMiss(err) {
		d.Logger.Warn("series stats invalidation failed", "parent_id", *t.ParentTournamentID, "error", err)
	}
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("chessfam/services")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.SideEffects == nil {
		d.SideEffects = NewSideEffects(d.Logger, d.Metrics, 0)
	}
	return d
}

type RegistrationCoordinator struct {
	deps        Dependencies
	eligibility *EligibilityChecker
	log         *logger.Logger
}

func NewRegistrationCoordinator(deps Dependencies) *RegistrationCoordinator {
	deps = deps.withDefaults()
	return &RegistrationCoordinator{
		deps:        deps,
		eligibility: NewEligibilityChecker(deps.Store, deps.Now),
		log:         deps.Logger.With("component", "registration"),
	}
}

// Register enrolls userID in tournamentID. The organizer notification runs
// after the registration has been stored and cannot fail it.
func (c *RegistrationCoordinator) Register(ctx context.Context, tournamentID, userID string) (_ *models.Registration, err error) {
	ctx, span := c.deps.Tracer.Start(ctx, "RegistrationCoordinator.Register", trace.WithAttributes(
		attribute.String("tournament_id", tournamentID),
		attribute.String("user_id", userID),
	))
	started := time.Now()
	defer func() {
		c.deps.Metrics.RegistrationOutcome(outcomeOf(err), time.Since(started))
		endSpan(span, err)
	}()

	t, err := c.deps.Store.GetTournament(ctx, tournamentID)
	if err != nil {
		c.logFailure("failed to load tournament", err, "tournament_id", tournamentID)
		return nil, err
	}

	// The rating bounds need the user's rating, so the directory is read
	// before eligibility.
	user, err := c.deps.Users.GetUser(ctx, userID)
	if err != nil {
		c.logFailure("failed to load registrant", err, "user_id", userID)
		return nil, err
	}

	if err := c.eligibility.Check(ctx, t, userID, user.EffectiveRating()); err != nil {
		c.logFailure("registration rejected", err, "tournament_id", tournamentID, "user_id", userID)
		return nil, err
	}

	now := c.deps.Now()
	registrant := Registrant{
		Age:          user.AgeAt(now),
		Female:       strings.EqualFold(user.Gender, "female"),
		RegisteredAt: now,
	}
	if user.FideTitle != "" {
		registrant.Titles = []models.Title{user.FideTitle}
	}
	if t.PremiumDiscountEligible && t.EntryFee > 0 {
		registrant.IsPremium = c.isPremium(ctx, user)
	}
	quote := ComputeFee(t.PricingConfig, registrant)

	reg := &models.Registration{
		ID:               uuid.NewString(),
		TournamentID:     t.ID,
		UserID:           userID,
		PlayerName:       user.Name,
		PlayerEmail:      user.Email,
		PlayerRating:     user.Rating,
		EntryFee:         quote.FinalFee,
		OriginalEntryFee: quote.BaseFee,
		DiscountApplied:  quote.DiscountAmount,
		DiscountType:     quote.DiscountLabel,
		Currency:         t.Currency,
		PaymentStatus:    models.PaymentPending,
		RegisteredAt:     now,
	}
	if quote.FinalFee <= 0 {
		reg.PaymentStatus = models.PaymentPaid
		reg.PaidAt = &now
	}

	count, err := c.deps.Store.CreateRegistration(ctx, reg)
	if err != nil {
		c.logFailure("failed to store registration", err, "tournament_id", tournamentID, "user_id", userID)
		return nil, err
	}

	c.deps.invalidateSeriesStats(ctx, t)

	c.log.Info("player registered",
		"tournament_id", t.ID,
		"user_id", userID,
		"entry_fee", reg.EntryFee,
		"payment_status", reg.PaymentStatus,
		"current_participants", count,
	)

	c.notifyOrganizer(ctx, t.OrganizerID, models.RegistrationNotice{
		TournamentID:        t.ID,
		TournamentName:      t.Name,
		RegistrationID:      reg.ID,
		PlayerName:          reg.PlayerName,
		PlayerRating:        reg.PlayerRating,
		EntryFee:            reg.EntryFee,
		Currency:            reg.Currency,
		PaymentStatus:       reg.PaymentStatus,
		CurrentParticipants: count,
		MaxParticipants:     t.MaxParticipants,
	})

	return reg, nil
}

// MarkPaid records that the payment collaborator captured the fee.
func (c *RegistrationCoordinator) MarkPaid(ctx context.Context, registrationID, paymentReference string) (*models.Registration, error) {
	ctx, span := c.deps.Tracer.Start(ctx, "RegistrationCoordinator.MarkPaid", trace.WithAttributes(
		attribute.String("registration_id", registrationID),
	))
	defer span.End()

	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, apperrors.Validation("payment_reference is required")
	}

	reg, err := c.deps.Store.MarkRegistrationPaid(ctx, registrationID, paymentReference, c.deps.Now())
	if err != nil {
		c.logFailure("failed to mark registration paid", err, "registration_id", registrationID)
		span.RecordError(err)
		return nil, err
	}
	return reg, nil
}

// isPremium never fails the registration: a broken lookup means no discount.
func (c *RegistrationCoordinator) isPremium(ctx context.Context, user *models.Player) bool {
	if c.deps.Subscriptions == nil {
		return models.SubscriptionStatus{Tier: user.SubscriptionTier, InTrial: user.InTrial}.IsPremium()
	}
	status, err := c.deps.Subscriptions.GetSubscriptionStatus(ctx, user.ExternalUserID)
	if err != nil {
		c.deps.Metrics.SideEffectFailed("subscription_lookup")
		c.log.Warn("subscription lookup failed, pricing without premium discount",
			"user_id", user.ExternalUserID, "error", err)
		return false
	}
	return status.IsPremium()
}

func (c *RegistrationCoordinator) notifyOrganizer(ctx context.Context, organizerID string, notice models.RegistrationNotice) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.SideEffects.Go(ctx, "notify_registration", func(ctx context.Context) error {
		organizer, err := c.deps.Users.GetUser(ctx, organizerID)
		if err != nil {
			return fmt.Errorf("lookup organizer %s: %w", organizerID, err)
		}
		if organizer.Email == "" {
			return fmt.Errorf("organizer %s has no email", organizerID)
		}
		return c.deps.Notifier.NotifyNewRegistration(ctx, organizer.Email, notice)
	})
}

func (c *RegistrationCoordinator) logFailure(msg string, err error, kv ...interface{}) {
	logFailure(c.log, msg, err, kv...)
}

// logFailure logs domain rejections at warn and everything else at error.
func logFailure(log *logger.Logger, msg string, err error, kv ...interface{}) {
	kv = append(kv, "error", err)
	if apperrors.CodeOf(err) == apperrors.CodeInternal {
		log.Error(msg, kv...)
		return
	}
	log.Warn(msg, kv...)
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return string(apperrors.CodeOf(err))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
