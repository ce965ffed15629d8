package workers

import (
	"context"
	"time"

	"chessfam/logger"
	"chessfam/metrics"
	"chessfam/models"
)

const subscriptionsPath = "/api/v1/public/subscriptions"

type RemoteSubscription struct {
	UserID           string     `json:"user_id"`
	Tier             string     `json:"tier"`
	Status           string     `json:"status"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type subscriptionChanges struct {
	Subscriptions []RemoteSubscription `json:"subscriptions"`
}

type SubscriptionUpserter interface {
	UpsertSubscriptions(ctx context.Context, subs []models.Subscription) error
	LatestSubscriptionUpdate(ctx context.Context) (time.Time, error)
}

// SubscriptionSyncWorker mirrors billing state into the subscriptions table
// that premium pricing reads.
type SubscriptionSyncWorker struct {
	client   *SyncClient
	store    SubscriptionUpserter
	interval time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewSubscriptionSyncWorker(client *SyncClient, store SubscriptionUpserter, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *SubscriptionSyncWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &SubscriptionSyncWorker{
		client:   client,
		store:    store,
		interval: interval,
		log:      log.With("worker", "subscription_sync"),
		metrics:  m,
	}
}

func (w *SubscriptionSyncWorker) Run(ctx context.Context) error {
	w.log.Info("starting subscription sync worker", "interval", w.interval.String())
	runEvery(ctx, w.interval, w.SyncOnce)
	w.log.Info("subscription sync worker stopped")
	return nil
}

func (w *SubscriptionSyncWorker) SyncOnce(ctx context.Context) error {
	since, err := w.store.LatestSubscriptionUpdate(ctx)
	if err != nil {
		w.log.Error("failed to read subscription watermark", "error", err)
		return err
	}

	var changes subscriptionChanges
	if err := w.client.getChanges(ctx, subscriptionsPath, since, &changes); err != nil {
		w.log.Warn("subscription sync fetch failed", "since", since, "error", err)
		return err
	}

	subs := make([]models.Subscription, 0, len(changes.Subscriptions))
	for _, remote := range changes.Subscriptions {
		if remote.UserID == "" {
			continue
		}
		tier := remote.Tier
		if tier == "" {
			tier = models.TierFree
		}
		subs = append(subs, models.Subscription{
			UserID:           remote.UserID,
			Tier:             tier,
			Status:           models.SubscriptionState(remote.Status),
			TrialEndsAt:      remote.TrialEndsAt,
			CurrentPeriodEnd: remote.CurrentPeriodEnd,
			CreatedAt:        remote.CreatedAt,
			UpdatedAt:        remote.UpdatedAt,
		})
	}
	if len(subs) == 0 {
		return nil
	}

	if err := w.store.UpsertSubscriptions(ctx, subs); err != nil {
		w.log.Error("failed to upsert subscriptions", "count", len(subs), "since", since, "error", err)
		return err
	}
	w.metrics.Synced("subscriptions", len(subs))
	w.log.Info("subscriptions synced", "count", len(subs), "since", since)
	return nil
}
