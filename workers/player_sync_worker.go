package workers

import (
	"context"
	"strings"
	"time"

	"chessfam/logger"
	"chessfam/metrics"
	"chessfam/models"
)

const profilesPath = "/api/v1/public/profiles"

// RemoteProfile is one entry of the profile service change feed.
type RemoteProfile struct {
	ExternalID       string     `json:"external_id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FirstName        *string    `json:"first_name,omitempty"`
	LastName         *string    `json:"last_name,omitempty"`
	Rating           *int       `json:"rating,omitempty"`
	FideTitle        string     `json:"fide_title"`
	Gender           string     `json:"gender"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	IsAdmin          bool       `json:"is_admin"`
	SubscriptionTier string     `json:"subscription_tier"`
	InTrial          bool       `json:"in_trial"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type profileChanges struct {
	Users []RemoteProfile `json:"users"`
}

type PlayerUpserter interface {
	UpsertPlayers(ctx context.Context, players []models.Player) error
	LatestPlayerUpdate(ctx context.Context) (time.Time, error)
}

// PlayerSyncWorker mirrors profile changes into the players table. The
// watermark is the newest updated_at already stored, so a failed batch is
// fetched again on the next tick.
type PlayerSyncWorker struct {
	client   *SyncClient
	store    PlayerUpserter
	interval time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewPlayerSyncWorker(client *SyncClient, store PlayerUpserter, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *PlayerSyncWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &PlayerSyncWorker{
		client:   client,
		store:    store,
		interval: interval,
		log:      log.With("worker", "player_sync"),
		metrics:  m,
	}
}

// Run blocks until ctx is cancelled.
func (w *PlayerSyncWorker) Run(ctx context.Context) error {
	w.log.Info("starting player sync worker", "interval", w.interval.String())
	runEvery(ctx, w.interval, w.SyncOnce)
	w.log.Info("player sync worker stopped")
	return nil
}

func (w *PlayerSyncWorker) SyncOnce(ctx context.Context) error {
	since, err := w.store.LatestPlayerUpdate(ctx)
	if err != nil {
		w.log.Error("failed to read player watermark", "error", err)
		return err
	}

	var changes profileChanges
	if err := w.client.getChanges(ctx, profilesPath, since, &changes); err != nil {
		w.log.Warn("player sync fetch failed", "since", since, "error", err)
		return err
	}
	if len(changes.Users) == 0 {
		w.log.Debug("no player changes", "since", since)
		return nil
	}

	players := make([]models.Player, 0, len(changes.Users))
	for _, remote := range changes.Users {
		if remote.ExternalID == "" {
			continue
		}
		players = append(players, toPlayer(remote))
	}

	if err := w.store.UpsertPlayers(ctx, players); err != nil {
		w.log.Error("failed to upsert players", "count", len(players), "since", since, "error", err)
		return err
	}
	w.metrics.Synced("players", len(players))
	w.log.Info("players synced", "count", len(players), "since", since)
	return nil
}

func toPlayer(remote RemoteProfile) models.Player {
	tier := remote.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}
	return models.Player{
		ExternalUserID:   remote.ExternalID,
		Name:             displayName(remote),
		Email:            remote.Email,
		Rating:           remote.Rating,
		IsAdmin:          remote.IsAdmin,
		SubscriptionTier: tier,
		InTrial:          remote.InTrial,
		BirthDate:        remote.BirthDate,
		FideTitle:        models.Title(strings.ToUpper(strings.TrimSpace(remote.FideTitle))),
		Gender:           strings.ToLower(remote.Gender),
		CreatedAt:        remote.CreatedAt,
		UpdatedAt:        remote.UpdatedAt,
	}
}

func displayName(remote RemoteProfile) string {
	var parts []string
	if remote.FirstName != nil && *remote.FirstName != "" {
		parts = append(parts, *remote.FirstName)
	}
	if remote.LastName != nil && *remote.LastName != "" {
		parts = append(parts, *remote.LastName)
	}
	if len(parts) == 0 {
		return remote.Username
	}
	return strings.Join(parts, " ")
}
