package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chessfam/media"
	"chessfam/models"
	"chessfam/repository"
)

var (
	_ TournamentStore            = (*repository.MemoryStore)(nil)
	_ TournamentRepository       = (*repository.MemoryStore)(nil)
	_ SeriesStore                = (*repository.MemoryStore)(nil)
	_ UserDirectory              = (*repository.MemoryStore)(nil)
	_ SubscriptionStatusProvider = (*repository.MemoryStore)(nil)
	_ RefundLookup               = (*repository.MemoryStore)(nil)
	_ PlayerDirectory            = (*repository.MemoryStore)(nil)

	_ TournamentStore            = (*repository.GormStore)(nil)
	_ TournamentRepository       = (*repository.GormStore)(nil)
	_ SeriesStore                = (*repository.GormStore)(nil)
	_ UserDirectory              = (*repository.GormStore)(nil)
	_ SubscriptionStatusProvider = (*repository.GormStore)(nil)
	_ RefundLookup               = (*repository.GormStore)(nil)
	_ PlayerDirectory            = (*repository.GormStore)(nil)
)

// FakeNotifier records notices and returns Err from every call.
type FakeNotifier struct {
	mu            sync.Mutex
	Err           error
	Registrations []models.RegistrationNotice
	Withdrawals   []models.WithdrawalNotice
	Recipients    []string
}

func (f *FakeNotifier) NotifyNewRegistration(_ context.Context, email string, n models.RegistrationNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Recipients = append(f.Recipients, email)
	f.Registrations = append(f.Registrations, n)
	return f.Err
}

func (f *FakeNotifier) NotifyWithdrawal(_ context.Context, email string, n models.WithdrawalNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Recipients = append(f.Recipients, email)
	f.Withdrawals = append(f.Withdrawals, n)
	return f.Err
}

type PanickingNotifier struct{}

func (PanickingNotifier) NotifyNewRegistration(context.Context, string, models.RegistrationNotice) error {
	panic("mailer exploded")
}

func (PanickingNotifier) NotifyWithdrawal(context.Context, string, models.WithdrawalNotice) error {
	panic("mailer exploded")
}

type FakeSubscriptions struct {
	GetSubscriptionStatusFunc func(ctx context.Context, userID string) (models.SubscriptionStatus, error)
}

func (f *FakeSubscriptions) GetSubscriptionStatus(ctx context.Context, userID string) (models.SubscriptionStatus, error) {
	return f.GetSubscriptionStatusFunc(ctx, userID)
}

type FakeRefunds struct {
	CompletedRefundFunc func(ctx context.Context, registrationID string) (*models.Refund, error)
}

func (f *FakeRefunds) CompletedRefund(ctx context.Context, registrationID string) (*models.Refund, error) {
	return f.CompletedRefundFunc(ctx, registrationID)
}

type FakeStorage struct {
	PutFunc func(ctx context.Context, key string, upload media.Upload) (string, error)
	Keys    []string
}

func (f *FakeStorage) Put(ctx context.Context, key string, upload media.Upload) (string, error) {
	f.Keys = append(f.Keys, key)
	if f.PutFunc != nil {
		return f.PutFunc(ctx, key, upload)
	}
	return "https://cdn.chessfam.test/" + key, nil
}

// countingSeriesStore counts ListEditions calls to observe caching.
type countingSeriesStore struct {
	SeriesStore
	mu    sync.Mutex
	calls int
}

func (c *countingSeriesStore) ListEditions(ctx context.Context, parentID string) ([]models.Tournament, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.SeriesStore.ListEditions(ctx, parentID)
}

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(v time.Time) *time.Time { return &v }
func strPtr(v string) *string        { return &v }

type tournamentOpt func(*models.Tournament)

func addTournament(t *testing.T, store *repository.MemoryStore, opts ...tournamentOpt) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		ID:             uuid.NewString(),
		Name:           "Club Championship",
		Slug:           "club-championship-" + uuid.NewString()[:8],
		OrganizerID:    "organizer",
		StartDate:      fixedNow.Add(14 * 24 * time.Hour),
		Status:         models.TournamentUpcoming,
		ApprovalStatus: models.ApprovalApproved,
		PricingConfig:  models.PricingConfig{Currency: "USD"},
	}
	for _, opt := range opts {
		opt(tournament)
	}
	require.NoError(t, store.CreateTournament(context.Background(), tournament))
	return tournament
}

func addPlayer(t *testing.T, store *repository.MemoryStore, p models.Player) models.Player {
	t.Helper()
	if p.ExternalUserID == "" {
		p.ExternalUserID = uuid.NewString()
	}
	if p.Name == "" {
		p.Name = "Player " + p.ExternalUserID[:6]
	}
	if p.SubscriptionTier == "" {
		p.SubscriptionTier = models.TierFree
	}
	require.NoError(t, store.UpsertPlayers(context.Background(), []models.Player{p}))
	return p
}
