//go:build integration

package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"chessfam/apperrors"
	"chessfam/models"
)

func setupPostgres(t *testing.T) *GormStore {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chessfam"),
		postgres.WithUsername("chessfam"),
		postgres.WithPassword("chessfam"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewGormStore(db)
}

func createTournament(t *testing.T, store *GormStore, max *int) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Name:            gofakeit.Company() + " Open",
		Slug:            "open-" + uuid.NewString(),
		OrganizerID:     uuid.NewString(),
		StartDate:       time.Now().Add(7 * 24 * time.Hour),
		Status:          models.TournamentUpcoming,
		ApprovalStatus:  models.ApprovalApproved,
		MaxParticipants: max,
		PricingConfig:   models.PricingConfig{EntryFee: 25, Currency: "USD"},
	}
	require.NoError(t, store.CreateTournament(context.Background(), tournament))
	return tournament
}

func registration(tournamentID string) *models.Registration {
	return &models.Registration{
		ID:               uuid.NewString(),
		TournamentID:     tournamentID,
		UserID:           uuid.NewString(),
		PlayerName:       gofakeit.Name(),
		PlayerEmail:      gofakeit.Email(),
		EntryFee:         25,
		OriginalEntryFee: 25,
		Currency:         "USD",
		PaymentStatus:    models.PaymentPending,
		RegisteredAt:     time.Now(),
	}
}

func TestGormStoreRegistrationLifecycle(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	t.Run("counter follows register and withdraw", func(t *testing.T) {
		tournament := createTournament(t, store, nil)
		reg := registration(tournament.ID)

		count, err := store.CreateRegistration(ctx, reg)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		dup := registration(tournament.ID)
		dup.UserID = reg.UserID
		_, err = store.CreateRegistration(ctx, dup)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

		removed, count, err := store.DeleteRegistration(ctx, tournament.ID, reg.UserID)
		require.NoError(t, err)
		assert.Equal(t, reg.ID, removed.ID)
		assert.Equal(t, 0, count)

		_, _, err = store.DeleteRegistration(ctx, tournament.ID, reg.UserID)
		assert.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		_, err := store.CreateRegistration(ctx, registration(uuid.NewString()))
		assert.ErrorIs(t, err, apperrors.ErrTournamentNotFound)
	})

	t.Run("concurrent registrations never exceed capacity", func(t *testing.T) {
		capacity := 3
		tournament := createTournament(t, store, &capacity)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			ok, full int
		)
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.CreateRegistration(ctx, registration(tournament.ID))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case apperrors.IsCode(err, apperrors.CodeCapacityExceeded):
					full++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.GetTournament(ctx, tournament.ID)
		require.NoError(t, err)
		regs, err := store.Registrations(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, capacity, ok)
		assert.Equal(t, 12-capacity, full)
		assert.Equal(t, capacity, got.CurrentParticipants)
		assert.Len(t, regs, capacity)
	})

	t.Run("mark paid", func(t *testing.T) {
		tournament := createTournament(t, store, nil)
		reg := registration(tournament.ID)
		_, err := store.CreateRegistration(ctx, reg)
		require.NoError(t, err)

		paid, err := store.MarkRegistrationPaid(ctx, reg.ID, "pi_123", time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
		assert.Equal(t, "pi_123", paid.PaymentReference)

		_, err = store.MarkRegistrationPaid(ctx, uuid.NewString(), "pi_404", time.Now())
		assert.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)
	})
}

func TestGormStoreTournamentManagement(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	tournament := createTournament(t, store, nil)
	_, err := store.CreateRegistration(ctx, registration(tournament.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteTournament(ctx, tournament.ID), apperrors.ErrTournamentHasRegistrations)

	zero := 0
	tournament.MaxParticipants = &zero
	err = store.UpdateTournament(ctx, tournament)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), fmt.Sprint(err))

	exists, err := store.SlugExists(ctx, tournament.Slug)
	require.NoError(t, err)
	assert.True(t, exists)

	started, _, err := store.AdvanceStatuses(ctx, tournament.StartDate.Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, started, int64(1))

	tournament.MaxParticipants = nil
	assert.ErrorIs(t, store.UpdateTournament(ctx, tournament), apperrors.ErrTournamentLocked)
}

func TestGormStoreDirectory(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	rating := 1820
	player := models.Player{
		ExternalUserID:   uuid.NewString(),
		Name:             gofakeit.Name(),
		Email:            gofakeit.Email(),
		Rating:           &rating,
		SubscriptionTier: "premium",
		UpdatedAt:        time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.UpsertPlayers(ctx, []models.Player{player}))

	got, err := store.GetUser(ctx, player.ExternalUserID)
	require.NoError(t, err)
	assert.Equal(t, 1820, got.EffectiveRating())

	status, err := store.GetSubscriptionStatus(ctx, player.ExternalUserID)
	require.NoError(t, err)
	assert.True(t, status.IsPremium())

	_, err = store.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	refund, err := store.CompletedRefund(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, refund)

	renamed := player
	renamed.Name = "Renamed"
	renamed.UpdatedAt = player.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.UpsertPlayers(ctx, []models.Player{player, renamed}))
	got, err = store.GetUser(ctx, player.ExternalUserID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	found, err := store.SearchPlayers(ctx, strings.ToUpper(player.Email), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, player.ExternalUserID, found[0].ExternalUserID)
}
