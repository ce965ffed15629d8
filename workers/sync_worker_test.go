package workers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessfam/models"
	"chessfam/repository"
)

type feedServer struct {
	mu     sync.Mutex
	since  []string
	tokens []string
	status int
	body   any
}

func (f *feedServer) handler(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		f.since = append(f.since, r.URL.Query().Get("since"))
		f.tokens = append(f.tokens, r.Header.Get("X-Service-Token"))
		status, body := f.status, f.body
		f.mu.Unlock()

		if status != 0 && status != http.StatusOK {
			http.Error(w, "unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}

func strPtr(v string) *string { return &v }

func TestPlayerSyncWorkerUpsertsProfiles(t *testing.T) {
	updated := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	feed := &feedServer{body: profileChanges{Users: []RemoteProfile{
		{
			ExternalID: "u-1", Username: "hikaru", Email: "h@chessfam.test",
			FirstName: strPtr("Hikaru"), LastName: strPtr("N"),
			FideTitle: " gm ", Gender: "Male", SubscriptionTier: "premium", UpdatedAt: updated,
		},
		{ExternalID: "u-2", Username: "newbie", UpdatedAt: updated.Add(-time.Hour)},
		{Username: "no-id"},
	}}}
	server := httptest.NewServer(feed.handler(profilesPath))
	defer server.Close()

	store := repository.NewMemoryStore()
	worker := NewPlayerSyncWorker(NewSyncClient(server.URL, "svc-token"), store, time.Minute, nil, nil)

	require.NoError(t, worker.SyncOnce(context.Background()))

	hikaru, err := store.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Hikaru N", hikaru.Name)
	assert.Equal(t, models.TitleGM, hikaru.FideTitle)
	assert.Equal(t, "male", hikaru.Gender)
	assert.Equal(t, "premium", hikaru.SubscriptionTier)

	newbie, err := store.GetUser(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, "newbie", newbie.Name)
	assert.Equal(t, models.TierFree, newbie.SubscriptionTier)

	require.NoError(t, worker.SyncOnce(context.Background()))
	require.Len(t, feed.since, 2)
	assert.Equal(t, "0001-01-01T00:00:00Z", feed.since[0])
	assert.Equal(t, updated.Format(time.RFC3339), feed.since[1])
	assert.Equal(t, []string{"svc-token", "svc-token"}, feed.tokens)
}

type failingPlayerStore struct {
	*repository.MemoryStore
}

func (failingPlayerStore) UpsertPlayers(context.Context, []models.Player) error {
	return errors.New("deadlock detected")
}

func TestPlayerSyncWorkerKeepsWatermarkOnFailure(t *testing.T) {
	feed := &feedServer{body: profileChanges{Users: []RemoteProfile{
		{ExternalID: "u-1", Username: "a", UpdatedAt: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)},
	}}}
	server := httptest.NewServer(feed.handler(profilesPath))
	defer server.Close()

	store := failingPlayerStore{repository.NewMemoryStore()}
	worker := NewPlayerSyncWorker(NewSyncClient(server.URL, "t"), store, time.Minute, nil, nil)

	assert.Error(t, worker.SyncOnce(context.Background()))
	assert.Error(t, worker.SyncOnce(context.Background()))
	assert.Equal(t, feed.since[0], feed.since[1])
}

func TestPlayerSyncWorkerNonOK(t *testing.T) {
	feed := &feedServer{status: http.StatusBadGateway}
	server := httptest.NewServer(feed.handler(profilesPath))
	defer server.Close()

	worker := NewPlayerSyncWorker(NewSyncClient(server.URL, "t"), repository.NewMemoryStore(), time.Minute, nil, nil)
	err := worker.SyncOnce(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestSubscriptionSyncWorker(t *testing.T) {
	trialEnds := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	feed := &feedServer{body: subscriptionChanges{Subscriptions: []RemoteSubscription{
		{UserID: "u-1", Tier: "premium", Status: "trialing", TrialEndsAt: &trialEnds, UpdatedAt: time.Now().UTC()},
		{UserID: "u-2", Status: "canceled", UpdatedAt: time.Now().UTC()},
	}}}
	server := httptest.NewServer(feed.handler(subscriptionsPath))
	defer server.Close()

	store := repository.NewMemoryStore()
	worker := NewSubscriptionSyncWorker(NewSyncClient(server.URL, "t"), store, time.Minute, nil, nil)
	require.NoError(t, worker.SyncOnce(context.Background()))

	status, err := store.GetSubscriptionStatus(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, status.InTrial)
	assert.True(t, status.IsPremium())

	status, err = store.GetSubscriptionStatus(context.Background(), "u-2")
	require.NoError(t, err)
	assert.False(t, status.IsPremium())
}

func TestWorkerRunStopsWithContext(t *testing.T) {
	feed := &feedServer{body: subscriptionChanges{}}
	server := httptest.NewServer(feed.handler(subscriptionsPath))
	defer server.Close()

	worker := NewSubscriptionSyncWorker(NewSyncClient(server.URL, "t"), repository.NewMemoryStore(), time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		feed.mu.Lock()
		defer feed.mu.Unlock()
		return len(feed.since) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
