package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chessfam/apperrors"
	"chessfam/models"
)

// MemoryStore keeps everything in process. It enforces the same uniqueness
// and counter rules as GormStore and is used by tests and local runs.
type MemoryStore struct {
	mu            sync.Mutex
	tournaments   map[string]models.Tournament
	registrations map[string]models.Registration
	players       map[string]models.Player
	subscriptions map[string]models.Subscription
	refunds       []models.Refund
	reviews       []models.TournamentReview
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments:   make(map[string]models.Tournament),
		registrations: make(map[string]models.Registration),
		players:       make(map[string]models.Player),
		subscriptions: make(map[string]models.Subscription),
	}
}

func regKey(tournamentID, userID string) string {
	return tournamentID + "/" + userID
}

func copyTournament(t models.Tournament) *models.Tournament {
	t.GalleryImages = append([]string(nil), t.GalleryImages...)
	t.EarlyBirdPricing = append([]models.EarlyBirdTier(nil), t.EarlyBirdPricing...)
	return &t
}

func (m *MemoryStore) GetTournament(_ context.Context, id string) (*models.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, apperrors.ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (m *MemoryStore) HasRegistration(_ context.Context, tournamentID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registrations[regKey(tournamentID, userID)]
	return ok, nil
}

func (m *MemoryStore) CreateRegistration(_ context.Context, reg *models.Registration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := regKey(reg.TournamentID, reg.UserID)
	if _, ok := m.registrations[key]; ok {
		return 0, apperrors.ErrAlreadyRegistered
	}
	t, ok := m.tournaments[reg.TournamentID]
	if !ok {
		return 0, apperrors.ErrTournamentNotFound
	}
	if !t.HasCapacity() {
		return 0, apperrors.ErrCapacityExceeded
	}

	t.CurrentParticipants++
	t.UpdatedAt = time.Now()
	m.tournaments[t.ID] = t
	m.registrations[key] = *reg
	return t.CurrentParticipants, nil
}

func (m *MemoryStore) DeleteRegistration(_ context.Context, tournamentID, userID string) (*models.Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := regKey(tournamentID, userID)
	reg, ok := m.registrations[key]
	if !ok {
		return nil, 0, apperrors.ErrRegistrationNotFound
	}
	delete(m.registrations, key)

	t, ok := m.tournaments[tournamentID]
	if !ok {
		return &reg, 0, nil
	}
	if t.CurrentParticipants > 0 {
		t.CurrentParticipants--
		m.tournaments[t.ID] = t
	}
	return &reg, t.CurrentParticipants, nil
}

func (m *MemoryStore) MarkRegistrationPaid(_ context.Context, registrationID, reference string, paidAt time.Time) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, reg := range m.registrations {
		if reg.ID != registrationID {
			continue
		}
		reg.PaymentStatus = models.PaymentPaid
		reg.PaymentReference = reference
		reg.PaidAt = &paidAt
		m.registrations[key] = reg
		return &reg, nil
	}
	return nil, apperrors.ErrRegistrationNotFound
}

// Registrations lists the live registrations of a tournament.
func (m *MemoryStore) Registrations(_ context.Context, tournamentID string) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Registration
	for _, reg := range m.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out, nil
}

func (m *MemoryStore) CreateTournament(_ context.Context, t *models.Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tournaments {
		if existing.Slug != "" && existing.Slug == t.Slug {
			return apperrors.New(apperrors.CodeConflict, "a tournament with this slug already exists")
		}
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	m.tournaments[t.ID] = *copyTournament(*t)
	return nil
}

func (m *MemoryStore) UpdateTournament(_ context.Context, t *models.Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.tournaments[t.ID]
	if !ok {
		return apperrors.ErrTournamentNotFound
	}
	if current.Status != models.TournamentUpcoming {
		return apperrors.ErrTournamentLocked
	}
	if t.MaxParticipants != nil && current.CurrentParticipants > *t.MaxParticipants {
		return apperrors.Validation("max_participants cannot be below current participants")
	}

	next := *copyTournament(*t)
	next.Slug = current.Slug
	next.OrganizerID = current.OrganizerID
	next.Status = current.Status
	next.ApprovalStatus = current.ApprovalStatus
	next.CurrentParticipants = current.CurrentParticipants
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now()
	m.tournaments[t.ID] = next
	return nil
}

func (m *MemoryStore) DeleteTournament(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tournaments[id]; !ok {
		return apperrors.ErrTournamentNotFound
	}
	for _, reg := range m.registrations {
		if reg.TournamentID == id {
			return apperrors.ErrTournamentHasRegistrations
		}
	}
	delete(m.tournaments, id)
	return nil
}

func (m *MemoryStore) SetApproval(_ context.Context, id string, status models.ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return apperrors.ErrTournamentNotFound
	}
	t.ApprovalStatus = status
	m.tournaments[id] = t
	return nil
}

func (m *MemoryStore) ListPublic(_ context.Context, offset, limit int) ([]models.Tournament, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var public []models.Tournament
	for _, t := range m.tournaments {
		if t.ApprovalStatus == models.ApprovalApproved && !t.IsContainer() {
			public = append(public, *copyTournament(t))
		}
	}
	sort.Slice(public, func(i, j int) bool { return public[i].StartDate.Before(public[j].StartDate) })
	return paginate(public, offset, limit), int64(len(public)), nil
}

func (m *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tournaments {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) AdvanceStatuses(_ context.Context, now time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var started, completed int64
	for id, t := range m.tournaments {
		if t.Status == models.TournamentUpcoming && !t.StartDate.After(now) {
			t.Status = models.TournamentOngoing
			started++
		}
		if t.Status == models.TournamentOngoing {
			if (t.EndDate != nil && t.EndDate.Before(now)) ||
				(t.EndDate == nil && t.StartDate.Before(now.Add(-24*time.Hour))) {
				t.Status = models.TournamentCompleted
				completed++
			}
		}
		m.tournaments[id] = t
	}
	return started, completed, nil
}

func (m *MemoryStore) ListEditions(_ context.Context, parentID string) ([]models.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var editions []models.Tournament
	for _, t := range m.tournaments {
		if t.ParentTournamentID != nil && *t.ParentTournamentID == parentID && !t.IsContainer() {
			editions = append(editions, *copyTournament(t))
		}
	}
	sort.Slice(editions, func(i, j int) bool { return editions[i].StartDate.Before(editions[j].StartDate) })
	return editions, nil
}

func (m *MemoryStore) reviewsFor(ids []string) []models.TournamentReview {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.TournamentReview
	for _, r := range m.reviews {
		if wanted[r.TournamentID] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) ListReviews(_ context.Context, tournamentIDs []string, offset, limit int) ([]models.TournamentReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return paginate(m.reviewsFor(tournamentIDs), offset, limit), nil
}

func (m *MemoryStore) ReviewSummary(_ context.Context, tournamentIDs []string) (int64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reviews := m.reviewsFor(tournamentIDs)
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return int64(len(reviews)), float64(sum) / float64(len(reviews)), nil
}

func (m *MemoryStore) AddReview(_ context.Context, review *models.TournamentReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &p, nil
}

func (m *MemoryStore) SearchPlayers(_ context.Context, query string, limit int) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	query = strings.ToLower(strings.TrimSpace(query))
	var out []models.Player
	for _, p := range m.players {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Email), query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, 0, limit), nil
}

func (m *MemoryStore) GetSubscriptionStatus(_ context.Context, userID string) (models.SubscriptionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscriptions[userID]; ok {
		return sub.StatusAt(time.Now()), nil
	}
	if p, ok := m.players[userID]; ok {
		return models.SubscriptionStatus{Tier: p.SubscriptionTier, InTrial: p.InTrial}, nil
	}
	return models.SubscriptionStatus{Tier: models.TierFree}, nil
}

func (m *MemoryStore) CompletedRefund(_ context.Context, registrationID string) (*models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.refunds) - 1; i >= 0; i-- {
		r := m.refunds[i]
		if r.RegistrationID == registrationID && r.Status == models.RefundCompleted {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpsertPlayers(_ context.Context, players []models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		m.players[p.ExternalUserID] = p
	}
	return nil
}

func (m *MemoryStore) UpsertSubscriptions(_ context.Context, subs []models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range subs {
		m.subscriptions[s.UserID] = s
	}
	return nil
}

func (m *MemoryStore) LatestPlayerUpdate(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, p := range m.players {
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	return latest, nil
}

func (m *MemoryStore) LatestSubscriptionUpdate(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, s := range m.subscriptions {
		if s.UpdatedAt.After(latest) {
			latest = s.UpdatedAt
		}
	}
	return latest, nil
}

// AddRefund records a refund as the payment collaborator would.
func (m *MemoryStore) AddRefund(refund models.Refund) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, refund)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
