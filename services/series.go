package services

import (
	"context"
	"sort"
	"time"

	"chessfam/apperrors"
	"chessfam/cache"
	"chessfam/logger"
	"chessfam/models"
)

const (
	defaultReviewLimit = 10
	maxReviewLimit     = 50
)

type SeriesStats struct {
	ParentID          string              `json:"parent_id"`
	Name              string              `json:"name"`
	TotalEditions     int                 `json:"total_editions"`
	TotalParticipants int                 `json:"total_participants"`
	PastEditions      []models.Tournament `json:"past_editions"`
	UpcomingEditions  []models.Tournament `json:"upcoming_editions"`
	NextEdition       *models.Tournament  `json:"next_edition"`
}

type SeriesImage struct {
	TournamentID string `json:"tournament_id"`
	URL          string `json:"url"`
	Kind         string `json:"kind"`
}

type SeriesReviews struct {
	Reviews       []models.TournamentReview `json:"reviews"`
	Page          int                       `json:"page"`
	Limit         int                       `json:"limit"`
	Total         int64                     `json:"total"`
	AverageRating float64                   `json:"average_rating"`
}

// SeriesAggregator builds read-only rollups over a series parent and its
// editions.
type SeriesAggregator struct {
	store    SeriesStore
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewSeriesAggregator(store SeriesStore, c cache.Cache, ttl time.Duration, log *logger.Logger) *SeriesAggregator {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SeriesAggregator{store: store, cache: c, cacheTTL: ttl, now: time.Now, log: log}
}

// resolveParent maps an edition to its parent. A parent resolves to itself.
func (a *SeriesAggregator) resolveParent(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := a.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsSeriesParent {
		return t, nil
	}
	if t.ParentTournamentID == nil {
		return nil, apperrors.ErrNotInSeries
	}
	return a.store.GetTournament(ctx, *t.ParentTournamentID)
}

func seriesStatsKey(parentID string) string {
	return "series:stats:" + parentID
}

// Stats is cached per parent for the aggregator's TTL.
func (a *SeriesAggregator) Stats(ctx context.Context, id string) (*SeriesStats, error) {
	parent, err := a.resolveParent(ctx, id)
	if err != nil {
		return nil, err
	}
	return cache.UseCache(ctx, a.cache, seriesStatsKey(parent.ID), a.cacheTTL, func() (*SeriesStats, error) {
		return a.buildStats(ctx, parent)
	})
}

func (a *SeriesAggregator) buildStats(ctx context.Context, parent *models.Tournament) (*SeriesStats, error) {
	editions, err := a.store.ListEditions(ctx, parent.ID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	stats := &SeriesStats{
		ParentID:         parent.ID,
		Name:             parent.Name,
		TotalEditions:    len(editions),
		PastEditions:     []models.Tournament{},
		UpcomingEditions: []models.Tournament{},
	}
	for _, e := range editions {
		stats.TotalParticipants += e.CurrentParticipants
		if e.StartDate.Before(now) || e.Status == models.TournamentCompleted {
			stats.PastEditions = append(stats.PastEditions, e)
		} else {
			stats.UpcomingEditions = append(stats.UpcomingEditions, e)
		}
	}

	sort.SliceStable(stats.UpcomingEditions, func(i, j int) bool {
		return stats.UpcomingEditions[i].StartDate.Before(stats.UpcomingEditions[j].StartDate)
	})
	sort.SliceStable(stats.PastEditions, func(i, j int) bool {
		return stats.PastEditions[i].StartDate.After(stats.PastEditions[j].StartDate)
	})
	if len(stats.UpcomingEditions) > 0 {
		next := stats.UpcomingEditions[0]
		stats.NextEdition = &next
	}
	return stats, nil
}

// Images lists the parent cover followed by each edition's cover and gallery.
func (a *SeriesAggregator) Images(ctx context.Context, id string) ([]SeriesImage, error) {
	parent, err := a.resolveParent(ctx, id)
	if err != nil {
		return nil, err
	}
	editions, err := a.store.ListEditions(ctx, parent.ID)
	if err != nil {
		return nil, err
	}

	images := []SeriesImage{}
	if parent.CoverImageURL != "" {
		images = append(images, SeriesImage{TournamentID: parent.ID, URL: parent.CoverImageURL, Kind: "cover"})
	}
	for _, e := range editions {
		if e.CoverImageURL != "" {
			images = append(images, SeriesImage{TournamentID: e.ID, URL: e.CoverImageURL, Kind: "cover"})
		}
		for _, url := range e.GalleryImages {
			if url != "" {
				images = append(images, SeriesImage{TournamentID: e.ID, URL: url, Kind: "gallery"})
			}
		}
	}
	return images, nil
}

// Reviews pages through reviews of every edition, newest first.
func (a *SeriesAggregator) Reviews(ctx context.Context, id string, page, limit int) (*SeriesReviews, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}

	parent, err := a.resolveParent(ctx, id)
	if err != nil {
		return nil, err
	}
	editions, err := a.store.ListEditions(ctx, parent.ID)
	if err != nil {
		return nil, err
	}

	result := &SeriesReviews{Reviews: []models.TournamentReview{}, Page: page, Limit: limit}
	if len(editions) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(editions))
	for _, e := range editions {
		ids = append(ids, e.ID)
	}

	total, avg, err := a.store.ReviewSummary(ctx, ids)
	if err != nil {
		return nil, err
	}
	reviews, err := a.store.ListReviews(ctx, ids, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	result.Total = total
	result.AverageRating = round2(avg)
	if reviews != nil {
		result.Reviews = reviews
	}
	return result, nil
}
