package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chessfam/apperrors"
	"chessfam/models"
)

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.Player, error) {
	var p models.Player
	if err := s.db.WithContext(ctx).First(&p, "external_user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("load player %s: %w", userID, err)
	}
	return &p, nil
}

// SearchPlayers matches query against name and email, case-insensitively.
// An empty query lists players by name.
func (s *GormStore) SearchPlayers(ctx context.Context, query string, limit int) ([]models.Player, error) {
	db := s.db.WithContext(ctx).Model(&models.Player{}).Order("name").Limit(limit)
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		term := "%" + query + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var players []models.Player
	if err := db.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return players, nil
}

// GetSubscriptionStatus prefers the mirrored subscription and falls back to
// the tier copied onto the player record.
func (s *GormStore) GetSubscriptionStatus(ctx context.Context, userID string) (models.SubscriptionStatus, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error
	if err == nil {
		return sub.StatusAt(time.Now()), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SubscriptionStatus{}, fmt.Errorf("load subscription %s: %w", userID, err)
	}

	p, err := s.GetUser(ctx, userID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return models.SubscriptionStatus{Tier: models.TierFree}, nil
	}
	if err != nil {
		return models.SubscriptionStatus{}, err
	}
	return models.SubscriptionStatus{Tier: p.SubscriptionTier, InTrial: p.InTrial}, nil
}

func (s *GormStore) CompletedRefund(ctx context.Context, registrationID string) (*models.Refund, error) {
	var refund models.Refund
	err := s.db.WithContext(ctx).
		Where("registration_id = ? AND status = ?", registrationID, models.RefundCompleted).
		Order("completed_at DESC").
		First(&refund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load refund for %s: %w", registrationID, err)
	}
	return &refund, nil
}

// UpsertPlayers writes players keyed by external_user_id in one statement.
func (s *GormStore) UpsertPlayers(ctx context.Context, players []models.Player) error {
	players = latestByKey(players,
		func(p models.Player) string { return p.ExternalUserID },
		func(p models.Player) time.Time { return p.UpdatedAt })
	if len(players) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "email", "rating", "is_admin", "subscription_tier", "in_trial",
			"birth_date", "fide_title", "gender", "updated_at",
		}),
	}).Create(&players).Error
}

// UpsertSubscriptions writes subscriptions keyed by user_id in one statement.
func (s *GormStore) UpsertSubscriptions(ctx context.Context, subs []models.Subscription) error {
	subs = latestByKey(subs,
		func(sub models.Subscription) string { return sub.UserID },
		func(sub models.Subscription) time.Time { return sub.UpdatedAt })
	if len(subs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "status", "trial_ends_at", "current_period_end", "updated_at",
		}),
	}).Create(&subs).Error
}

// latestByKey keeps one item per key, the one with the newest update time.
// Postgres rejects an ON CONFLICT batch that touches the same row twice.
func latestByKey[T any](items []T, key func(T) string, updatedAt func(T) time.Time) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			if !updatedAt(item).Before(updatedAt(out[i])) {
				out[i] = item
			}
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// LatestPlayerUpdate is the watermark for incremental player syncs.
func (s *GormStore) LatestPlayerUpdate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	row := s.db.WithContext(ctx).Model(&models.Player{}).Select("MAX(updated_at)").Row()
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, err
	}
	return latest.Time, nil
}

// LatestSubscriptionUpdate is the watermark for incremental subscription syncs.
func (s *GormStore) LatestSubscriptionUpdate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	row := s.db.WithContext(ctx).Model(&models.Subscription{}).Select("MAX(updated_at)").Row()
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, err
	}
	return latest.Time, nil
}
