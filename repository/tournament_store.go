package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chessfam/apperrors"
	"chessfam/models"
)

// Columns organizers may never overwrite through UpdateTournament.
var protectedColumns = []string{
	"id", "slug", "organizer_id", "status", "approval_status", "current_participants", "created_at",
}

func (s *GormStore) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.New(apperrors.CodeConflict, "a tournament with this slug already exists")
		}
		return fmt.Errorf("create tournament: %w", err)
	}
	return nil
}

// UpdateTournament writes the editable columns only while the tournament is
// still upcoming. The participant counter is never written from here.
func (s *GormStore) UpdateTournament(ctx context.Context, t *models.Tournament) error {
	res := s.db.WithContext(ctx).Model(t).
		Where("status = ?", models.TournamentUpcoming).
		Select("*").
		Omit(protectedColumns...).
		Updates(t)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrCheckConstraintViolated) {
			return apperrors.Validation("max_participants cannot be below current participants")
		}
		return fmt.Errorf("update tournament %s: %w", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTournament(ctx, t.ID); err != nil {
			return err
		}
		return apperrors.ErrTournamentLocked
	}
	return nil
}

// DeleteTournament removes the tournament only if no registration refers to
// it, in a single statement.
func (s *GormStore) DeleteTournament(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.ErrTournamentNotFound
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM registrations r WHERE r.tournament_id = ?)", id, id).
		Delete(&models.Tournament{})
	if res.Error != nil {
		return fmt.Errorf("delete tournament %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTournament(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrTournamentHasRegistrations
	}
	return nil
}

func (s *GormStore) SetApproval(ctx context.Context, id string, status models.ApprovalStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.ErrTournamentNotFound
	}
	res := s.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Update("approval_status", status)
	if res.Error != nil {
		return fmt.Errorf("set approval for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTournamentNotFound
	}
	return nil
}

func (s *GormStore) publicScope(db *gorm.DB) *gorm.DB {
	return db.Where("approval_status = ? AND is_series_parent = ? AND is_festival_parent = ?",
		models.ApprovalApproved, false, false)
}

func (s *GormStore) ListPublic(ctx context.Context, offset, limit int) ([]models.Tournament, int64, error) {
	var total int64
	base := s.db.WithContext(ctx).Model(&models.Tournament{}).Scopes(s.publicScope)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tournaments []models.Tournament
	err := s.db.WithContext(ctx).Scopes(s.publicScope).
		Order("start_date ASC").
		Offset(offset).
		Limit(limit).
		Find(&tournaments).Error
	return tournaments, total, err
}

func (s *GormStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Tournament{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

// AdvanceStatuses runs one conditional UPDATE per transition. Tournaments
// without an end date complete a day after they start.
func (s *GormStore) AdvanceStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	db := s.db.WithContext(ctx)

	started := db.Model(&models.Tournament{}).
		Where("status = ? AND start_date <= ?", models.TournamentUpcoming, now).
		Update("status", models.TournamentOngoing)
	if started.Error != nil {
		return 0, 0, fmt.Errorf("start tournaments: %w", started.Error)
	}

	completed := db.Model(&models.Tournament{}).
		Where("status = ?", models.TournamentOngoing).
		Where("(end_date IS NOT NULL AND end_date < ?) OR (end_date IS NULL AND start_date < ?)",
			now, now.Add(-24*time.Hour)).
		Update("status", models.TournamentCompleted)
	if completed.Error != nil {
		return started.RowsAffected, 0, fmt.Errorf("complete tournaments: %w", completed.Error)
	}
	return started.RowsAffected, completed.RowsAffected, nil
}

func (s *GormStore) ListEditions(ctx context.Context, parentID string) ([]models.Tournament, error) {
	var editions []models.Tournament
	err := s.db.WithContext(ctx).
		Where("parent_tournament_id = ? AND is_series_parent = ? AND is_festival_parent = ?", parentID, false, false).
		Order("start_date ASC").
		Find(&editions).Error
	return editions, err
}

func (s *GormStore) ListReviews(ctx context.Context, tournamentIDs []string, offset, limit int) ([]models.TournamentReview, error) {
	var reviews []models.TournamentReview
	err := s.db.WithContext(ctx).
		Where("tournament_id IN ?", tournamentIDs).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

func (s *GormStore) ReviewSummary(ctx context.Context, tournamentIDs []string) (int64, float64, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := s.db.WithContext(ctx).Model(&models.TournamentReview{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("tournament_id IN ?", tournamentIDs).
		Scan(&row).Error
	return row.Count, row.Average, err
}

func (s *GormStore) AddReview(ctx context.Context, review *models.TournamentReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(review).Error
}
