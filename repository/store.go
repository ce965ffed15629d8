package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chessfam/apperrors"
	"chessfam/models"
)

// GormStore is the Postgres implementation of every store the services use.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

type counterRow struct {
	CurrentParticipants int
}

func (s *GormStore) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	// Postgres rejects malformed uuids with a syntax error; treat them as unknown.
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrTournamentNotFound
	}
	var t models.Tournament
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %s: %w", id, err)
	}
	return &t, nil
}

func (s *GormStore) HasRegistration(ctx context.Context, tournamentID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Count(&count).Error
	return count > 0, err
}

// CreateRegistration inserts the row first so the unique index rejects
// duplicates, then claims a seat with a conditional increment. Either failure
// rolls the whole transaction back.
func (s *GormStore) CreateRegistration(ctx context.Context, reg *models.Registration) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}

		var rows []counterRow
		err := tx.Raw(`UPDATE tournaments
			SET current_participants = current_participants + 1, updated_at = ?
			WHERE id = ? AND (max_participants IS NULL OR current_participants < max_participants)
			RETURNING current_participants`, time.Now(), reg.TournamentID).
			Scan(&rows).Error
		if err != nil {
			if errors.Is(err, gorm.ErrCheckConstraintViolated) {
				return apperrors.ErrCapacityExceeded
			}
			return fmt.Errorf("increment participants: %w", err)
		}
		if len(rows) == 0 {
			return s.missingOrFull(tx, reg.TournamentID)
		}
		count = rows[0].CurrentParticipants
		return nil
	})
	return count, err
}

// missingOrFull tells a vanished tournament apart from a full one after the
// guarded increment matched nothing.
func (s *GormStore) missingOrFull(tx *gorm.DB, tournamentID string) error {
	var n int64
	if err := tx.Model(&models.Tournament{}).Where("id = ?", tournamentID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrTournamentNotFound
	}
	return apperrors.ErrCapacityExceeded
}

func (s *GormStore) DeleteRegistration(ctx context.Context, tournamentID, userID string) (*models.Registration, int, error) {
	var (
		removed []models.Registration
		count   int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.Returning{}).
			Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
			Delete(&removed)
		if res.Error != nil {
			return fmt.Errorf("delete registration: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRegistrationNotFound
		}

		var rows []counterRow
		err := tx.Raw(`UPDATE tournaments
			SET current_participants = current_participants - 1, updated_at = ?
			WHERE id = ? AND current_participants > 0
			RETURNING current_participants`, time.Now(), tournamentID).
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("decrement participants: %w", err)
		}
		if len(rows) > 0 {
			count = rows[0].CurrentParticipants
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &removed[0], count, nil
}

func (s *GormStore) MarkRegistrationPaid(ctx context.Context, registrationID, reference string, paidAt time.Time) (*models.Registration, error) {
	if _, err := uuid.Parse(registrationID); err != nil {
		return nil, apperrors.ErrRegistrationNotFound
	}
	var updated []models.Registration
	err := s.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", registrationID).
		Updates(map[string]interface{}{
			"payment_status":    models.PaymentPaid,
			"payment_reference": reference,
			"paid_at":           paidAt,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("mark registration paid: %w", err)
	}
	if len(updated) == 0 {
		return nil, apperrors.ErrRegistrationNotFound
	}
	return &updated[0], nil
}

// Registrations lists the live registrations of a tournament.
func (s *GormStore) Registrations(ctx context.Context, tournamentID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("registered_at ASC").
		Find(&regs).Error
	return regs, err
}
