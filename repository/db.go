package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"chessfam/models"
)

const capacityConstraint = "chk_tournaments_capacity"

// Open connects to Postgres. Driver errors are translated so duplicate keys
// and check violations surface as gorm.ErrDuplicatedKey and
// gorm.ErrCheckConstraintViolated.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate creates the schema, including the unique registration index and
// the capacity check backing the counter guard.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.Registration{},
		&models.Player{},
		&models.Subscription{},
		&models.Refund{},
		&models.TournamentReview{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if !db.Migrator().HasConstraint(&models.Tournament{}, capacityConstraint) {
		err := db.Exec(`ALTER TABLE tournaments ADD CONSTRAINT ` + capacityConstraint +
			` CHECK (current_participants >= 0 AND (max_participants IS NULL OR current_participants <= max_participants))`).Error
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", capacityConstraint, err)
		}
	}
	return nil
}
