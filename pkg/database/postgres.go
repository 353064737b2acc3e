package database

import (
	"fmt"

	"github.com/OpenReservation/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Place{}, &models.Period{}, &models.Reservation{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	// Partial unique index: at most one active reservation per slot. The
	// conflict guard re-checks under its lock; this is the storage-level
	// backstop for the same invariant.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reservation_active_slot
		ON reservations (place_id, for_date, period_id)
		WHERE status IN ('submitted', 'approved')
	`).Error; err != nil {
		return nil, fmt.Errorf("create active-slot index: %w", err)
	}

	return db, nil
}
