package repository

import (
	"context"
	"errors"

	"github.com/OpenReservation/reservation-service/internal/models"
	"gorm.io/gorm"
)

type placeStore struct {
	db *gorm.DB
}

func NewPlaceStore(db *gorm.DB) PlaceStore {
	return &placeStore{db: db}
}

func (s *placeStore) ListActive(ctx context.Context) ([]models.Place, error) {
	var out []models.Place
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PlaceActive).
		Order("index ASC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *placeStore) FindByID(ctx context.Context, id string) (*models.Place, error) {
	var p models.Place
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type periodStore struct {
	db *gorm.DB
}

func NewPeriodStore(db *gorm.DB) PeriodStore {
	return &periodStore{db: db}
}

func (s *periodStore) ListForPlace(ctx context.Context, placeID string) ([]models.Period, error) {
	var out []models.Period
	err := s.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Order("index ASC, start_minute ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}

	// Fall back to the global catalog shared by all places.
	err = s.db.WithContext(ctx).
		Where("place_id IS NULL").
		Order("index ASC, start_minute ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
