package repository

import (
	"context"
	"errors"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var activeStatuses = []models.ReservationStatus{models.StatusSubmitted, models.StatusApproved}

type reservationStore struct {
	db *gorm.DB
}

func NewReservationStore(db *gorm.DB) ReservationStore {
	return &reservationStore{db: db}
}

func (s *reservationStore) LoadActive(ctx context.Context, placeID string, date time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Where("place_id = ? AND for_date = ? AND status IN ?", placeID, models.DateOnly(date), activeStatuses).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reservationStore) ActiveBySlot(ctx context.Context, placeID string, date time.Time, periodID string) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).
		Where("place_id = ? AND for_date = ? AND period_id = ? AND status IN ?",
			placeID, models.DateOnly(date), periodID, activeStatuses).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *reservationStore) Create(ctx context.Context, r *models.Reservation) error {
	err := s.db.WithContext(ctx).Create(r).Error
	if isUniqueViolation(err) {
		return ErrDuplicateSlot
	}
	return err
}

func (s *reservationStore) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *reservationStore) UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing row from a lost status race.
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Reservation{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

func (s *reservationStore) List(ctx context.Context, f ReservationFilter, page, pageSize int) ([]models.Reservation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Reservation{})
	if f.Date != nil {
		q = q.Where("for_date = ?", models.DateOnly(*f.Date))
	}
	if f.Phone != "" {
		q = q.Where("person_phone = ?", f.Phone)
	}
	if f.PlaceID != "" {
		q = q.Where("place_id = ?", f.PlaceID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Reservation
	err := q.Order("for_date DESC, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// isUniqueViolation reports whether err is a postgres unique-index violation
// (SQLSTATE 23505), which here can only be the active-slot index.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
