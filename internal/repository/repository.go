package repository

import (
	"context"
	"errors"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by id matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlot is returned when an insert collides with an existing
	// active reservation for the same (place, date, period).
	ErrDuplicateSlot = errors.New("slot already has an active reservation")
	// ErrStaleStatus is returned when a conditional status update finds the
	// reservation no longer in the expected status.
	ErrStaleStatus = errors.New("reservation status changed concurrently")
)

// ReservationFilter is the statically-typed query surface for listing
// reservations. Nil/empty fields are ignored; the store resolves the rest
// into its own query mechanism.
type ReservationFilter struct {
	Date    *time.Time
	Phone   string
	PlaceID string
	Status  *models.ReservationStatus
}

type ReservationStore interface {
	// LoadActive returns the reservations occupying slots for (place, date),
	// i.e. those with status submitted or approved.
	LoadActive(ctx context.Context, placeID string, date time.Time) ([]models.Reservation, error)
	// ActiveBySlot returns the active reservation holding the exact slot, or
	// nil when the slot is free.
	ActiveBySlot(ctx context.Context, placeID string, date time.Time, periodID string) (*models.Reservation, error)
	// Create inserts a new reservation. ErrDuplicateSlot signals the slot was
	// taken between check and write.
	Create(ctx context.Context, r *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	// UpdateStatus moves a reservation from one status to another. The write
	// is conditional on the current status, so of two concurrent transitions
	// exactly one commits; the loser gets ErrStaleStatus.
	UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus) error
	// List returns one page of reservations plus the unpaged total.
	List(ctx context.Context, f ReservationFilter, page, pageSize int) ([]models.Reservation, int64, error)
}

type PlaceStore interface {
	// ListActive returns bookable places ordered by display index then name.
	ListActive(ctx context.Context) ([]models.Place, error)
	FindByID(ctx context.Context, id string) (*models.Place, error)
}

type PeriodStore interface {
	// ListForPlace returns the period universe for a place, ordered by index:
	// the place's own periods when it has any, otherwise the global catalog.
	ListForPlace(ctx context.Context, placeID string) ([]models.Period, error)
}
