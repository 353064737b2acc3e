package repository

import (
	"context"
	"testing"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedBackend() *MemoryBackend {
	b := NewMemoryBackend()
	b.AddPlace(models.Place{ID: "p2", Name: "Room B", Index: 2, Status: models.PlaceActive})
	b.AddPlace(models.Place{ID: "p1", Name: "Room A", Index: 1, Status: models.PlaceActive})
	b.AddPlace(models.Place{ID: "p3", Name: "Storage", Index: 3, Status: models.PlaceInactive})
	b.AddPlace(models.Place{ID: "p4", Name: "Old Hall", Index: 0, Status: models.PlaceDeleted})

	p1 := "p1"
	b.AddPeriod(models.Period{ID: "own-am", PlaceID: &p1, Label: "AM", StartMinute: 540, EndMinute: 660, Index: 1})
	b.AddPeriod(models.Period{ID: "glob-am", Label: "AM", StartMinute: 540, EndMinute: 660, Index: 1})
	b.AddPeriod(models.Period{ID: "glob-pm", Label: "PM", StartMinute: 840, EndMinute: 960, Index: 2})
	return b
}

func TestMemoryPlaces_ListActiveFiltersAndOrders(t *testing.T) {
	b := seedBackend()

	places, err := b.Places().ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "p1", places[0].ID)
	assert.Equal(t, "p2", places[1].ID)
}

func TestMemoryPeriods_OwnPeriodsShadowGlobalCatalog(t *testing.T) {
	b := seedBackend()
	ctx := context.Background()

	// p1 has its own period, so the global ones are not used.
	periods, err := b.Periods().ListForPlace(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "own-am", periods[0].ID)

	// p2 has none and falls back to the global catalog, ordered by index.
	periods, err = b.Periods().ListForPlace(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "glob-am", periods[0].ID)
	assert.Equal(t, "glob-pm", periods[1].ID)
}

func TestMemoryReservations_DuplicateActiveSlotRejected(t *testing.T) {
	b := seedBackend()
	store := b.Reservations()
	ctx := context.Background()

	first := &models.Reservation{
		ID: "r1", PlaceID: "p1", ForDate: day("2024-06-01"), PeriodID: "own-am",
		Status: models.StatusSubmitted,
	}
	require.NoError(t, store.Create(ctx, first))

	dup := &models.Reservation{
		ID: "r2", PlaceID: "p1", ForDate: day("2024-06-01"), PeriodID: "own-am",
		Status: models.StatusSubmitted,
	}
	assert.ErrorIs(t, store.Create(ctx, dup), ErrDuplicateSlot)

	// Once the holder is cancelled the slot accepts a new reservation.
	require.NoError(t, store.UpdateStatus(ctx, "r1", models.StatusSubmitted, models.StatusCancelled))
	require.NoError(t, store.Create(ctx, dup))
}

func TestMemoryReservations_LoadActiveIgnoresInactive(t *testing.T) {
	b := seedBackend()
	store := b.Reservations()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Reservation{
		ID: "r1", PlaceID: "p1", ForDate: day("2024-06-01"), PeriodID: "own-am",
		Status: models.StatusApproved,
	}))
	require.NoError(t, store.Create(ctx, &models.Reservation{
		ID: "r2", PlaceID: "p1", ForDate: day("2024-06-01"), PeriodID: "glob-pm",
		Status: models.StatusRejected,
	}))

	active, err := store.LoadActive(ctx, "p1", day("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "r1", active[0].ID)
}

func TestMemoryReservations_UpdateStatusUnknownID(t *testing.T) {
	b := seedBackend()
	err := b.Reservations().UpdateStatus(context.Background(), "missing", models.StatusSubmitted, models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReservations_UpdateStatusIsConditional(t *testing.T) {
	b := seedBackend()
	store := b.Reservations()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Reservation{
		ID: "r1", PlaceID: "p1", ForDate: day("2024-06-01"), PeriodID: "own-am",
		Status: models.StatusSubmitted,
	}))
	require.NoError(t, store.UpdateStatus(ctx, "r1", models.StatusSubmitted, models.StatusRejected))

	// A writer that read the old status loses the race.
	err := store.UpdateStatus(ctx, "r1", models.StatusSubmitted, models.StatusApproved)
	assert.ErrorIs(t, err, ErrStaleStatus)

	stored, err := store.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
}

func TestMemoryReservations_ListFilters(t *testing.T) {
	b := seedBackend()
	store := b.Reservations()
	ctx := context.Background()

	mk := func(id, place, date, period, phone string, status models.ReservationStatus, created time.Time) {
		require.NoError(t, store.Create(ctx, &models.Reservation{
			ID: id, PlaceID: place, ForDate: day(date), PeriodID: period,
			PersonPhone: phone, Status: status, CreatedAt: created,
		}))
	}
	base := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	mk("r1", "p1", "2024-06-01", "own-am", "0123456789", models.StatusSubmitted, base)
	mk("r2", "p2", "2024-06-02", "glob-am", "0987654321", models.StatusSubmitted, base.Add(time.Hour))
	mk("r3", "p2", "2024-06-01", "glob-pm", "0123456789", models.StatusCancelled, base.Add(2*time.Hour))

	d := day("2024-06-01")
	items, total, err := store.List(ctx, ReservationFilter{Date: &d}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = store.List(ctx, ReservationFilter{Phone: "0123456789", PlaceID: "p1"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "r1", items[0].ID)

	// Newest date first.
	items, _, err = store.List(ctx, ReservationFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "r2", items[0].ID)
}
