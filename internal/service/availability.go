package service

import (
	"context"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
)

type PeriodStatus string

const (
	PeriodFree  PeriodStatus = "free"
	PeriodTaken PeriodStatus = "taken"
)

type PeriodAvailability struct {
	Period models.Period
	Status PeriodStatus
}

// AvailabilityChecker computes the Free/Taken view of a day. It is advisory:
// the conflict guard never trusts it for the commit decision. It does not
// apply the date rules, so callers can render out-of-horizon days as
// view-only.
type AvailabilityChecker struct {
	periods      repository.PeriodStore
	reservations repository.ReservationStore
}

func NewAvailabilityChecker(periods repository.PeriodStore, reservations repository.ReservationStore) *AvailabilityChecker {
	return &AvailabilityChecker{periods: periods, reservations: reservations}
}

// GetAvailability returns every catalog period for the place in display
// order, marked Taken when an active reservation occupies it. One store read
// for the periods and one for the day's reservations; no per-period queries.
func (c *AvailabilityChecker) GetAvailability(ctx context.Context, placeID string, date time.Time) ([]PeriodAvailability, error) {
	periods, err := c.periods.ListForPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}

	active, err := c.reservations.LoadActive(ctx, placeID, date)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool, len(active))
	for _, r := range active {
		occupied[r.PeriodID] = true
	}

	out := make([]PeriodAvailability, len(periods))
	for i, p := range periods {
		status := PeriodFree
		if occupied[p.ID] {
			status = PeriodTaken
		}
		out[i] = PeriodAvailability{Period: p, Status: status}
	}
	return out, nil
}
