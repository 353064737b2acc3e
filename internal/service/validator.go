package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OpenReservation/reservation-service/config"
	"github.com/OpenReservation/reservation-service/internal/clock"
	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
)

// Validation failures double as the user-facing rejection reasons, one
// distinct message per rule.
var (
	ErrDateInPast         = errors.New("reservation date cannot be in the past")
	ErrSameDayClosed      = errors.New("same-day reservation is closed")
	ErrBeyondHorizon      = errors.New("reservation date is beyond the booking horizon")
	ErrDateBlackedOut     = errors.New("reservation date is not open for booking")
	ErrPlaceNotBookable   = errors.New("place not found or not open for reservation")
	ErrPeriodNotInCatalog = errors.New("period does not belong to the selected place")
	ErrInvalidPhone       = errors.New("contact phone is invalid")
	ErrMissingFields      = errors.New("name and activity content are required")
)

// ReservationRequest is an incoming booking request before it has been
// validated or committed.
type ReservationRequest struct {
	PlaceID         string
	Date            time.Time
	PeriodID        string
	PersonName      string
	PersonPhone     string
	ActivityContent string
}

// Validator enforces business-date rules and structural validity. It never
// returns infrastructure errors for expected conditions; each rule has its
// own sentinel, evaluated in order with the first failure winning.
type Validator struct {
	places  repository.PlaceStore
	periods repository.PeriodStore
	rules   config.BookingRules
	clock   clock.Clock
}

func NewValidator(places repository.PlaceStore, periods repository.PeriodStore, rules config.BookingRules, clk clock.Clock) *Validator {
	return &Validator{places: places, periods: periods, rules: rules, clock: clk}
}

// CheckDate applies the calendar rules only. The availability view uses it to
// answer "is this date bookable at all" without a full request.
func (v *Validator) CheckDate(date time.Time) error {
	now := v.clock.Now()
	today := models.DateOnly(now)
	day := models.DateOnly(date)

	if day.Before(today) {
		return ErrDateInPast
	}
	if day.Equal(today) {
		cutoff := v.rules.SameDayCutoffHour
		if cutoff <= 0 || now.Hour() >= cutoff {
			return ErrSameDayClosed
		}
	}
	if day.After(today.AddDate(0, 0, v.rules.HorizonDays)) {
		return ErrBeyondHorizon
	}
	if v.rules.BlackoutDates[models.DateKey(day)] {
		return ErrDateBlackedOut
	}
	return nil
}

func (v *Validator) Validate(ctx context.Context, req ReservationRequest) error {
	if err := v.CheckDate(req.Date); err != nil {
		return err
	}

	place, err := v.places.FindByID(ctx, req.PlaceID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlaceNotBookable
	}
	if err != nil {
		return err
	}
	if !place.Bookable() {
		return ErrPlaceNotBookable
	}

	periods, err := v.periods.ListForPlace(ctx, req.PlaceID)
	if err != nil {
		return err
	}
	if !periodInCatalog(periods, req.PeriodID) {
		return ErrPeriodNotInCatalog
	}

	if !v.phoneValid(req.PersonPhone) {
		return ErrInvalidPhone
	}
	if strings.TrimSpace(req.PersonName) == "" || strings.TrimSpace(req.ActivityContent) == "" {
		return ErrMissingFields
	}
	return nil
}

func periodInCatalog(periods []models.Period, periodID string) bool {
	for _, p := range periods {
		if p.ID == periodID {
			return true
		}
	}
	return false
}

// phoneValid accepts digits only (separators stripped) within the configured
// length bounds.
func (v *Validator) phoneValid(phone string) bool {
	digits := 0
	for _, c := range strings.TrimSpace(phone) {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == ' ' || c == '-':
			// separators are tolerated but do not count
		default:
			return false
		}
	}
	return digits >= v.rules.PhoneMinDigits && digits <= v.rules.PhoneMaxDigits
}
