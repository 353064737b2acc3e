package service

import (
	"sync"
	"time"

	"github.com/OpenReservation/reservation-service/config"
	"github.com/OpenReservation/reservation-service/internal/clock"
	"github.com/OpenReservation/reservation-service/internal/lock"
	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/OpenReservation/reservation-service/pkg/captcha"
	"go.uber.org/zap"
)

// Fixed "now" for deterministic date rules: 2024-05-20 10:00 UTC.
var testNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

func testDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRules() config.BookingRules {
	return config.BookingRules{
		HorizonDays:       14,
		SameDayCutoffHour: 0,
		BlackoutDates:     map[string]bool{},
		PhoneMinDigits:    7,
		PhoneMaxDigits:    15,
	}
}

type testEnv struct {
	backend  *repository.MemoryBackend
	store    repository.ReservationStore
	clock    clock.Clock
	events   *capturePublisher
	guard    *ConflictGuard
	workflow *Workflow
	svc      ReservationService

	place   models.Place
	morning models.Period
	evening models.Period
}

// newTestEnv builds the full engine on in-memory stores and the in-process
// lock, seeded with one active place holding two periods.
func newTestEnv(rules config.BookingRules, oracle captcha.Oracle) *testEnv {
	backend := repository.NewMemoryBackend()

	place := models.Place{ID: "place-a", Name: "Room A", Index: 1, Status: models.PlaceActive}
	backend.AddPlace(place)

	placeID := place.ID
	morning := models.Period{ID: "period-am", PlaceID: &placeID, Label: "Morning", StartMinute: 9 * 60, EndMinute: 11 * 60, Index: 1}
	evening := models.Period{ID: "period-pm", PlaceID: &placeID, Label: "Afternoon", StartMinute: 14 * 60, EndMinute: 16 * 60, Index: 2}
	backend.AddPeriod(morning)
	backend.AddPeriod(evening)

	clk := clock.NewFixed(testNow)
	store := backend.Reservations()
	events := &capturePublisher{}
	logger := zap.NewNop()

	validator := NewValidator(backend.Places(), backend.Periods(), rules, clk)
	availability := NewAvailabilityChecker(backend.Periods(), store)
	guard := NewConflictGuard(store, lock.NewMemory(), clk, time.Second, logger)
	workflow := NewWorkflow(store, events, logger)
	svc := NewReservationService(store, validator, availability, guard, workflow, oracle, events, logger)

	return &testEnv{
		backend:  backend,
		store:    store,
		clock:    clk,
		events:   events,
		guard:    guard,
		workflow: workflow,
		svc:      svc,
		place:    place,
		morning:  morning,
		evening:  evening,
	}
}

func (e *testEnv) request(date string) ReservationRequest {
	return ReservationRequest{
		PlaceID:         e.place.ID,
		Date:            testDate(date),
		PeriodID:        e.morning.ID,
		PersonName:      "Alice",
		PersonPhone:     "0123456789",
		ActivityContent: "weekly rehearsal",
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return nil
}

func (p *capturePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	copy(out, p.events)
	return out
}
