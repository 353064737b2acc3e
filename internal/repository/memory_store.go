package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
)

// MemoryBackend holds in-memory reference data and reservations behind the
// same store contracts the postgres implementations satisfy. It backs unit
// tests and the no-database dev mode, and it enforces the same active-slot
// uniqueness the postgres partial index does.
type MemoryBackend struct {
	mu           sync.RWMutex
	places       map[string]models.Place
	periods      map[string]models.Period
	reservations map[string]models.Reservation
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		places:       make(map[string]models.Place),
		periods:      make(map[string]models.Period),
		reservations: make(map[string]models.Reservation),
	}
}

func (b *MemoryBackend) AddPlace(p models.Place) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.places[p.ID] = p
}

func (b *MemoryBackend) AddPeriod(p models.Period) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.periods[p.ID] = p
}

func (b *MemoryBackend) Places() PlaceStore             { return &memoryPlaceStore{b} }
func (b *MemoryBackend) Periods() PeriodStore           { return &memoryPeriodStore{b} }
func (b *MemoryBackend) Reservations() ReservationStore { return &memoryReservationStore{b} }

type memoryPlaceStore struct {
	b *MemoryBackend
}

func (s *memoryPlaceStore) ListActive(ctx context.Context) ([]models.Place, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	var out []models.Place
	for _, p := range s.b.places {
		if p.Status == models.PlaceActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memoryPlaceStore) FindByID(ctx context.Context, id string) (*models.Place, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	p, ok := s.b.places[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

type memoryPeriodStore struct {
	b *MemoryBackend
}

func (s *memoryPeriodStore) ListForPlace(ctx context.Context, placeID string) ([]models.Period, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	own := s.collect(func(p models.Period) bool {
		return p.PlaceID != nil && *p.PlaceID == placeID
	})
	if len(own) > 0 {
		return own, nil
	}
	return s.collect(func(p models.Period) bool { return p.PlaceID == nil }), nil
}

func (s *memoryPeriodStore) collect(match func(models.Period) bool) []models.Period {
	var out []models.Period
	for _, p := range s.b.periods {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out
}

type memoryReservationStore struct {
	b *MemoryBackend
}

func (s *memoryReservationStore) LoadActive(ctx context.Context, placeID string, date time.Time) ([]models.Reservation, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	day := models.DateKey(date)
	var out []models.Reservation
	for _, r := range s.b.reservations {
		if r.PlaceID == placeID && models.DateKey(r.ForDate) == day && r.Status.IsActive() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryReservationStore) ActiveBySlot(ctx context.Context, placeID string, date time.Time, periodID string) (*models.Reservation, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if r := s.activeBySlotLocked(placeID, date, periodID); r != nil {
		return r, nil
	}
	return nil, nil
}

func (s *memoryReservationStore) activeBySlotLocked(placeID string, date time.Time, periodID string) *models.Reservation {
	day := models.DateKey(date)
	for _, r := range s.b.reservations {
		if r.PlaceID == placeID && r.PeriodID == periodID &&
			models.DateKey(r.ForDate) == day && r.Status.IsActive() {
			out := r
			return &out
		}
	}
	return nil
}

func (s *memoryReservationStore) Create(ctx context.Context, r *models.Reservation) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if r.Status.IsActive() && s.activeBySlotLocked(r.PlaceID, r.ForDate, r.PeriodID) != nil {
		return ErrDuplicateSlot
	}
	s.b.reservations[r.ID] = *r
	return nil
}

func (s *memoryReservationStore) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	r, ok := s.b.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memoryReservationStore) UpdateStatus(ctx context.Context, id string, from, to models.ReservationStatus) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	r, ok := s.b.reservations[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != from {
		return ErrStaleStatus
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	s.b.reservations[id] = r
	return nil
}

func (s *memoryReservationStore) List(ctx context.Context, f ReservationFilter, page, pageSize int) ([]models.Reservation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	var all []models.Reservation
	for _, r := range s.b.reservations {
		if f.Date != nil && models.DateKey(r.ForDate) != models.DateKey(*f.Date) {
			continue
		}
		if f.Phone != "" && r.PersonPhone != strings.TrimSpace(f.Phone) {
			continue
		}
		if f.PlaceID != "" && r.PlaceID != f.PlaceID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ForDate.Equal(all[j].ForDate) {
			return all[i].ForDate.After(all[j].ForDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
