package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OpenReservation/reservation-service/internal/clock"
	"github.com/OpenReservation/reservation-service/internal/lock"
	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSlotTaken is the terminal conflict result: the slot was won by another
// request. The engine never retries on behalf of the caller.
var ErrSlotTaken = errors.New("slot already reserved")

// ConflictGuard serializes the check-then-write for one (place, date, period)
// key. Validation and captcha checks must complete before TryReserve so the
// lock is held only for the minimal re-check-and-insert step.
type ConflictGuard struct {
	store   repository.ReservationStore
	locker  lock.Locker
	clock   clock.Clock
	lockTTL time.Duration
	logger  *zap.Logger
}

func NewConflictGuard(store repository.ReservationStore, locker lock.Locker, clk clock.Clock, lockTTL time.Duration, logger *zap.Logger) *ConflictGuard {
	return &ConflictGuard{store: store, locker: locker, clock: clk, lockTTL: lockTTL, logger: logger}
}

// TryReserve commits req as a new submitted reservation, or returns
// ErrSlotTaken when the slot is occupied. Of N concurrent calls for the same
// slot exactly one wins; calls for different slots never block each other.
func (g *ConflictGuard) TryReserve(ctx context.Context, req ReservationRequest) (*models.Reservation, error) {
	key := lock.SlotKey(req.PlaceID, models.DateKey(req.Date), req.PeriodID)

	handle, err := g.locker.Acquire(ctx, key, g.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock %s: %w", key, err)
	}
	defer func() {
		// Release must happen even when the caller's context is already
		// cancelled, otherwise the slot stays blocked until the lock TTL.
		if relErr := handle.Release(context.WithoutCancel(ctx)); relErr != nil {
			g.logger.Warn("slot lock release failed", zap.String("key", key), zap.Error(relErr))
		}
	}()

	// Authoritative re-check inside the lock. Whatever availability the
	// caller saw before submitting is stale by now.
	existing, err := g.store.ActiveBySlot(ctx, req.PlaceID, req.Date, req.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("re-check slot: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	now := g.clock.Now()
	reservation := &models.Reservation{
		ID:              uuid.NewString(),
		PlaceID:         req.PlaceID,
		ForDate:         models.DateOnly(req.Date),
		PeriodID:        req.PeriodID,
		PersonName:      strings.TrimSpace(req.PersonName),
		PersonPhone:     strings.TrimSpace(req.PersonPhone),
		ActivityContent: strings.TrimSpace(req.ActivityContent),
		Status:          models.StatusSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := g.store.Create(ctx, reservation); err != nil {
		// The partial unique index is the storage-level backstop; a duplicate
		// here is still a plain conflict for the caller.
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	return reservation, nil
}
