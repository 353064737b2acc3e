package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/OpenReservation/reservation-service/pkg/captcha"
	"github.com/OpenReservation/reservation-service/pkg/metrics"
	"go.uber.org/zap"
)

// ErrCaptchaRejected covers both a failed verification and an unreachable
// oracle; the check is never bypassed.
var ErrCaptchaRejected = errors.New("captcha verification failed")

// EventPublisher is the injected publish capability for reservation
// lifecycle events. Implementations must not block the booking path.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// ReservationService is the engine's boundary: everything the transport
// layer calls goes through here.
type ReservationService interface {
	SubmitReservation(ctx context.Context, req ReservationRequest, captchaKind, captchaToken string) (*models.Reservation, error)
	CheckDateAvailable(date time.Time) (bool, string)
	GetAvailability(ctx context.Context, placeID string, date time.Time) ([]PeriodAvailability, error)
	Lookup(ctx context.Context, id, phone string) (*models.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter, page, pageSize int) ([]models.Reservation, int64, error)
	Approve(ctx context.Context, id string) (*models.Reservation, error)
	Reject(ctx context.Context, id string) (*models.Reservation, error)
	Cancel(ctx context.Context, id string) (*models.Reservation, error)
}

type reservationService struct {
	store        repository.ReservationStore
	validator    *Validator
	availability *AvailabilityChecker
	guard        *ConflictGuard
	workflow     *Workflow
	oracle       captcha.Oracle
	publisher    EventPublisher
	logger       *zap.Logger
}

func NewReservationService(
	store repository.ReservationStore,
	validator *Validator,
	availability *AvailabilityChecker,
	guard *ConflictGuard,
	workflow *Workflow,
	oracle captcha.Oracle,
	publisher EventPublisher,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		store:        store,
		validator:    validator,
		availability: availability,
		guard:        guard,
		workflow:     workflow,
		oracle:       oracle,
		publisher:    publisher,
		logger:       logger,
	}
}

// SubmitReservation runs the full booking flow: captcha, validation, an
// advisory availability pre-check, then the serialized commit. Captcha and
// validation finish before any lock is taken.
func (s *reservationService) SubmitReservation(ctx context.Context, req ReservationRequest, captchaKind, captchaToken string) (*models.Reservation, error) {
	if s.oracle != nil {
		ok, err := s.oracle.Verify(ctx, captchaKind, captchaToken)
		if err != nil {
			s.logger.Warn("captcha oracle unreachable", zap.Error(err))
			metrics.CaptchaRejections.Inc()
			return nil, ErrCaptchaRejected
		}
		if !ok {
			metrics.CaptchaRejections.Inc()
			return nil, ErrCaptchaRejected
		}
	}

	if err := s.validator.Validate(ctx, req); err != nil {
		metrics.ValidationRejections.Inc()
		return nil, err
	}

	// Advisory pre-check: fail fast without contending on the lock. The
	// guard re-checks under the lock regardless.
	periods, err := s.availability.GetAvailability(ctx, req.PlaceID, req.Date)
	if err != nil {
		return nil, err
	}
	for _, p := range periods {
		if p.Period.ID == req.PeriodID && p.Status == PeriodTaken {
			metrics.ReservationConflicts.Inc()
			return nil, ErrSlotTaken
		}
	}

	reservation, err := s.guard.TryReserve(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.ReservationConflicts.Inc()
		}
		return nil, err
	}

	metrics.ReservationsCreated.Inc()
	s.publish("reservation.created", reservation)
	return reservation, nil
}

func (s *reservationService) CheckDateAvailable(date time.Time) (bool, string) {
	if err := s.validator.CheckDate(date); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func (s *reservationService) GetAvailability(ctx context.Context, placeID string, date time.Time) ([]PeriodAvailability, error) {
	return s.availability.GetAvailability(ctx, placeID, date)
}

// Lookup treats (id, phone) as a joint credential. Any mismatch is reported
// as not found so existence is not leaked.
func (s *reservationService) Lookup(ctx context.Context, id, phone string) (*models.Reservation, error) {
	r, err := s.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.PersonPhone != strings.TrimSpace(phone) {
		return nil, ErrReservationNotFound
	}
	return r, nil
}

func (s *reservationService) List(ctx context.Context, f repository.ReservationFilter, page, pageSize int) ([]models.Reservation, int64, error) {
	return s.store.List(ctx, f, page, pageSize)
}

func (s *reservationService) Approve(ctx context.Context, id string) (*models.Reservation, error) {
	return s.workflow.Approve(ctx, id)
}

func (s *reservationService) Reject(ctx context.Context, id string) (*models.Reservation, error) {
	return s.workflow.Reject(ctx, id)
}

func (s *reservationService) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return s.workflow.Cancel(ctx, id)
}

func (s *reservationService) publish(routingKey string, r *models.Reservation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, r); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.String("reservation_id", r.ID),
			zap.Error(err))
	}
}
