package service

import (
	"context"
	"errors"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/OpenReservation/reservation-service/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidTransition   = errors.New("reservation status does not allow this action")
)

// transitions is the full status state machine. Review is a one-shot
// decision: approved reservations can only still be cancelled; rejected and
// cancelled are terminal.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusSubmitted: {models.StatusApproved, models.StatusRejected, models.StatusCancelled},
	models.StatusApproved:  {models.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Workflow applies status changes to committed reservations. Transitions out
// of an active status free the slot immediately, since availability only
// counts submitted and approved reservations.
type Workflow struct {
	store     repository.ReservationStore
	publisher EventPublisher
	logger    *zap.Logger
}

func NewWorkflow(store repository.ReservationStore, publisher EventPublisher, logger *zap.Logger) *Workflow {
	return &Workflow{store: store, publisher: publisher, logger: logger}
}

func (w *Workflow) Approve(ctx context.Context, id string) (*models.Reservation, error) {
	return w.transition(ctx, id, models.StatusApproved, "reservation.approved")
}

func (w *Workflow) Reject(ctx context.Context, id string) (*models.Reservation, error) {
	return w.transition(ctx, id, models.StatusRejected, "reservation.rejected")
}

func (w *Workflow) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return w.transition(ctx, id, models.StatusCancelled, "reservation.cancelled")
}

func (w *Workflow) transition(ctx context.Context, id string, to models.ReservationStatus, routingKey string) (*models.Reservation, error) {
	r, err := w.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}

	if !CanTransition(r.Status, to) {
		return nil, ErrInvalidTransition
	}

	// The write is conditional on the status read above. A concurrent
	// transition that commits first invalidates this one, so two admin
	// decisions can never both succeed.
	if err := w.store.UpdateStatus(ctx, id, r.Status, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrReservationNotFound
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	r.Status = to

	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	w.publish(routingKey, r)
	return r, nil
}

// publish is fire-and-forget: a broker outage never affects the booking
// outcome.
func (w *Workflow) publish(routingKey string, r *models.Reservation) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(routingKey, r); err != nil {
		w.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.String("reservation_id", r.ID),
			zap.Error(err))
	}
}
