package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/OpenReservation/reservation-service/internal/models"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.ReservationStatus
		ok       bool
	}{
		{models.StatusSubmitted, models.StatusApproved, true},
		{models.StatusSubmitted, models.StatusRejected, true},
		{models.StatusSubmitted, models.StatusCancelled, true},
		{models.StatusApproved, models.StatusCancelled, true},
		{models.StatusApproved, models.StatusRejected, false},
		{models.StatusApproved, models.StatusApproved, false},
		{models.StatusRejected, models.StatusApproved, false},
		{models.StatusRejected, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusApproved, false},
		{models.StatusCancelled, models.StatusSubmitted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestWorkflow_ApproveSubmitted(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)

	approved, err := env.workflow.Approve(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	stored, err := env.store.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Contains(t, env.events.keys(), "reservation.approved")
}

func TestWorkflow_ReviewIsOneShot(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)

	_, err = env.workflow.Approve(ctx, r.ID)
	require.NoError(t, err)

	_, err = env.workflow.Reject(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.workflow.Approve(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_CancelFromSubmittedAndApproved(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)
	cancelled, err := env.workflow.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	r, err = env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)
	_, err = env.workflow.Approve(ctx, r.ID)
	require.NoError(t, err)
	_, err = env.workflow.Cancel(ctx, r.ID)
	require.NoError(t, err)
}

func TestWorkflow_TerminalStatesStayTerminal(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)
	_, err = env.workflow.Reject(ctx, r.ID)
	require.NoError(t, err)

	_, err = env.workflow.Cancel(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_UnknownReservation(t *testing.T) {
	env := newTestEnv(testRules(), nil)

	_, err := env.workflow.Approve(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

// readHookStore runs a one-shot hook after the first status read, so a test
// can interleave other transitions between a workflow's read and its write.
type readHookStore struct {
	repository.ReservationStore
	mu   sync.Mutex
	hook func()
}

func (s *readHookStore) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.ReservationStore.FindByID(ctx, id)
	s.mu.Lock()
	hook := s.hook
	s.hook = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r, err
}

func TestWorkflow_StaleApproveLosesToReject(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)

	// Between the approve's status read and its write, a reject lands and a
	// new reservation takes the freed slot. The stale approve must not
	// commit, or the slot would hold two active reservations.
	hooked := &readHookStore{ReservationStore: env.store}
	hooked.hook = func() {
		_, err := env.workflow.Reject(ctx, r.ID)
		require.NoError(t, err)
		_, err = env.guard.TryReserve(ctx, env.request("2024-06-01"))
		require.NoError(t, err)
	}
	staleWorkflow := NewWorkflow(hooked, env.events, zap.NewNop())

	_, err = staleWorkflow.Approve(ctx, r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	active, err := env.store.LoadActive(ctx, env.place.ID, testDate("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.StatusSubmitted, active[0].Status)
	assert.NotEqual(t, r.ID, active[0].ID)
}

func TestWorkflow_ConcurrentDecisionsSingleWinner(t *testing.T) {
	env := newTestEnv(testRules(), nil)
	ctx := context.Background()

	r, err := env.guard.TryReserve(ctx, env.request("2024-06-01"))
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	var successes int32
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		op := env.workflow.Approve
		if i%2 == 1 {
			op = env.workflow.Reject
		}
		go func(op func(context.Context, string) (*models.Reservation, error)) {
			defer wg.Done()
			if _, err := op(ctx, r.ID); err == nil {
				atomic.AddInt32(&successes, 1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		}(op)
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes, "exactly one admin decision should commit")
	assert.Len(t, env.events.keys(), 1)
}
