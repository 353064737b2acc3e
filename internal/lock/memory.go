package lock

import (
	"context"
	"sync"
	"time"
)

// Memory is a single-process Locker using one semaphore channel per key.
// Semaphores are created lazily and kept for the life of the process; the
// key space (places x dates x periods) is small enough that no eviction is
// needed.
type Memory struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func NewMemory() *Memory {
	return &Memory{sems: make(map[string]chan struct{})}
}

func (m *Memory) sem(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sems[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.sems[key] = s
	}
	return s
}

func (m *Memory) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := m.sem(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return &memoryHandle{sem: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

type memoryHandle struct {
	sem  chan struct{}
	once sync.Once
}

func (h *memoryHandle) Release(ctx context.Context) error {
	h.once.Do(func() { <-h.sem })
	return nil
}
