package pipeline

import (
	"container/list"
	"context"
	"sync"
)

// byteBudgetSemaphore is a single mutex-guarded counter with a FIFO wait
// queue (SPEC_FULL.md §5). golang.org/x/sync/semaphore.Weighted does not
// guarantee FIFO admission order, so it backs the worker-count bound
// instead (errgroup.SetLimit); this type exists only for the byte budget,
// which the spec requires to wake waiters in request order.
type byteBudgetSemaphore struct {
	mu      sync.Mutex
	budget  int64 // 0 means disabled: every acquire is a no-op
	inUse   int64
	waiters *list.List // of *budgetWaiter
}

type budgetWaiter struct {
	size  int64
	ready chan struct{}
}

func newByteBudgetSemaphore(budget int64) *byteBudgetSemaphore {
	return &byteBudgetSemaphore{budget: budget, waiters: list.New()}
}

// acquire blocks until size bytes are available or ctx is done. A size of
// 0, or a disabled budget, is a no-op.
func (s *byteBudgetSemaphore) acquire(ctx context.Context, size int64) error {
	if s.budget <= 0 || size <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.waiters.Len() == 0 && s.inUse+size <= s.budget {
		s.inUse += size
		s.mu.Unlock()
		return nil
	}

	w := &budgetWaiter{size: size, ready: make(chan struct{})}
	elem := s.waiters.PushBack(w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		s.waiters.Remove(elem)
		s.mu.Unlock()
		return ctx.Err()
	}
}

// release returns size bytes to the budget and wakes the head of the wait
// queue if it now fits.
func (s *byteBudgetSemaphore) release(size int64) {
	if s.budget <= 0 || size <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inUse -= size

	for {
		front := s.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*budgetWaiter)
		if s.inUse+w.size > s.budget {
			return
		}
		s.inUse += w.size
		s.waiters.Remove(front)
		close(w.ready)
	}
}
