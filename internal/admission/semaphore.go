package admission

import "context"

// Semaphore is a counting semaphore with context-aware acquisition. Waiters
// are served in roughly FIFO order by the runtime's channel queue, which
// keeps long-tail starvation off the transfer paths.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with n slots. Values below one are
// clamped to one.
func NewSemaphore(n int) *Semaphore {
	if n < 1 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire claims one slot, blocking until a slot frees or the context ends.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns one slot. Releasing more than was acquired panics.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
		panic("semaphore: release without acquire")
	}
}

// InUse reports the number of currently held slots.
func (s *Semaphore) InUse() int { return len(s.slots) }
