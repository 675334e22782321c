package admission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"renamer/internal/admission"
	"renamer/internal/messaging"
	"renamer/internal/services"
	"renamer/internal/testsupport"
)

func newTask(userID int64, filename string, size int64) admission.Task {
	return admission.NewTask(messaging.Incoming{
		Ref:      messaging.Ref{ChatID: userID, MessageID: size},
		UserID:   userID,
		FileName: filename,
		FileSize: size,
	})
}

func TestPerUserConcurrencyInvariant(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPerUser(2))

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	release := make(chan struct{})
	done := make(chan struct{}, 16)

	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		<-release
		mu.Lock()
		running--
		mu.Unlock()
		done <- struct{}{}
	})
	ctrl.Start(context.Background())

	for i := 0; i < 6; i++ {
		if err := ctrl.Submit(newTask(1, "file"+string(rune('a'+i))+".mkv", int64(i))); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	// Give dispatched goroutines time to start; only two may run at once.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	if running != 2 {
		mu.Unlock()
		t.Fatalf("expected 2 running tasks, got %d", running)
	}
	mu.Unlock()

	close(release)
	for i := 0; i < 6; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	ctrl.Stop()

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Fatalf("per-user concurrency exceeded: peak %d", peak)
	}
	stats := ctrl.Stats()
	if stats.Completed != 6 {
		t.Fatalf("completed = %d, want 6", stats.Completed)
	}
}

func TestFIFODispatchOrderPerUser(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPerUser(1))

	var order []string
	var mu sync.Mutex
	done := make(chan struct{}, 8)

	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		mu.Lock()
		order = append(order, task.FileName)
		mu.Unlock()
		done <- struct{}{}
	})
	ctrl.Start(context.Background())

	names := []string{"first.mkv", "second.mkv", "third.mkv"}
	for i, name := range names {
		if err := ctrl.Submit(newTask(1, name, int64(i))); err != nil {
			t.Fatalf("submit %s failed: %v", name, err)
		}
	}
	for range names {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	ctrl.Stop()

	mu.Lock()
	defer mu.Unlock()
	for i, name := range names {
		if order[i] != name {
			t.Fatalf("dispatch order = %v, want %v", order, names)
		}
	}
}

func TestDuplicateSuppression(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Queue.DedupWindowSeconds = 60

	var started atomic.Int64
	release := make(chan struct{})
	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		started.Add(1)
		<-release
	})
	ctrl.Start(context.Background())

	task := newTask(1, "same.mkv", 100)
	if err := ctrl.Submit(task); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	dup := newTask(1, "same.mkv", 100)
	if err := ctrl.Submit(dup); !errors.Is(err, services.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same filename from another user is not a duplicate.
	if err := ctrl.Submit(newTask(2, "same.mkv", 100)); err != nil {
		t.Fatalf("cross-user submit failed: %v", err)
	}

	close(release)
	ctrl.Stop()
	if got := started.Load(); got != 2 {
		t.Fatalf("started = %d, want 2", got)
	}
}

func TestPendingCapRejectsOverflow(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPerUser(1), testsupport.WithPendingCap(1))

	release := make(chan struct{})
	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		<-release
	})
	ctrl.Start(context.Background())

	// First occupies the slot, second sits pending, third overflows.
	if err := ctrl.Submit(newTask(1, "a.mkv", 1)); err != nil {
		t.Fatalf("submit a failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := ctrl.Submit(newTask(1, "b.mkv", 2)); err != nil {
		t.Fatalf("submit b failed: %v", err)
	}
	if err := ctrl.Submit(newTask(1, "c.mkv", 3)); !errors.Is(err, services.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	ctrl.Stop()
}

func TestClearUserDropsPending(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPerUser(1))

	release := make(chan struct{})
	var started atomic.Int64
	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		started.Add(1)
		<-release
	})
	ctrl.Start(context.Background())

	for i := 0; i < 3; i++ {
		if err := ctrl.Submit(newTask(1, "f"+string(rune('a'+i))+".mkv", int64(i))); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	time.Sleep(20 * time.Millisecond)
	if n := ctrl.ClearUser(1); n != 2 {
		t.Fatalf("cleared %d pending tasks, want 2", n)
	}

	close(release)
	ctrl.Stop()
	if got := started.Load(); got != 1 {
		t.Fatalf("started = %d, want 1", got)
	}
}

func TestUserStatsReportPendingOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPerUser(1))

	release := make(chan struct{})
	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		<-release
	})
	ctrl.Start(context.Background())

	names := []string{"a.mkv", "b.mkv", "c.mkv"}
	for i, name := range names {
		if err := ctrl.Submit(newTask(1, name, int64(i))); err != nil {
			t.Fatalf("submit %s failed: %v", name, err)
		}
	}
	time.Sleep(20 * time.Millisecond)

	us := ctrl.User(1)
	if us.Active != 1 {
		t.Fatalf("active = %d, want 1", us.Active)
	}
	if len(us.Pending) != 2 || us.Pending[0] != "b.mkv" || us.Pending[1] != "c.mkv" {
		t.Fatalf("pending = %v, want [b.mkv c.mkv]", us.Pending)
	}

	if us := ctrl.User(2); us.Active != 0 || len(us.Pending) != 0 {
		t.Fatalf("unknown user stats = %+v", us)
	}

	close(release)
	ctrl.Stop()
}

func TestSemaphoreBoundsAndContext(t *testing.T) {
	sem := admission.NewSemaphore(2)
	ctx := context.Background()

	if err := sem.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sem.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if sem.InUse() != 2 {
		t.Fatalf("in use = %d, want 2", sem.InUse())
	}

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(timeout); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	sem.Release()
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	sem.Release()
	sem.Release()
}

func TestPruneDedup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Queue.DedupWindowSeconds = 1

	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {})
	ctrl.Start(context.Background())
	if err := ctrl.Submit(newTask(1, "a.mkv", 1)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if n := ctrl.PruneDedup(); n != 1 {
		t.Fatalf("pruned %d entries, want 1", n)
	}
	ctrl.Stop()
}
