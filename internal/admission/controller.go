package admission

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"renamer/internal/config"
	"renamer/internal/logging"
	"renamer/internal/services"
)

// TaskFunc runs one dispatched task to completion. The controller releases
// the user's slot when it returns, regardless of outcome.
type TaskFunc func(ctx context.Context, task Task)

// userQueue is one user's admission state. pending and active are mutated
// only under the controller mutex.
type userQueue struct {
	pending []Task
	active  map[string]Task
}

// Stats is a point-in-time view of queue load.
type Stats struct {
	PendingTotal int
	ActiveTotal  int
	Users        int
	Completed    uint64
	Duplicates   uint64
	Rejected     uint64
	DownloadsNow int
	UploadsNow   int
}

// Controller admits tasks per user and dispatches them to a TaskFunc.
type Controller struct {
	maxPerUser  int
	pendingCap  int
	dedupWindow time.Duration
	run         TaskFunc
	logger      *slog.Logger

	downloads *Semaphore
	uploads   *Semaphore

	mu           sync.Mutex
	users        map[int64]*userQueue
	lastSeen     map[string]time.Time
	pendingTotal int
	activeTotal  int
	completed    uint64
	duplicates   uint64
	rejected     uint64
	closed       bool

	ctx context.Context
	wg  sync.WaitGroup
}

// NewController builds a controller from configuration. run is invoked once
// per dispatched task on its own goroutine.
func NewController(cfg *config.Config, logger *slog.Logger, run TaskFunc) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		maxPerUser:  cfg.Queue.MaxPerUser,
		pendingCap:  cfg.Queue.PendingCap,
		dedupWindow: cfg.DedupWindow(),
		run:         run,
		logger:      logger.With(logging.String(logging.FieldComponent, "admission")),
		downloads:   NewSemaphore(cfg.Queue.MaxDownloads),
		uploads:     NewSemaphore(cfg.Queue.MaxUploads),
		users:       make(map[int64]*userQueue),
		lastSeen:    make(map[string]time.Time),
	}
}

// Downloads returns the global download-capacity semaphore.
func (c *Controller) Downloads() *Semaphore { return c.downloads }

// Uploads returns the global upload-capacity semaphore.
func (c *Controller) Uploads() *Semaphore { return c.uploads }

// Start makes the controller ready to dispatch. Tasks run under the given
// context; canceling it signals running pipelines to stop.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
}

// Stop refuses new submissions and waits for running tasks to finish.
// Pending tasks that never got a slot are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.closed = true
	for _, uq := range c.users {
		c.pendingTotal -= len(uq.pending)
		uq.pending = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Submit enqueues a task and dispatches it immediately when the user has a
// free slot. Duplicates inside the dedupe window return
// services.ErrDuplicate; with a configured pending cap, overflow returns
// services.ErrQueueFull.
func (c *Controller) Submit(task Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.ctx == nil {
		return services.Wrap(services.ErrValidation, "admission", "submit", "controller not accepting tasks", nil)
	}

	key := task.identifier()
	if seen, ok := c.lastSeen[key]; ok && time.Since(seen) < c.dedupWindow && c.inflightLocked(task.UserID, key) {
		c.duplicates++
		c.logger.Debug("duplicate submission dropped",
			logging.Int64(logging.FieldUserID, task.UserID),
			logging.String(logging.FieldFilename, task.FileName))
		return services.ErrDuplicate
	}
	if c.pendingCap > 0 && c.pendingTotal >= c.pendingCap {
		c.rejected++
		return services.Wrap(services.ErrQueueFull, "admission", "submit", "pending queue is full", nil)
	}

	uq := c.users[task.UserID]
	if uq == nil {
		uq = &userQueue{active: make(map[string]Task)}
		c.users[task.UserID] = uq
	}
	uq.pending = append(uq.pending, task)
	c.pendingTotal++
	c.lastSeen[key] = time.Now()
	c.dispatchLocked(task.UserID, uq)
	return nil
}

// inflightLocked reports whether a task with the same identifier is still
// queued or active for the user.
func (c *Controller) inflightLocked(userID int64, key string) bool {
	uq := c.users[userID]
	if uq == nil {
		return false
	}
	for _, t := range uq.pending {
		if t.identifier() == key {
			return true
		}
	}
	for _, t := range uq.active {
		if t.identifier() == key {
			return true
		}
	}
	return false
}

// dispatchLocked pops queued tasks into free slots for one user. FIFO by
// submission time.
func (c *Controller) dispatchLocked(userID int64, uq *userQueue) {
	for len(uq.active) < c.maxPerUser && len(uq.pending) > 0 {
		task := uq.pending[0]
		uq.pending = uq.pending[1:]
		c.pendingTotal--
		uq.active[task.ID] = task
		c.activeTotal++

		c.wg.Add(1)
		go c.runTask(userID, task)
	}
}

func (c *Controller) runTask(userID int64, task Task) {
	defer c.wg.Done()

	ctx := services.WithUserID(c.ctx, userID)
	ctx = services.WithTaskID(ctx, task.ID)
	c.logger.Info("task dispatched",
		logging.Int64(logging.FieldUserID, userID),
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldFilename, task.FileName))

	c.run(ctx, task)

	c.mu.Lock()
	uq := c.users[userID]
	if uq != nil {
		delete(uq.active, task.ID)
		c.activeTotal--
		c.completed++
		c.dispatchLocked(userID, uq)
		if len(uq.pending) == 0 && len(uq.active) == 0 {
			delete(c.users, userID)
		}
	}
	c.mu.Unlock()
}

// ClearUser drops all pending tasks for a user and reports how many were
// removed. Active tasks are unaffected; there is no mid-flight
// cancellation.
func (c *Controller) ClearUser(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	uq := c.users[userID]
	if uq == nil {
		return 0
	}
	n := len(uq.pending)
	uq.pending = nil
	c.pendingTotal -= n
	return n
}

// UserStats is one user's queue view.
type UserStats struct {
	Active  int
	Pending []string
}

// User reports a user's active count and pending filenames in queue order.
func (c *Controller) User(userID int64) UserStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	uq := c.users[userID]
	if uq == nil {
		return UserStats{}
	}
	stats := UserStats{Active: len(uq.active)}
	for _, t := range uq.pending {
		stats.Pending = append(stats.Pending, t.FileName)
	}
	return stats
}

// PruneDedup drops dedupe entries older than the window and reports how
// many were removed. The daemon calls this periodically so the map does not
// grow with every file ever seen.
func (c *Controller) PruneDedup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	cutoff := time.Now().Add(-c.dedupWindow)
	for key, seen := range c.lastSeen {
		if seen.Before(cutoff) {
			delete(c.lastSeen, key)
			removed++
		}
	}
	return removed
}

// Stats returns a point-in-time load snapshot.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		PendingTotal: c.pendingTotal,
		ActiveTotal:  c.activeTotal,
		Users:        len(c.users),
		Completed:    c.completed,
		Duplicates:   c.duplicates,
		Rejected:     c.rejected,
		DownloadsNow: c.downloads.InUse(),
		UploadsNow:   c.uploads.InUse(),
	}
}
