package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"renamer/internal/admission"
	"renamer/internal/config"
	"renamer/internal/logging"
	"renamer/internal/messaging"
	"renamer/internal/pipeline"
	"renamer/internal/sequence"
	"renamer/internal/settings"
)

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     messaging.Client
	store      *settings.Store
	controller *admission.Controller
	executor   *pipeline.Executor
	sequences  *sequence.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Queue        admission.Stats
	SettingsDB   string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, client messaging.Client, store *settings.Store, executor *pipeline.Executor, controller *admission.Controller, sequences *sequence.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || client == nil || store == nil || executor == nil || controller == nil || sequences == nil {
		return nil, errors.New("daemon requires config, client, store, executor, controller, and sequence manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "renamerd.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "daemon")),
		client:     client,
		store:      store,
		controller: controller,
		executor:   executor,
		sequences:  sequences,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and begins accepting file events.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another renamer daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.controller.Start(d.ctx)

	d.wg.Add(1)
	go d.pruneLoop()

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop drains running tasks and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.cancel()
	d.controller.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock failed", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// pruneLoop periodically drops expired duplicate-suppression entries.
func (d *Daemon) pruneLoop() {
	defer d.wg.Done()
	interval := d.cfg.PruneInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := d.controller.PruneDedup(); n > 0 {
				d.logger.Debug("pruned dedupe entries", logging.Int("count", n))
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Status reports current daemon state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Queue:        d.controller.Stats(),
		SettingsDB:   d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
