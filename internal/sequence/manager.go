package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"renamer/internal/config"
	"renamer/internal/logging"
	"renamer/internal/messaging"
	"renamer/internal/naming"
	"renamer/internal/services"
)

// noEpisode is the sentinel sort key for files without a detectable
// episode; it places them after every real episode number.
const noEpisode = math.MaxInt

// Entry is one collected file.
type Entry struct {
	FileName string
	Source   messaging.Ref
	AddedAt  time.Time
}

// session is one user's collecting state.
type session struct {
	entries   []Entry
	startedAt time.Time
}

// Status is a point-in-time view of one user's session.
type Status struct {
	Active    bool
	Count     int
	StartedAt time.Time
}

// Manager owns all sequence sessions, at most one per user.
type Manager struct {
	client        messaging.Client
	itemDelay     time.Duration
	progressEvery int
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session

	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager builds a manager from configuration.
func NewManager(cfg *config.Config, client messaging.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	progressEvery := cfg.Delivery.SequenceProgressEvery
	if progressEvery < 1 {
		progressEvery = 5
	}
	return &Manager{
		client:        client,
		itemDelay:     cfg.SequenceItemDelay(),
		progressEvery: progressEvery,
		logger:        logger.With(logging.String(logging.FieldComponent, "sequence")),
		sessions:      make(map[int64]*session),
		sleep:         sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins collecting for a user. Starting while already collecting is
// an error, not a reset.
func (m *Manager) Start(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[userID]; exists {
		return services.Wrap(services.ErrValidation, "sequence", "start", "sequence already collecting", nil)
	}
	m.sessions[userID] = &session{startedAt: time.Now()}
	return nil
}

// Collecting reports whether the user has an active session.
func (m *Manager) Collecting(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Add appends a file to the user's session. The second return is false when
// the user is not collecting, in which case the caller routes the file to
// the admission queue instead.
func (m *Manager) Add(userID int64, entry Entry) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return 0, false
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	sess.entries = append(sess.entries, entry)
	return len(sess.entries), true
}

// Cancel discards the session without replay and reports how many entries
// were dropped.
func (m *Manager) Cancel(userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "sequence", "cancel", "no sequence in progress", nil)
	}
	delete(m.sessions, userID)
	return len(sess.entries), nil
}

// Snapshot returns the user's session status.
func (m *Manager) Snapshot(userID int64) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Status{}
	}
	return Status{Active: true, Count: len(sess.entries), StartedAt: sess.startedAt}
}

// Sorted returns the session entries in delivery order without consuming
// the session: ascending episode number, files with no episode last, ties
// in arrival order.
func Sorted(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return episodeKey(out[i].FileName) < episodeKey(out[j].FileName)
	})
	return out
}

func episodeKey(filename string) int {
	if n, ok := naming.Extract(filename).EpisodeNumber(); ok {
		return n
	}
	return noEpisode
}

// Flush ends the session and replays the collected files to chatID in
// sorted order, pacing items with a fixed delay and posting periodic
// progress. Individual resend failures are logged and skipped so one bad
// entry does not strand the rest.
func (m *Manager) Flush(ctx context.Context, userID, chatID int64) (int, error) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "sequence", "flush", "no sequence in progress", nil)
	}
	entries := Sorted(sess.entries)
	if len(entries) == 0 {
		return 0, nil
	}

	log := logging.WithContext(ctx, m.logger)
	statusRef, err := m.client.SendText(ctx, chatID, fmt.Sprintf("Sending %d files in order…", len(entries)))
	if err != nil {
		log.Warn("sequence status message failed", logging.Error(err))
	}

	sent := 0
	for i, entry := range entries {
		if i > 0 {
			if sleepErr := m.sleep(ctx, m.itemDelay); sleepErr != nil {
				return sent, services.Wrap(services.ErrDelivery, "sequence", "flush", "canceled during replay", sleepErr)
			}
		}
		if _, resendErr := m.client.Resend(ctx, entry.Source, chatID); resendErr != nil {
			log.Warn("sequence resend failed",
				logging.String(logging.FieldFilename, entry.FileName),
				logging.Error(resendErr))
			continue
		}
		sent++
		if sent%m.progressEvery == 0 && !statusRef.IsZero() {
			text := fmt.Sprintf("Sent %d/%d files…", sent, len(entries))
			if editErr := m.client.EditText(ctx, statusRef, text); editErr != nil {
				log.Warn("sequence progress edit failed", logging.Error(editErr))
			}
		}
	}

	if !statusRef.IsZero() {
		text := fmt.Sprintf("Done. Sent %d/%d files.", sent, len(entries))
		if editErr := m.client.EditText(ctx, statusRef, text); editErr != nil {
			log.Warn("sequence final edit failed", logging.Error(editErr))
		}
	}
	return sent, nil
}
