package timer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("timer already started")
	ErrNotRunning     = errors.New("timer is not running")
	ErrNotPaused      = errors.New("timer is not paused")
	ErrNotStarted     = errors.New("timer has not been started")
	ErrStillRunning   = errors.New("countdown has not elapsed")
	ErrSessionClosed  = errors.New("timer session closed")
)

// Snapshot is one rendered frame of a subject's timer. The glyph alone is
// enough for the compact list view; the full view adds the countdown,
// progress and which controls are enabled.
type Snapshot struct {
	SubjectID        string  `json:"subject_id"`
	Status           Status  `json:"status"`
	DurationSeconds  int64   `json:"duration_seconds"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	ProgressPercent  float64 `json:"progress_percent"`
	Glyph            string  `json:"glyph"`
	CanStart         bool    `json:"can_start"`
	CanPause         bool    `json:"can_pause"`
	CanResume        bool    `json:"can_resume"`
	CanRestart       bool    `json:"can_restart"`
}

// Session reconciles the remote subject record, the local pause override and
// the wall clock into one authoritative timer state for a single watcher.
// Ticks run on a one-second loop only while the timer is running and the
// watcher is visible; everything else is recomputed on demand from the clock.
type Session struct {
	mu      sync.Mutex
	id      string
	subject Subject
	pauses  PauseStore
	remote  Mutator
	logger  *slog.Logger

	now  func() time.Time
	tick time.Duration

	visible   bool
	cancel    chan struct{}
	events    chan Snapshot
	completed bool
	closed    bool
	lastSeen  time.Time
}

// NewSession builds a session watching subject. The watcher starts visible.
func NewSession(id string, subject Subject, pauses PauseStore, remote Mutator, logger *slog.Logger, tick time.Duration) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if tick <= 0 {
		tick = time.Second
	}

	s := &Session{
		id:       id,
		subject:  subject,
		pauses:   pauses,
		remote:   remote,
		logger:   logger,
		now:      time.Now,
		tick:     tick,
		visible:  true,
		events:   make(chan Snapshot, 16),
		lastSeen: time.Now(),
	}

	s.mu.Lock()
	s.completed = subject.CompletedAt != nil
	s.reconcileTickerLocked()
	s.mu.Unlock()

	return s
}

// ID returns the session identifier handed out to the watcher.
func (s *Session) ID() string {
	return s.id
}

// Events streams a snapshot per tick and per transition. Sends never block;
// a slow consumer misses frames, not state, because every frame is derived
// from the wall clock.
func (s *Session) Events() <-chan Snapshot {
	return s.events
}

func (s *Session) statusLocked() Status {
	return deriveStatus(s.subject, s.pauses)
}

func (s *Session) snapshotLocked(now time.Time) Snapshot {
	return buildSnapshot(s.subject, s.pauses, now)
}

// buildSnapshot derives one frame from the subject record, the pause store
// and the wall clock. It is the single place status, countdown and control
// availability are computed.
func buildSnapshot(subject Subject, pauses PauseStore, now time.Time) Snapshot {
	snap := Snapshot{SubjectID: subject.ID, Status: deriveStatus(subject, pauses)}
	if subject.DurationSeconds != nil {
		snap.DurationSeconds = *subject.DurationSeconds
	}

	switch snap.Status {
	case StatusNotStarted:
		snap.Glyph = "start"
		snap.RemainingSeconds = snap.DurationSeconds
		snap.CanStart = true
	case StatusRunning:
		remaining, err := RemainingSeconds(*subject.StartedAt, snap.DurationSeconds, now)
		if err == nil {
			snap.RemainingSeconds = remaining
			snap.ProgressPercent, _ = ProgressPercent(*subject.StartedAt, snap.DurationSeconds, now)
		}
		snap.Glyph = "running"
		snap.CanPause = true
		snap.CanRestart = true
	case StatusPaused:
		if ov, ok := pauses.Load(subject); ok && snap.DurationSeconds > 0 {
			snap.RemainingSeconds = ov.RemainingSecondsAtPause
			snap.ProgressPercent = 100 * float64(snap.DurationSeconds-ov.RemainingSecondsAtPause) / float64(snap.DurationSeconds)
		}
		snap.Glyph = "paused"
		snap.CanResume = true
		snap.CanRestart = true
	case StatusCompleted:
		snap.Glyph = "done"
		snap.ProgressPercent = 100
		snap.CanRestart = true
	}
	return snap
}

func deriveStatus(subject Subject, pauses PauseStore) Status {
	if subject.CompletedAt != nil {
		return StatusCompleted
	}
	if subject.StartedAt == nil {
		return StatusNotStarted
	}
	if _, ok := pauses.Load(subject); ok {
		return StatusPaused
	}
	return StatusRunning
}

// Snapshot derives the current frame from the wall clock. A countdown that
// expired since the last tick auto-completes here, so a caller polling after
// a long gap sees the terminal state immediately.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	now := s.now()
	snap := s.snapshotLocked(now)
	if snap.Status == StatusRunning && snap.RemainingSeconds == 0 {
		s.autoCompleteLocked(now)
		snap = s.snapshotLocked(now)
	}
	s.mu.Unlock()
	return snap
}

// Start begins the countdown on an idle subject. The remote write happens
// first; local state only flips to running once the updated record is back.
func (s *Session) Start(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.statusLocked() != StatusNotStarted {
		s.mu.Unlock()
		return Snapshot{}, ErrAlreadyStarted
	}
	if s.subject.DurationSeconds == nil || *s.subject.DurationSeconds <= 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrInvalidDuration
	}
	id, duration, startAt := s.subject.ID, *s.subject.DurationSeconds, s.now()
	s.mu.Unlock()

	updated, err := s.remote.StartTimer(ctx, id, duration, startAt)
	if err != nil {
		return Snapshot{}, err
	}
	return s.adopt(updated), nil
}

// Pause freezes the countdown for this session only. Nothing is written to
// the remote record; the pause lives entirely in the override store.
func (s *Session) Pause() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	if s.statusLocked() != StatusRunning {
		return Snapshot{}, ErrNotRunning
	}

	now := s.now()
	remaining, err := RemainingSeconds(*s.subject.StartedAt, *s.subject.DurationSeconds, now)
	if err != nil {
		return Snapshot{}, err
	}

	s.pauses.Save(s.subject.ID, Override{
		StartedAt:               *s.subject.StartedAt,
		DurationSeconds:         *s.subject.DurationSeconds,
		RemainingSecondsAtPause: remaining,
		SubjectUpdatedAt:        s.subject.UpdatedAt,
	})
	s.stopTickerLocked()

	snap := s.snapshotLocked(now)
	s.publishLocked(snap)
	return snap, nil
}

// Resume lifts a local pause by restarting the countdown with a start time
// shifted so the elapsed share matches what had already run. The override is
// kept until the remote write succeeds, so a failed resume stays paused.
func (s *Session) Resume(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.statusLocked() != StatusPaused {
		s.mu.Unlock()
		return Snapshot{}, ErrNotPaused
	}
	ov, ok := s.pauses.Load(s.subject)
	if !ok {
		s.mu.Unlock()
		return Snapshot{}, ErrNotPaused
	}
	id, duration := s.subject.ID, *s.subject.DurationSeconds
	startAt := s.now().Add(-time.Duration(duration-ov.RemainingSecondsAtPause) * time.Second)
	s.mu.Unlock()

	updated, err := s.remote.StartTimer(ctx, id, duration, startAt)
	if err != nil {
		return Snapshot{}, err
	}
	return s.adopt(updated), nil
}

// Restart begins a fresh countdown from any non-idle state, clearing a
// previous completion and any local pause.
func (s *Session) Restart(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.statusLocked() == StatusNotStarted {
		s.mu.Unlock()
		return Snapshot{}, ErrNotStarted
	}
	if s.subject.DurationSeconds == nil || *s.subject.DurationSeconds <= 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrInvalidDuration
	}
	id, duration, startAt := s.subject.ID, *s.subject.DurationSeconds, s.now()
	s.mu.Unlock()

	updated, err := s.remote.StartTimer(ctx, id, duration, startAt)
	if err != nil {
		return Snapshot{}, err
	}
	return s.adopt(updated), nil
}

// SetVisible gates the tick loop. Going hidden tears the ticker down; coming
// back recomputes from the wall clock immediately, so a countdown that
// expired off-screen completes on this call rather than one tick later.
func (s *Session) SetVisible(visible bool) Snapshot {
	s.mu.Lock()
	s.visible = visible
	if !visible {
		s.stopTickerLocked()
		snap := s.snapshotLocked(s.now())
		s.mu.Unlock()
		return snap
	}

	now := s.now()
	snap := s.snapshotLocked(now)
	if snap.Status == StatusRunning && snap.RemainingSeconds == 0 {
		s.autoCompleteLocked(now)
		snap = s.snapshotLocked(now)
	} else {
		s.reconcileTickerLocked()
	}
	s.publishLocked(snap)
	s.mu.Unlock()
	return snap
}

// Refresh adopts a fresh remote snapshot of the subject, picked up before
// each operation so a restart from another session is observed here. A
// changed start time re-arms auto-completion for the new run; the pause
// store's own freshness check drops any orphaned override.
func (s *Session) Refresh(subject Subject) {
	s.mu.Lock()
	restarted := !sameTime(s.subject.StartedAt, subject.StartedAt)
	if restarted {
		s.completed = subject.CompletedAt != nil
	} else if s.completed && subject.CompletedAt == nil {
		// The completion write never landed on the record; re-arm so the
		// next look re-issues it instead of reviving a spent countdown.
		s.completed = false
	}
	s.subject = subject
	s.reconcileTickerLocked()
	s.mu.Unlock()
}

// Close tears down the tick loop and the event stream.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTickerLocked()
	close(s.events)
	s.mu.Unlock()
}

// Touch refreshes the session's idle clock.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// adopt installs the confirmed remote record after a successful mutation and
// restarts the tick loop for the new run.
func (s *Session) adopt(subject Subject) Snapshot {
	s.mu.Lock()
	s.subject = subject
	s.completed = subject.CompletedAt != nil
	s.pauses.Clear(subject.ID)
	s.reconcileTickerLocked()
	snap := s.snapshotLocked(s.now())
	s.publishLocked(snap)
	s.mu.Unlock()
	return snap
}

// autoCompleteLocked flips the subject to completed locally and issues the
// remote write without waiting on it. The write is idempotent on the remote
// side, so a duplicate from another session is harmless; a failure is logged
// and the next start/restart resynchronizes.
func (s *Session) autoCompleteLocked(now time.Time) {
	if s.completed {
		return
	}
	s.completed = true
	completedAt := now
	s.subject.CompletedAt = &completedAt
	s.pauses.Clear(s.subject.ID)
	s.stopTickerLocked()

	id := s.subject.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		updated, err := s.remote.CompleteTimer(ctx, id)
		if err != nil {
			s.logger.Error("timer completion not persisted", slog.String("subject", id), slog.String("error", err.Error()))
			return
		}
		s.mu.Lock()
		if s.subject.ID == updated.ID && s.completed {
			s.subject = updated
		}
		s.mu.Unlock()
	}()
}

// reconcileTickerLocked starts or stops the tick loop so it runs exactly
// while the timer is running and the watcher is visible.
func (s *Session) reconcileTickerLocked() {
	if s.closed || !s.visible || s.statusLocked() != StatusRunning {
		s.stopTickerLocked()
		return
	}
	if s.cancel != nil {
		return
	}

	cancel := make(chan struct{})
	s.cancel = cancel
	go s.run(cancel)
}

func (s *Session) stopTickerLocked() {
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
}

func (s *Session) run(cancel chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.cancel != cancel {
				// Torn down while this tick was in flight.
				s.mu.Unlock()
				return
			}
			now := s.now()
			snap := s.snapshotLocked(now)
			if snap.Status == StatusRunning && snap.RemainingSeconds == 0 {
				s.autoCompleteLocked(now)
				snap = s.snapshotLocked(now)
			}
			if snap.Status != StatusRunning {
				s.stopTickerLocked()
			}
			s.publishLocked(snap)
			s.mu.Unlock()
			if snap.Status != StatusRunning {
				return
			}

		case <-cancel:
			return
		}
	}
}

func (s *Session) publishLocked(snap Snapshot) {
	if s.closed {
		return
	}
	// A published frame counts as activity, so a watcher that only listens
	// to the event stream is not evicted mid-countdown.
	s.lastSeen = time.Now()
	select {
	case s.events <- snap:
	default:
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
