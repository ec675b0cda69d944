package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type stubMutator struct {
	mu       sync.Mutex
	err      error
	subject  Subject
	starts   []time.Time
	complete int
}

func (m *stubMutator) StartTimer(_ context.Context, id string, durationSeconds int64, startAt time.Time) (Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Subject{}, m.err
	}

	started := startAt
	duration := durationSeconds
	m.subject = Subject{ID: id, DurationSeconds: &duration, StartedAt: &started, UpdatedAt: time.Now()}
	m.starts = append(m.starts, startAt)
	return m.subject, nil
}

func (m *stubMutator) CompleteTimer(_ context.Context, id string) (Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.complete++
	if m.err != nil {
		return Subject{}, m.err
	}
	if m.subject.CompletedAt == nil {
		completed := time.Now()
		m.subject.CompletedAt = &completed
	}
	return m.subject, nil
}

func (m *stubMutator) startCalls() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.starts...)
}

func (m *stubMutator) completeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.complete
}

func i64(v int64) *int64 {
	return &v
}

// newIdleSession builds a not-yet-started session on a fake clock. The tick
// interval is an hour so tests drive time explicitly.
func newIdleSession(mut *stubMutator, clk *fakeClock, duration *int64) *Session {
	s := NewSession("test-session", Subject{ID: "42", DurationSeconds: duration}, NewMemoryStore(), mut, nil, time.Hour)
	s.now = clk.Now
	return s
}

func TestSessionStartRequiresDuration(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newIdleSession(&stubMutator{}, clk, nil)
	defer s.Close()

	if _, err := s.Start(context.Background()); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("Start without duration err = %v, want ErrInvalidDuration", err)
	}
	if got := s.Snapshot().Status; got != StatusNotStarted {
		t.Fatalf("status after failed start = %s, want not_started", got)
	}
}

func TestSessionStartRemoteFailureLeavesIdle(t *testing.T) {
	mut := &stubMutator{err: errors.New("backend down")}
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newIdleSession(mut, clk, i64(60))
	defer s.Close()

	if _, err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected start to surface the remote failure")
	}
	if got := s.Snapshot().Status; got != StatusNotStarted {
		t.Fatalf("status after failed start = %s, want not_started", got)
	}
}

func TestSessionPauseResumeRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mut := &stubMutator{}
	clk := &fakeClock{t: start}
	s := newIdleSession(mut, clk, i64(1800))
	defer s.Close()

	snap, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Status != StatusRunning {
		t.Fatalf("status after start = %s, want running", snap.Status)
	}

	clk.Advance(600 * time.Second)
	snap, err = s.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if snap.Status != StatusPaused {
		t.Fatalf("status after pause = %s, want paused", snap.Status)
	}
	if snap.RemainingSeconds != 1200 {
		t.Fatalf("remaining at pause = %d, want 1200", snap.RemainingSeconds)
	}
	if calls := mut.startCalls(); len(calls) != 1 {
		t.Fatalf("pause must not touch the remote record, saw %d start calls", len(calls))
	}

	// Five minutes pass while paused; the countdown must not move.
	clk.Advance(300 * time.Second)
	if got := s.Snapshot().RemainingSeconds; got != 1200 {
		t.Fatalf("remaining while paused = %d, want 1200", got)
	}

	snap, err = s.Resume(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if snap.Status != StatusRunning {
		t.Fatalf("status after resume = %s, want running", snap.Status)
	}
	if snap.RemainingSeconds != 1200 {
		t.Fatalf("remaining after resume = %d, want 1200", snap.RemainingSeconds)
	}

	calls := mut.startCalls()
	if len(calls) != 2 {
		t.Fatalf("expected resume to issue a synthetic restart, saw %d start calls", len(calls))
	}
	wantStart := start.Add(900 * time.Second).Add(-600 * time.Second)
	if !calls[1].Equal(wantStart) {
		t.Fatalf("resume start time = %v, want %v", calls[1], wantStart)
	}
}

func TestSessionResumeFailureStaysPaused(t *testing.T) {
	mut := &stubMutator{}
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newIdleSession(mut, clk, i64(600))
	defer s.Close()

	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(100 * time.Second)
	if _, err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	mut.mu.Lock()
	mut.err = errors.New("backend down")
	mut.mu.Unlock()

	if _, err := s.Resume(context.Background()); err == nil {
		t.Fatalf("expected resume to surface the remote failure")
	}

	snap := s.Snapshot()
	if snap.Status != StatusPaused {
		t.Fatalf("status after failed resume = %s, want paused", snap.Status)
	}
	if snap.RemainingSeconds != 500 {
		t.Fatalf("remaining after failed resume = %d, want 500", snap.RemainingSeconds)
	}
}

func TestSessionRestartFromNotStarted(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newIdleSession(&stubMutator{}, clk, i64(60))
	defer s.Close()

	if _, err := s.Restart(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("restart from idle err = %v, want ErrNotStarted", err)
	}
}

func TestSessionRestartClearsCompletion(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mut := &stubMutator{}
	clk := &fakeClock{t: start}
	s := newIdleSession(mut, clk, i64(60))
	defer s.Close()

	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	clk.Advance(61 * time.Second)
	if got := s.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status past expiry = %s, want completed", got)
	}

	snap, err := s.Restart(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if snap.Status != StatusRunning {
		t.Fatalf("status after restart = %s, want running", snap.Status)
	}
	if snap.RemainingSeconds != 60 {
		t.Fatalf("remaining after restart = %d, want 60", snap.RemainingSeconds)
	}
}

func TestSessionCatchUpCompletesExpiredTimer(t *testing.T) {
	// A 5 second countdown that started 10 seconds ago must read as
	// completed on the first look, not one tick later.
	started := time.Now().Add(-10 * time.Second)
	duration := int64(5)
	mut := &stubMutator{subject: Subject{ID: "42", DurationSeconds: &duration, StartedAt: &started}}

	s := NewSession("test-session", mut.subject, NewMemoryStore(), mut, nil, time.Hour)
	defer s.Close()
	s.SetVisible(false)

	snap := s.SetVisible(true)
	if snap.Status != StatusCompleted {
		t.Fatalf("status on regained visibility = %s, want completed", snap.Status)
	}
	if snap.RemainingSeconds != 0 {
		t.Fatalf("remaining on regained visibility = %d, want 0", snap.RemainingSeconds)
	}

	// The completion write is async; give it a moment, then confirm it went
	// out exactly once even as more frames are derived.
	time.Sleep(20 * time.Millisecond)
	s.Snapshot()
	s.Snapshot()
	if got := mut.completeCalls(); got != 1 {
		t.Fatalf("complete calls = %d, want 1", got)
	}
}

func TestSessionRefreshRetriesLostCompletion(t *testing.T) {
	started := time.Now().Add(-10 * time.Second)
	duration := int64(5)
	subject := Subject{ID: "42", DurationSeconds: &duration, StartedAt: &started}
	mut := &stubMutator{err: errors.New("backend down")}

	s := NewSession("test-session", subject, NewMemoryStore(), mut, nil, time.Hour)
	defer s.Close()

	if got := s.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status past expiry = %s, want completed", got)
	}
	time.Sleep(20 * time.Millisecond)
	if got := mut.completeCalls(); got != 1 {
		t.Fatalf("complete attempts = %d, want 1", got)
	}

	mut.mu.Lock()
	mut.err = nil
	mut.subject = subject
	mut.mu.Unlock()

	// The record still shows no completion for the same run; a refresh must
	// not leave the session stuck between a spent once-guard and a
	// not-completed record.
	s.Refresh(subject)
	if got := s.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status after refresh = %s, want completed", got)
	}
	time.Sleep(20 * time.Millisecond)
	if got := mut.completeCalls(); got != 2 {
		t.Fatalf("complete attempts after refresh = %d, want 2", got)
	}
}

func TestSessionHiddenStopsTicking(t *testing.T) {
	started := time.Now()
	duration := int64(3600)
	subject := Subject{ID: "42", DurationSeconds: &duration, StartedAt: &started}

	s := NewSession("test-session", subject, NewMemoryStore(), &stubMutator{}, nil, 10*time.Millisecond)
	defer s.Close()

	s.SetVisible(false)
	drain(s.Events())

	select {
	case snap := <-s.Events():
		t.Fatalf("unexpected tick while hidden: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}

	s.SetVisible(true)
	select {
	case snap := <-s.Events():
		if snap.Status != StatusRunning {
			t.Fatalf("catch-up frame status = %s, want running", snap.Status)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a catch-up frame after regaining visibility")
	}
}

func drain(ch <-chan Snapshot) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
