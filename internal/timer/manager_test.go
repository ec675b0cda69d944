package timer

import (
	"errors"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(), &stubMutator{}, nil, time.Hour, time.Hour)
}

func TestManagerOpenAndGet(t *testing.T) {
	m := newTestManager()

	session := m.Open(Subject{ID: "42"})
	defer session.Close()

	if session.ID() == "" {
		t.Fatalf("expected a session id")
	}

	got, ok := m.Get(session.ID())
	if !ok {
		t.Fatalf("expected session to exist")
	}
	if got.ID() != session.ID() {
		t.Fatalf("expected session %s, got %s", session.ID(), got.ID())
	}
}

func TestManagerDistinctSessionsPerWatcher(t *testing.T) {
	m := newTestManager()

	a := m.Open(Subject{ID: "42"})
	defer a.Close()
	b := m.Open(Subject{ID: "42"})
	defer b.Close()

	if a.ID() == b.ID() {
		t.Fatalf("two watchers of the same subject must get distinct sessions")
	}
}

func TestManagerClose(t *testing.T) {
	m := newTestManager()

	session := m.Open(Subject{ID: "42"})
	if err := m.Close(session.ID()); err != nil {
		t.Fatalf("unexpected error closing session: %v", err)
	}

	if _, ok := m.Get(session.ID()); ok {
		t.Fatalf("expected closed session to be forgotten")
	}
	if err := m.Close(session.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double close err = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerEventsMissing(t *testing.T) {
	m := newTestManager()

	if _, ok := m.Events("missing"); ok {
		t.Fatalf("expected no events channel for a missing session")
	}
}

func TestManagerKeepsStreamedSessionAlive(t *testing.T) {
	m := NewManager(NewMemoryStore(), &stubMutator{}, nil, 10*time.Millisecond, 100*time.Millisecond)

	started := time.Now()
	duration := int64(3600)
	running := m.Open(Subject{ID: "42", DurationSeconds: &duration, StartedAt: &started})
	defer running.Close()
	idle := m.Open(Subject{ID: "43"})
	defer idle.Close()

	// Outlive the ttl while the running session keeps publishing frames and
	// the idle one stays silent.
	time.Sleep(250 * time.Millisecond)
	m.cleanupIdleSessions()

	if _, ok := m.Get(running.ID()); !ok {
		t.Fatalf("a session still streaming ticks must not be evicted")
	}
	if _, ok := m.Get(idle.ID()); ok {
		t.Fatalf("expected the silent session to be evicted after the ttl")
	}
}

func TestManagerPeekShowsSharedPause(t *testing.T) {
	pauses := NewMemoryStore()
	m := NewManager(pauses, &stubMutator{}, nil, time.Hour, time.Hour)

	started := time.Now().Add(-30 * time.Second)
	duration := int64(600)
	subject := Subject{ID: "42", DurationSeconds: &duration, StartedAt: &started}

	if got := m.Peek(subject).Status; got != StatusRunning {
		t.Fatalf("status before pause = %s, want running", got)
	}

	pauses.Save(subject.ID, Override{
		StartedAt:               started,
		DurationSeconds:         duration,
		RemainingSecondsAtPause: 570,
	})

	snap := m.Peek(subject)
	if snap.Status != StatusPaused {
		t.Fatalf("status after pause = %s, want paused", snap.Status)
	}
	if snap.RemainingSeconds != 570 {
		t.Fatalf("remaining = %d, want 570", snap.RemainingSeconds)
	}
}
