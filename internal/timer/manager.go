package timer

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("timer session not found")

// Manager owns the live timer sessions. Each watcher (one widget instance,
// one tab) gets its own session; sessions for the same subject do not
// coordinate with each other, the remote record settles who wins.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	pauses PauseStore
	remote Mutator
	logger *slog.Logger
	tick   time.Duration
	ttl    time.Duration
}

func NewManager(pauses PauseStore, remote Mutator, logger *slog.Logger, tick, ttl time.Duration) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tick <= 0 {
		tick = time.Second
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		pauses:   pauses,
		remote:   remote,
		logger:   logger,
		tick:     tick,
		ttl:      ttl,
	}

	go m.cleanupLoop()

	return m
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanupIdleSessions()
	}
}

func (m *Manager) cleanupIdleSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.ttl)
	for id, session := range m.sessions {
		if session.idleSince().Before(cutoff) {
			session.Close()
			delete(m.sessions, id)
		}
	}
}

// Open registers a new session watching subject and returns it.
func (m *Manager) Open(subject Subject) *Session {
	session := NewSession(uuid.New().String(), subject, m.pauses, m.remote, m.logger, m.tick)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("timer session opened", slog.String("session", session.ID()), slog.String("subject", subject.ID))
	return session
}

// Get returns a session and refreshes its idle clock.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		session.Touch()
	}
	return session, ok
}

// Close tears a session down and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// Peek derives a one-off frame for subject without opening a session. List
// views use this for the compact glyph; a pause recorded by any session on
// this profile shows through because the override store is shared.
func (m *Manager) Peek(subject Subject) Snapshot {
	return buildSnapshot(subject, m.pauses, time.Now())
}

// Events exposes a session's snapshot stream.
func (m *Manager) Events(id string) (<-chan Snapshot, bool) {
	session, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return session.Events(), true
}
