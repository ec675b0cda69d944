package timer

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Override is a local pause record. It is never synced to the remote subject;
// it only shifts what this session displays until the user resumes.
type Override struct {
	StartedAt               time.Time `json:"started_at"`
	DurationSeconds         int64     `json:"duration_seconds"`
	RemainingSecondsAtPause int64     `json:"remaining_seconds_at_pause"`
	SubjectUpdatedAt        time.Time `json:"subject_updated_at"`
}

// matches reports whether the override still describes the subject's current
// countdown. A restart from anywhere changes started_at and orphans the
// override.
func (o Override) matches(s Subject) bool {
	if s.StartedAt == nil || s.DurationSeconds == nil {
		return false
	}
	return o.StartedAt.Equal(*s.StartedAt) && o.DurationSeconds == *s.DurationSeconds
}

// PauseStore holds local pause overrides keyed by subject id. Every
// implementation must degrade to a no-op on failure: a pause that cannot be
// stored is a lost convenience, never an error the caller sees.
type PauseStore interface {
	Save(subjectID string, ov Override)

	// Load returns the override for the subject only while it is still
	// fresh; a stale entry is discarded and reported as absent.
	Load(subject Subject) (Override, bool)

	Clear(subjectID string)
}

// FileStore keeps one JSON file per subject under dir.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

func (f *FileStore) path(subjectID string) string {
	return filepath.Join(f.dir, subjectID+".json")
}

func (f *FileStore) Save(subjectID string, ov Override) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		f.logger.Warn("pause not stored", slog.String("subject", subjectID), slog.String("error", err.Error()))
		return
	}
	data, err := json.Marshal(ov)
	if err != nil {
		f.logger.Warn("pause not stored", slog.String("subject", subjectID), slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(f.path(subjectID), data, 0o644); err != nil {
		f.logger.Warn("pause not stored", slog.String("subject", subjectID), slog.String("error", err.Error()))
	}
}

func (f *FileStore) Load(subject Subject) (Override, bool) {
	data, err := os.ReadFile(f.path(subject.ID))
	if err != nil {
		return Override{}, false
	}

	var ov Override
	if err := json.Unmarshal(data, &ov); err != nil {
		f.logger.Warn("discarding unreadable pause record", slog.String("subject", subject.ID))
		f.Clear(subject.ID)
		return Override{}, false
	}
	if !ov.matches(subject) {
		f.Clear(subject.ID)
		return Override{}, false
	}
	return ov, true
}

func (f *FileStore) Clear(subjectID string) {
	_ = os.Remove(f.path(subjectID))
}

// MemoryStore is an in-process PauseStore for tests and single-run tools.
type MemoryStore struct {
	mu        sync.Mutex
	overrides map[string]Override
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{overrides: make(map[string]Override)}
}

func (m *MemoryStore) Save(subjectID string, ov Override) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[subjectID] = ov
}

func (m *MemoryStore) Load(subject Subject) (Override, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ov, ok := m.overrides[subject.ID]
	if !ok {
		return Override{}, false
	}
	if !ov.matches(subject) {
		delete(m.overrides, subject.ID)
		return Override{}, false
	}
	return ov, true
}

func (m *MemoryStore) Clear(subjectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, subjectID)
}
