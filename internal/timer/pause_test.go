package timer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testSubject(started time.Time, duration int64) Subject {
	return Subject{
		ID:              "42",
		DurationSeconds: &duration,
		StartedAt:       &started,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	subject := testSubject(started, 1800)

	store.Save(subject.ID, Override{
		StartedAt:               started,
		DurationSeconds:         1800,
		RemainingSecondsAtPause: 1200,
	})

	ov, ok := store.Load(subject)
	if !ok {
		t.Fatalf("expected override to load")
	}
	if ov.RemainingSecondsAtPause != 1200 {
		t.Fatalf("remaining at pause = %d, want 1200", ov.RemainingSecondsAtPause)
	}

	store.Clear(subject.ID)
	if _, ok := store.Load(subject); ok {
		t.Fatalf("expected override to be gone after clear")
	}
}

func TestFileStoreDiscardsStaleOverride(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	store.Save("42", Override{
		StartedAt:               started,
		DurationSeconds:         1800,
		RemainingSecondsAtPause: 1200,
	})

	// The subject was restarted elsewhere: a new started_at invalidates the
	// recorded pause.
	restarted := started.Add(10 * time.Minute)
	if _, ok := store.Load(testSubject(restarted, 1800)); ok {
		t.Fatalf("expected stale override to be discarded")
	}

	// The discard is permanent even for the original timestamps.
	if _, ok := store.Load(testSubject(started, 1800)); ok {
		t.Fatalf("expected stale override to have been cleared")
	}
}

func TestFileStoreDiscardsChangedDuration(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	store.Save("42", Override{
		StartedAt:               started,
		DurationSeconds:         1800,
		RemainingSecondsAtPause: 1200,
	})

	if _, ok := store.Load(testSubject(started, 900)); ok {
		t.Fatalf("expected override with mismatched duration to be discarded")
	}
}

func TestFileStoreToleratesCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, nil)

	if err := os.WriteFile(filepath.Join(dir, "42.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	started := time.Now()
	if _, ok := store.Load(testSubject(started, 60)); ok {
		t.Fatalf("expected corrupt override to be treated as absent")
	}
	if _, err := os.Stat(filepath.Join(dir, "42.json")); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt record to be removed")
	}
}

func TestFileStoreDegradesWhenUnwritable(t *testing.T) {
	// Pointing at a path whose parent is a file makes every write fail; the
	// store must swallow that rather than surface it.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}

	store := NewFileStore(filepath.Join(blocker, "pauses"), nil)
	store.Save("42", Override{DurationSeconds: 60})

	if _, ok := store.Load(testSubject(time.Now(), 60)); ok {
		t.Fatalf("expected no override from unwritable store")
	}
	store.Clear("42")
}

func TestMemoryStoreInvalidation(t *testing.T) {
	store := NewMemoryStore()

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	store.Save("7", Override{StartedAt: started, DurationSeconds: 300, RemainingSecondsAtPause: 120})

	subject := testSubject(started, 300)
	subject.ID = "7"
	if _, ok := store.Load(subject); !ok {
		t.Fatalf("expected fresh override to load")
	}

	restarted := started.Add(time.Minute)
	subject.StartedAt = &restarted
	if _, ok := store.Load(subject); ok {
		t.Fatalf("expected stale override to be discarded")
	}
}
