package game

import (
	"testing"
	"time"

	"github.com/fourinarow/engine/internal/domain"
)

func TestSessionManagerLifecycle(t *testing.T) {
	sm := NewSessionManager(fixedMover{}, Options{Mode: domain.ModeTwoPlayer, Difficulty: domain.DifficultyEasy})

	s, err := sm.CreateSession("", domain.DifficultyMedium)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	snap := s.Snapshot()
	if snap.Mode != domain.ModeTwoPlayer || snap.Difficulty != domain.DifficultyMedium {
		t.Fatalf("settings = %s/%s", snap.Mode, snap.Difficulty)
	}

	got, ok := sm.GetSession(s.ID)
	if !ok || got != s {
		t.Fatalf("GetSession did not return the created session")
	}
	if sm.Count() != 1 {
		t.Fatalf("Count = %d", sm.Count())
	}

	if err := sm.RemoveSession(s.ID); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	if _, ok := sm.GetSession(s.ID); ok {
		t.Fatalf("session still present after removal")
	}
	if err := sm.RemoveSession(s.ID); err == nil {
		t.Fatalf("removing twice should fail")
	}
}

func TestSessionManagerRejectsBadSize(t *testing.T) {
	sm := NewSessionManager(fixedMover{}, Options{Rows: 2, Columns: 2})
	if _, err := sm.CreateSession("", ""); err == nil {
		t.Fatalf("expected an error for a 2x2 board")
	}
	if sm.Count() != 0 {
		t.Fatalf("failed session was registered")
	}
}

func TestCleanupIdleSessions(t *testing.T) {
	sm := NewSessionManager(fixedMover{}, Options{Mode: domain.ModeTwoPlayer})
	idle, _ := sm.CreateSession("", "")
	busy, _ := sm.CreateSession("", "")

	later := time.Now().Add(30 * time.Minute)
	idle.mu.Lock()
	idle.lastActivity = later.Add(-2 * time.Hour)
	idle.mu.Unlock()

	if n := sm.cleanupIdle(later, time.Hour); n != 1 {
		t.Fatalf("removed %d sessions, want 1", n)
	}
	if _, ok := sm.GetSession(idle.ID); ok {
		t.Fatalf("idle session survived")
	}
	if _, ok := sm.GetSession(busy.ID); !ok {
		t.Fatalf("active session was removed")
	}
	if n := sm.CleanupIdleSessions(time.Hour); n != 0 {
		t.Fatalf("fresh sessions removed: %d", n)
	}
}
