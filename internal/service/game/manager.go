package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/pkg/logger"
	"github.com/fourinarow/engine/pkg/uid"
)

// SessionManager manages active game sessions
type SessionManager struct {
	sessions map[string]*GameSession // sessionID → GameSession
	mu       sync.RWMutex
	mover    Mover
	defaults Options
}

func NewSessionManager(mover Mover, defaults Options) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*GameSession),
		mover:    mover,
		defaults: defaults,
	}
}

// CreateSession starts a session. Empty mode or difficulty fall back to the
// manager's defaults.
func (sm *SessionManager) CreateSession(mode domain.Mode, difficulty domain.Difficulty) (*GameSession, error) {
	opts := sm.defaults
	if mode != "" {
		opts.Mode = mode
	}
	if difficulty != "" {
		opts.Difficulty = difficulty
	}

	session, err := NewGameSession(uid.NewSessionID(), sm.mover, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	logger.Info("session", "created %s (%s, %s)", session.ID, opts.Mode, opts.Difficulty)
	return session, nil
}

func (sm *SessionManager) GetSession(id string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[id]
	return session, exists
}

func (sm *SessionManager) RemoveSession(id string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[id]
	if !exists {
		sm.mu.Unlock()
		return fmt.Errorf("session %s not found", id)
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()

	session.Close()
	logger.Info("session", "removed %s", id)
	return nil
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupIdleSessions removes sessions with no activity for longer than maxIdle
// and returns how many were removed.
func (sm *SessionManager) CleanupIdleSessions(maxIdle time.Duration) int {
	return sm.cleanupIdle(time.Now(), maxIdle)
}

func (sm *SessionManager) cleanupIdle(now time.Time, maxIdle time.Duration) int {
	sm.mu.Lock()
	var stale []*GameSession
	for id, session := range sm.sessions {
		if now.Sub(session.LastActivity()) > maxIdle {
			stale = append(stale, session)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	if len(stale) > 0 {
		logger.Info("session", "memory cleanup: removed %d idle sessions", len(stale))
	}
	return len(stale)
}
