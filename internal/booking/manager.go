package booking

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SelectingIdleTTL bounds how long a Selecting session may sit untouched
// before the sweep abandons it. Selecting sessions hold no claims, so the
// limit only caps memory, not seat availability.
const SelectingIdleTTL = 30 * time.Minute

// Manager owns the live reservation sessions, one per (user, showtime).
// Sessions are in-memory state; only claims and bookings persist.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func sessionKey(userID, showtimeID uint64) string {
	return fmt.Sprintf("%d:%d", userID, showtimeID)
}

// GetOrCreate returns the user's session for the showtime, creating one in
// Selecting when none exists or the previous one reached a terminal state.
func (m *Manager) GetOrCreate(userID, showtimeID uint64, prices PriceTable) *Session {
	key := sessionKey(userID, showtimeID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		switch s.State() {
		case StateConfirmed, StateCancelled, StateExpired:
		default:
			return s
		}
	}
	s := NewSession(userID, showtimeID, prices)
	m.sessions[key] = s
	return s
}

// Get returns the user's live session for the showtime, if any.
func (m *Manager) Get(userID, showtimeID uint64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey(userID, showtimeID)]
	return s, ok
}

// Remove drops the session; used once it reaches a terminal state.
func (m *Manager) Remove(userID, showtimeID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(userID, showtimeID))
}

// ExpireDue walks all sessions, expires those whose claim deadline has
// passed and releases their claims, and abandons Selecting sessions that
// sat untouched past SelectingIdleTTL. Sessions reaching a terminal state
// are dropped from the manager, so a customer who selects seats and walks
// away does not leave state behind. It returns the number of sessions
// expired on this pass; a session already expired by a previous pass is not
// counted or released again.
func (m *Manager) ExpireDue(ctx context.Context, now time.Time, claimer SeatClaimer) int {
	m.mu.Lock()
	live := make(map[string]*Session, len(m.sessions))
	for k, s := range m.sessions {
		live[k] = s
	}
	m.mu.Unlock()

	expired := 0
	for key, s := range live {
		switch {
		case s.Expire(now):
			expired++
			if claimer != nil {
				_ = claimer.Release(ctx, s.ShowtimeID, s.ID)
			}
		case s.State() == StateSelecting && now.Sub(s.TouchedAt()) >= SelectingIdleTTL:
			// Selecting sessions hold no claim; nothing to release.
			if s.MarkExpired() {
				expired++
			}
		}
		if isTerminal(s.State()) {
			m.mu.Lock()
			if cur, ok := m.sessions[key]; ok && cur == s {
				delete(m.sessions, key)
			}
			m.mu.Unlock()
		}
	}
	return expired
}

func isTerminal(st State) bool {
	switch st {
	case StateConfirmed, StateCancelled, StateExpired:
		return true
	}
	return false
}

// Sweep runs ExpireDue on a ticker until the context is cancelled, making
// claim expiry a server-side guarantee.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration, claimer SeatClaimer) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ExpireDue(ctx, time.Now().UTC(), claimer)
		}
	}
}
