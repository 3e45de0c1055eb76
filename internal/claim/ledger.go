// Package claim serializes seat claims. A claim is a time-boxed exclusive
// hold on a set of seats for one session and one showtime; the ledger
// guarantees that a multi-seat claim is granted all of its seats or none of
// them, so two sessions can never hold the same seat at the same time.
package claim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds how long a granted claim blocks other sessions before
// the sweeper releases it.
const DefaultTTL = 5 * time.Minute

// Claim is a granted hold. Token is opaque to the ledger and returned to
// the client for correlation.
type Claim struct {
	Token      string
	SessionID  string
	ShowtimeID uint64
	SeatIDs    []uint64
	ExpiresAt  time.Time
}

// ConflictError reports a lost race: at least one requested seat was already
// held or the request was otherwise unsatisfiable. Nothing has been claimed
// when it is returned.
type ConflictError struct {
	UnavailableIDs []uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.UnavailableIDs)
}

type hold struct {
	token     string
	sessionID string
	seatIDs   []uint64
	expiresAt time.Time
}

// showLedger tracks holds for one showtime. Contention is scoped here so
// claims on unrelated showtimes never block each other.
type showLedger struct {
	mu        sync.Mutex
	bySeat    map[uint64]*hold
	bySession map[string]*hold
}

// Ledger is the in-process claim authority. All methods are safe for
// concurrent use.
type Ledger struct {
	mu    sync.Mutex
	shows map[uint64]*showLedger
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTTL overrides the default claim lifetime.
func WithTTL(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithClock injects the time source, used by tests to force expiry.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger returns an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		shows: make(map[uint64]*showLedger),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) show(showtimeID uint64) *showLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.shows[showtimeID]
	if !ok {
		s = &showLedger{
			bySeat:    make(map[uint64]*hold),
			bySession: make(map[string]*hold),
		}
		l.shows[showtimeID] = s
	}
	return s
}

// dropExpiredLocked removes lapsed holds. Caller holds s.mu.
func (s *showLedger) dropExpiredLocked(now time.Time) {
	for sessionID, h := range s.bySession {
		if h.expiresAt.After(now) {
			continue
		}
		for _, id := range h.seatIDs {
			if s.bySeat[id] == h {
				delete(s.bySeat, id)
			}
		}
		delete(s.bySession, sessionID)
	}
}

// Acquire grants an exclusive hold on every requested seat, or fails with a
// *ConflictError naming every seat currently held by another session. The
// check and the grant happen under one lock, so a partially granted claim is
// impossible. A session holds at most one claim per showtime; acquiring
// again replaces the previous claim, releasing its seats first.
func (l *Ledger) Acquire(showtimeID uint64, sessionID string, seatIDs []uint64) (Claim, error) {
	if sessionID == "" || len(seatIDs) == 0 {
		return Claim{}, &ConflictError{}
	}
	ids := dedupe(seatIDs)
	now := l.now()
	s := l.show(showtimeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(now)

	var contested []uint64
	for _, id := range ids {
		if h, taken := s.bySeat[id]; taken && h.sessionID != sessionID {
			contested = append(contested, id)
		}
	}
	if len(contested) > 0 {
		return Claim{}, &ConflictError{UnavailableIDs: contested}
	}

	if prev, ok := s.bySession[sessionID]; ok {
		for _, id := range prev.seatIDs {
			if s.bySeat[id] == prev {
				delete(s.bySeat, id)
			}
		}
		delete(s.bySession, sessionID)
	}

	h := &hold{
		token:     uuid.NewString(),
		sessionID: sessionID,
		seatIDs:   ids,
		expiresAt: now.Add(l.ttl),
	}
	for _, id := range ids {
		s.bySeat[id] = h
	}
	s.bySession[sessionID] = h

	return Claim{
		Token:      h.token,
		SessionID:  sessionID,
		ShowtimeID: showtimeID,
		SeatIDs:    append([]uint64(nil), ids...),
		ExpiresAt:  h.expiresAt,
	}, nil
}

// Release frees the session's claim for the showtime and returns the seat
// ids that were held. Releasing an absent or already-expired claim is not an
// error; it returns nil and releases nothing twice.
func (l *Ledger) Release(showtimeID uint64, sessionID string) []uint64 {
	s := l.show(showtimeID)
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	for _, id := range h.seatIDs {
		if s.bySeat[id] == h {
			delete(s.bySeat, id)
		}
	}
	delete(s.bySession, sessionID)
	return append([]uint64(nil), h.seatIDs...)
}

// PendingSeatIDs returns the seats currently held by any non-expired claim
// for the showtime, in ascending order.
func (l *Ledger) PendingSeatIDs(showtimeID uint64) []uint64 {
	now := l.now()
	s := l.show(showtimeID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(now)
	ids := make([]uint64, 0, len(s.bySeat))
	for id := range s.bySeat {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SessionClaim reports the session's active claim for the showtime.
func (l *Ledger) SessionClaim(showtimeID uint64, sessionID string) (Claim, bool) {
	now := l.now()
	s := l.show(showtimeID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(now)
	h, ok := s.bySession[sessionID]
	if !ok {
		return Claim{}, false
	}
	return Claim{
		Token:      h.token,
		SessionID:  sessionID,
		ShowtimeID: showtimeID,
		SeatIDs:    append([]uint64(nil), h.seatIDs...),
		ExpiresAt:  h.expiresAt,
	}, true
}

// ReleaseExpired drops every lapsed claim across all showtimes and returns
// the number of claims released. Running it twice over the same lapsed
// claims releases each exactly once.
func (l *Ledger) ReleaseExpired() int {
	now := l.now()
	l.mu.Lock()
	shows := make([]*showLedger, 0, len(l.shows))
	for _, s := range l.shows {
		shows = append(shows, s)
	}
	l.mu.Unlock()

	released := 0
	for _, s := range shows {
		s.mu.Lock()
		before := len(s.bySession)
		s.dropExpiredLocked(now)
		released += before - len(s.bySession)
		s.mu.Unlock()
	}
	return released
}

// Sweep periodically enforces expiry until the context is cancelled. Expiry
// is thereby a server-side guarantee and does not rely on clients releasing
// their claims.
func (l *Ledger) Sweep(ctx context.Context, interval time.Duration) {
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
			l.ReleaseExpired()
		}
	}
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
