// Package booking implements the customer-facing reservation session: the
// state machine that carries a seat selection through claim and confirmation
// while the claim ledger guarantees no seat is sold twice.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/reconcile"
)

// MaxSeatsPerSession caps how many seats one session may select.
const MaxSeatsPerSession = 8

// State is the lifecycle position of a session.
type State string

const (
	StateSelecting State = "SELECTING"
	StateAwaiting  State = "AWAITING_CONFIRMATION"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
	StateExpired   State = "EXPIRED"
)

var (
	// ErrMaxSeats is returned by Select once the cap is reached.
	ErrMaxSeats = errors.New("max 8 seats")
	// ErrSeatUnavailable is returned when the selected seat is not Available
	// in the current view.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrEmptySelection is returned by Proceed with nothing selected.
	ErrEmptySelection = errors.New("no seats selected")
	// ErrInvalidState is returned when an operation does not apply to the
	// session's current state.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// SeatClaimer is the slice of the booking backend a session needs: an
// all-or-nothing claim of a seat set and a release of a previous claim. The
// production implementation wraps the claim ledger plus hold persistence.
type SeatClaimer interface {
	Claim(ctx context.Context, showtimeID uint64, sessionID string, seatIDs []uint64) (claim.Claim, error)
	Release(ctx context.Context, showtimeID uint64, sessionID string) error
}

// PriceTable maps a seat type to its price in cents for one showtime.
type PriceTable map[string]int64

// Session tracks one customer's seat selection for one showtime. Methods
// are safe for concurrent use; a session is commonly touched by both the
// request path and the expiry sweep.
type Session struct {
	ID         string
	UserID     uint64
	ShowtimeID uint64

	mu        sync.Mutex
	state     State
	selected  []uint64 // selection order preserved
	seatTypes map[uint64]string
	prices    PriceTable
	coupon    *Coupon
	claim     claim.Claim
	touched   time.Time
}

// NewSession creates a session in Selecting with a fresh id. The id embeds
// the owning user so backends receiving only a session id (the SeatClaimer)
// can attribute persisted holds; SessionUserID recovers it.
func NewSession(userID, showtimeID uint64, prices PriceTable) *Session {
	return &Session{
		ID:         fmt.Sprintf("%d:%s", userID, uuid.NewString()),
		UserID:     userID,
		ShowtimeID: showtimeID,
		state:      StateSelecting,
		seatTypes:  make(map[uint64]string),
		prices:     prices,
		touched:    time.Now().UTC(),
	}
}

// SessionUserID extracts the user id embedded in a session id. It returns
// 0 for ids not produced by NewSession.
func SessionUserID(sessionID string) uint64 {
	prefix, _, ok := strings.Cut(sessionID, ":")
	if !ok {
		return 0
	}
	uid, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return uid
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TouchedAt reports when the customer last acted on the session. The
// manager's sweep abandons Selecting sessions that have been untouched for
// too long.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Selected returns the selection in the order seats were picked.
func (s *Session) Selected() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.selected...)
}

// Select adds a seat to the selection. The seat must be Available in the
// caller's freshly reconciled view and the selection must be under the cap.
// Selecting an already-selected seat is a no-op.
func (s *Session) Select(seat reconcile.SeatView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting {
		return ErrInvalidState
	}
	if _, ok := s.seatTypes[seat.LayoutID]; ok {
		return nil
	}
	if seat.Status != reconcile.StatusAvailable {
		return ErrSeatUnavailable
	}
	if len(s.selected) >= MaxSeatsPerSession {
		return ErrMaxSeats
	}
	s.selected = append(s.selected, seat.LayoutID)
	s.seatTypes[seat.LayoutID] = seat.SeatType
	s.touched = time.Now().UTC()
	return nil
}

// Deselect removes a seat from the selection. It is always allowed while
// selecting, including for ids that were never selected.
func (s *Session) Deselect(layoutID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting {
		return ErrInvalidState
	}
	if _, ok := s.seatTypes[layoutID]; !ok {
		return nil
	}
	delete(s.seatTypes, layoutID)
	for i, id := range s.selected {
		if id == layoutID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			break
		}
	}
	s.touched = time.Now().UTC()
	return nil
}

// Proceed asks the claimer to atomically take every selected seat. On
// success the session moves to AwaitingConfirmation and carries the claim
// deadline. On any failure, conflict included, the session stays in
// Selecting with its selection intact so the customer can adjust; the
// caller should recompute the availability view so the lost seats show as
// Occupied.
func (s *Session) Proceed(ctx context.Context, claimer SeatClaimer) (claim.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSelecting {
		return claim.Claim{}, ErrInvalidState
	}
	if len(s.selected) == 0 {
		return claim.Claim{}, ErrEmptySelection
	}
	granted, err := claimer.Claim(ctx, s.ShowtimeID, s.ID, append([]uint64(nil), s.selected...))
	if err != nil {
		return claim.Claim{}, err
	}
	s.claim = granted
	s.state = StateAwaiting
	s.touched = time.Now().UTC()
	return granted, nil
}

// Confirm finalizes the session after external payment confirmation. The
// caller persists the booking; Confirm only transitions state and reports
// the charged total.
func (s *Session) Confirm() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaiting {
		return 0, ErrInvalidState
	}
	s.state = StateConfirmed
	return s.totalLocked(), nil
}

// Cancel terminates the session from any non-terminal state and releases
// its claim if one was granted. Cancelling twice is harmless.
func (s *Session) Cancel(ctx context.Context, claimer SeatClaimer) error {
	s.mu.Lock()
	if s.state == StateConfirmed || s.state == StateCancelled || s.state == StateExpired {
		s.mu.Unlock()
		return nil
	}
	hadClaim := s.state == StateAwaiting
	s.state = StateCancelled
	s.mu.Unlock()
	if hadClaim && claimer != nil {
		return claimer.Release(ctx, s.ShowtimeID, s.ID)
	}
	return nil
}

// Expire moves the session to Expired when its claim deadline has passed.
// Terminal states are left untouched. It reports whether the transition
// happened on this call, so double expiry (timer plus explicit cancel)
// releases seats exactly once.
func (s *Session) Expire(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConfirmed, StateCancelled, StateExpired:
		return false
	}
	if s.state == StateAwaiting && s.claim.ExpiresAt.After(now) {
		return false
	}
	if s.state == StateSelecting {
		return false
	}
	s.state = StateExpired
	return true
}

// MarkExpired forces the terminal Expired state from any non-terminal
// state, deadline or not. The session manager uses it when abandoning idle
// sessions. It reports whether a transition happened.
func (s *Session) MarkExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConfirmed, StateCancelled, StateExpired:
		return false
	}
	s.state = StateExpired
	return true
}

// ApplyCoupon attaches a coupon to the session. It only affects money; seat
// state is untouched.
func (s *Session) ApplyCoupon(c Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = &c
}

// Subtotal is the undiscounted price of the selection in cents.
func (s *Session) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

// Total is the subtotal after the coupon, if any.
func (s *Session) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// Claim returns the granted claim, valid once the session reached
// AwaitingConfirmation.
func (s *Session) Claim() claim.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claim
}

func (s *Session) subtotalLocked() int64 {
	var sum int64
	for _, id := range s.selected {
		sum += s.prices[s.seatTypes[id]]
	}
	return sum
}

func (s *Session) totalLocked() int64 {
	subtotal := s.subtotalLocked()
	if s.coupon == nil {
		return subtotal
	}
	return s.coupon.Apply(subtotal)
}
