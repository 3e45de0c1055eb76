package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/repository"
)

// LedgerClaimer is the production SeatClaimer: the in-process claim ledger
// serializes contending sessions, and every granted claim is mirrored as
// seat_hold rows inside a transaction. The unique (showtime_id, seat_id)
// key on seat_holds backs the ledger up, so even a second server instance
// or a restarted process cannot double-grant a seat.
type LedgerClaimer struct {
	Ledger   *claim.Ledger
	DB       *sql.DB
	Holds    *repository.SeatHoldRepo
	Bookings *repository.BookingRepo
}

// NewLedgerClaimer wires the ledger to its persistence backstop.
func NewLedgerClaimer(ledger *claim.Ledger, db *sql.DB, holds *repository.SeatHoldRepo, bookings *repository.BookingRepo) *LedgerClaimer {
	if ledger == nil || db == nil || holds == nil || bookings == nil {
		panic("nil dependency passed to NewLedgerClaimer")
	}
	return &LedgerClaimer{Ledger: ledger, DB: db, Holds: holds, Bookings: bookings}
}

// Claim atomically takes every requested seat or none. The ledger grant
// comes first; the database transaction then re-checks confirmed bookings
// and foreign unexpired holds before persisting the hold rows. Any failure
// after the grant releases the ledger claim so nothing stays reserved.
func (lc *LedgerClaimer) Claim(ctx context.Context, showtimeID uint64, sessionID string, seatIDs []uint64) (claim.Claim, error) {
	granted, err := lc.Ledger.Acquire(showtimeID, sessionID, seatIDs)
	if err != nil {
		return claim.Claim{}, err
	}

	persisted := false
	defer func() {
		if !persisted {
			lc.Ledger.Release(showtimeID, sessionID)
		}
	}()

	tx, err := lc.DB.BeginTx(ctx, nil)
	if err != nil {
		return claim.Claim{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Drop lapsed holds first so they cannot block the availability check.
	if _, err := lc.Holds.ExpireHoldsTx(ctx, tx, showtimeID); err != nil {
		return claim.Claim{}, err
	}

	booked, err := lc.Bookings.BookedSeatIDsTx(ctx, tx, showtimeID)
	if err != nil {
		return claim.Claim{}, err
	}
	foreign, err := lc.Holds.HeldSeatIDsTx(ctx, tx, showtimeID, sessionID)
	if err != nil {
		return claim.Claim{}, err
	}
	if conflicts := intersect(granted.SeatIDs, booked, foreign); len(conflicts) > 0 {
		return claim.Claim{}, &claim.ConflictError{UnavailableIDs: conflicts}
	}

	// A re-claim replaces the session's previous hold rows.
	if _, err := lc.Holds.DeleteBySessionTx(ctx, tx, showtimeID, sessionID); err != nil {
		return claim.Claim{}, err
	}
	holds, err := repository.GenerateHolds(SessionUserID(sessionID), showtimeID, sessionID, granted.SeatIDs, granted.ExpiresAt)
	if err != nil {
		return claim.Claim{}, err
	}
	if err := lc.Holds.CreateMultipleTx(ctx, tx, holds); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return claim.Claim{}, &claim.ConflictError{UnavailableIDs: granted.SeatIDs}
		}
		return claim.Claim{}, err
	}
	if err := tx.Commit(); err != nil {
		return claim.Claim{}, err
	}
	committed = true
	persisted = true
	return granted, nil
}

// Release frees the session's claim in the ledger and removes its hold
// rows. Releasing a session that holds nothing is a no-op.
func (lc *LedgerClaimer) Release(ctx context.Context, showtimeID uint64, sessionID string) error {
	lc.Ledger.Release(showtimeID, sessionID)

	tx, err := lc.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := lc.Holds.DeleteBySessionTx(ctx, tx, showtimeID, sessionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// intersect returns the requested ids present in any of the given sets,
// in request order.
func intersect(requested []uint64, sets ...[]uint64) []uint64 {
	taken := make(map[uint64]struct{})
	for _, set := range sets {
		for _, id := range set {
			taken[id] = struct{}{}
		}
	}
	var out []uint64
	for _, id := range requested {
		if _, ok := taken[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
