package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/seatgrid/seatgrid/internal/model"
)

// SeatHoldRepo persists seat holds, the durable backing of claims. The
// (showtime_id, seat_id) unique key makes the database the last line of
// defence against double allocation even across process restarts. All
// expiry comparisons are performed in UTC.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// randomToken returns n bytes of secure randomness hex encoded.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateHolds builds hold records for the session, one per seat, each with
// a fresh random token and the shared expiry.
func GenerateHolds(userID, showtimeID uint64, sessionID string, seatIDs []uint64, expiresAt time.Time) ([]model.SeatHold, error) {
	holds := make([]model.SeatHold, 0, len(seatIDs))
	for _, sid := range seatIDs {
		token, err := randomToken(32)
		if err != nil {
			return nil, err
		}
		holds = append(holds, model.SeatHold{
			UserID:     userID,
			SessionID:  sessionID,
			ShowtimeID: showtimeID,
			SeatID:     sid,
			HoldToken:  token,
			ExpiresAt:  expiresAt,
		})
	}
	return holds, nil
}

// CreateMultipleTx inserts holds within the provided transaction. A
// duplicate (showtime, seat) key means another session persisted a hold
// first; the whole batch fails with ErrConflict and nothing is written.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []model.SeatHold) error {
	if len(holds) == 0 {
		return nil
	}
	query := `INSERT INTO seat_holds (user_id, session_id, showtime_id, seat_id, hold_token, expires_at) VALUES `
	args := make([]interface{}, 0, len(holds)*6)
	for i, h := range holds {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, h.UserID, h.SessionID, h.ShowtimeID, h.SeatID, h.HoldToken,
			h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ExpireHoldsTx deletes every lapsed hold for the showtime and returns the
// released seat ids. Calling it again before new holds lapse releases
// nothing, so expiry is idempotent.
func (r *SeatHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM seat_holds WHERE showtime_id = ? AND expires_at <= UTC_TIMESTAMP()`,
		showtimeID,
	)
	if err != nil {
		return nil, err
	}
	expired, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []uint64{}, nil
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE showtime_id = ? AND expires_at <= UTC_TIMESTAMP()`,
		showtimeID,
	)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// DeleteBySessionTx removes all holds of one session for the showtime and
// returns the freed seat ids. Absent sessions release nothing and do not
// error.
func (r *SeatHoldRepo) DeleteBySessionTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, sessionID string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM seat_holds WHERE showtime_id = ? AND session_id = ?`,
		showtimeID, sessionID,
	)
	if err != nil {
		return nil, err
	}
	seatIDs, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return nil, nil
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE showtime_id = ? AND session_id = ?`,
		showtimeID, sessionID,
	); err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// ActiveBySessionTx returns the session's non-expired holds for the
// showtime. Used when confirming, to ensure the claim is still live.
func (r *SeatHoldRepo) ActiveBySessionTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, sessionID string) ([]model.SeatHold, error) {
	const q = `SELECT id, user_id, session_id, showtime_id, seat_id, hold_token, expires_at, created_at
	           FROM seat_holds
	           WHERE showtime_id = ? AND session_id = ? AND expires_at > UTC_TIMESTAMP()`
	rows, err := tx.QueryContext(ctx, q, showtimeID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []model.SeatHold
	for rows.Next() {
		var h model.SeatHold
		if err := rows.Scan(&h.ID, &h.UserID, &h.SessionID, &h.ShowtimeID, &h.SeatID,
			&h.HoldToken, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// PendingSeatIDs returns the seat ids of every live hold for the showtime,
// regardless of owner. This feeds the pending set of the reconciler.
func (r *SeatHoldRepo) PendingSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_id FROM seat_holds WHERE showtime_id = ? AND expires_at > UTC_TIMESTAMP()`,
		showtimeID,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// HeldSeatIDsTx returns the showtime's live holds excluding one session,
// used inside the claim transaction to detect seats another session holds.
func (r *SeatHoldRepo) HeldSeatIDsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, excludeSessionID string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM seat_holds
		 WHERE showtime_id = ? AND session_id <> ? AND expires_at > UTC_TIMESTAMP()`,
		showtimeID, excludeSessionID,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]uint64, error) {
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
