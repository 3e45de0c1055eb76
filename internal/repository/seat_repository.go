package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/seatgrid/seatgrid/internal/model"
)

// SeatRepo is the seat layout store: one row per physical seat, unique per
// (room, row label, column number). Seats are created and deleted as whole
// entities; a seat is never renumbered in place.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// GetByRoom retrieves the room's layout in row order then column. Sorting
// by label length first keeps multi-letter rows in sheet order (Z before
// AA), matching the order the layout generator emits.
func (r *SeatRepo) GetByRoom(ctx context.Context, roomID uint64) ([]model.SeatLayoutEntry, error) {
	const q = `SELECT id, room_id, row_label, column_number, seat_type, is_active, created_at, updated_at
	           FROM seat_layout
	           WHERE room_id = ?
	           ORDER BY LENGTH(row_label), row_label, column_number`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SeatLayoutEntry
	for rows.Next() {
		var s model.SeatLayoutEntry
		if err := rows.Scan(
			&s.ID, &s.RoomID, &s.RowLabel, &s.ColumnNumber, &s.SeatType,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID retrieves one seat.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.SeatLayoutEntry, error) {
	const q = `SELECT id, room_id, row_label, column_number, seat_type, is_active, created_at, updated_at
	           FROM seat_layout WHERE id = ?`
	var s model.SeatLayoutEntry
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.RoomID, &s.RowLabel, &s.ColumnNumber, &s.SeatType,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// BulkInsertTx inserts seats in a single statement inside the given
// transaction. A duplicate (room, row, column) fails the whole statement
// with ErrDuplicateSeat; no subset of the batch is ever visible.
func (r *SeatRepo) BulkInsertTx(ctx context.Context, tx *sql.Tx, seats []model.SeatLayoutEntry) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seat_layout (room_id, row_label, column_number, seat_type, is_active) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.RoomID, s.RowLabel, s.ColumnNumber, s.SeatType, s.IsActive)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSeat
		}
		return err
	}
	return nil
}

// BulkInsert inserts seats atomically in their own transaction.
func (r *SeatRepo) BulkInsert(ctx context.Context, seats []model.SeatLayoutEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.BulkInsertTx(ctx, tx, seats); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReplaceLayout swaps the room's entire layout for the given seats in one
// transaction: all prior entries are deleted, then the new set is inserted.
// Any failure leaves the previous layout intact.
func (r *SeatRepo) ReplaceLayout(ctx context.Context, roomID uint64, seats []model.SeatLayoutEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_layout WHERE room_id = ?`, roomID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := r.BulkInsertTx(ctx, tx, seats); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// BulkDeleteByIDs removes the given seats. Absent ids are ignored, so the
// call is idempotent; the number of rows actually deleted is returned.
func (r *SeatRepo) BulkDeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM seat_layout WHERE id IN (` + placeholders(len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SetActive flips only the active flag of one seat, preserving its type.
func (r *SeatRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	const q = `UPDATE seat_layout SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// SetTypeAndActive updates one seat's type and active flag.
func (r *SeatRepo) SetTypeAndActive(ctx context.Context, id uint64, seatType string, active bool) error {
	const q = `UPDATE seat_layout SET seat_type = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, seatType, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// BulkSetTypeAndActive applies one type/active pair to every listed seat in
// a single statement.
func (r *SeatRepo) BulkSetTypeAndActive(ctx context.Context, ids []uint64, seatType string, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE seat_layout SET seat_type = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	          WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{seatType, active}, idArgs(ids)...)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
