package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/seatgrid/seatgrid/internal/model"
)

// BookingRepo persists confirmed bookings and their seats.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts the booking row inside the given transaction and
// populates its ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, showtime_id, status, subtotal_cents, total_cents, coupon_code, payment_ref)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.ShowtimeID, b.Status, b.SubtotalCents, b.TotalCents, b.CouponCode, b.PaymentRef)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateSeatsBulkTx inserts the booking's seats in one statement. The
// (showtime_id, seat_id) unique key turns a double-sell into ErrConflict
// and rolls the whole batch back.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, showtime_id, seat_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.BookingID, s.ShowtimeID, s.SeatID, s.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// BookedSeatIDs returns the seat ids confirmed for the showtime. This feeds
// the booked set of the reconciler.
func (r *BookingRepo) BookedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bs.seat_id
		 FROM booking_seats bs
		 JOIN bookings b ON b.id = bs.booking_id
		 WHERE bs.showtime_id = ? AND b.status = 'CONFIRMED'`,
		showtimeID,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// BookedSeatIDsTx is BookedSeatIDs inside an existing transaction, used by
// the claim path so the availability check and the hold insert observe the
// same snapshot.
func (r *BookingRepo) BookedSeatIDsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT bs.seat_id
		 FROM booking_seats bs
		 JOIN bookings b ON b.id = bs.booking_id
		 WHERE bs.showtime_id = ? AND b.status = 'CONFIRMED'`,
		showtimeID,
	)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, showtime_id, status, subtotal_cents, total_cents, coupon_code, payment_ref, created_at, updated_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.SubtotalCents,
			&b.TotalCents, &b.CouponCode, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByIDForUser retrieves one booking, enforcing ownership.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, showtime_id, status, subtotal_cents, total_cents, coupon_code, payment_ref, created_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.SubtotalCents,
		&b.TotalCents, &b.CouponCode, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return &b, nil
}

// SeatIDsTx returns the seat ids of a booking inside a transaction.
func (r *BookingRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM booking_seats WHERE booking_id = ?`, bookingID)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// CancelInfoForUserTx loads what a cancellation needs — the showtime, its
// start time and the booked seats — while verifying ownership. Returns
// sql.ErrNoRows when the booking does not exist and ErrForbidden when it
// belongs to someone else.
func (r *BookingRepo) CancelInfoForUserTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64) (uint64, time.Time, []uint64, error) {
	const q = `SELECT b.user_id, b.showtime_id, st.starts_at
	           FROM bookings b
	           JOIN showtimes st ON st.id = b.showtime_id
	           WHERE b.id = ?`
	var (
		ownerID    uint64
		showtimeID uint64
		startsAt   time.Time
	)
	if err := tx.QueryRowContext(ctx, q, bookingID).Scan(&ownerID, &showtimeID, &startsAt); err != nil {
		return 0, time.Time{}, nil, err
	}
	if ownerID != userID {
		return 0, time.Time{}, nil, ErrForbidden
	}
	seatIDs, err := r.SeatIDsTx(ctx, tx, bookingID)
	if err != nil {
		return 0, time.Time{}, nil, err
	}
	return showtimeID, startsAt, seatIDs, nil
}

// CancelTx marks the booking cancelled and removes its seat rows so the
// seats drop out of the booked set on the next reconcile.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		bookingID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, bookingID)
	return err
}
