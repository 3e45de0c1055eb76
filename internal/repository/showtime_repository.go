package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatgrid/seatgrid/internal/model"
)

// ShowtimeRepo provides persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying handle for transactions spanning holds and
// bookings.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

// Create inserts a showtime. Timestamps are stored in UTC.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (room_id, movie_title, starts_at, ends_at, price_regular_cents, price_vip_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.RoomID, s.MovieTitle, s.StartsAt.UTC(), s.EndsAt.UTC(), s.PriceRegularCents, s.PriceVIPCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a showtime by its id.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, room_id, movie_title, starts_at, ends_at, price_regular_cents, price_vip_cents, created_at, updated_at
	           FROM showtimes WHERE id = ?`
	var s model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.EndsAt,
		&s.PriceRegularCents, &s.PriceVIPCents, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByRoom returns the room's showtimes ordered by start time.
func (r *ShowtimeRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Showtime, error) {
	const q = `SELECT id, room_id, movie_title, starts_at, ends_at, price_regular_cents, price_vip_cents, created_at, updated_at
	           FROM showtimes WHERE room_id = ? ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(
			&s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.EndsAt,
			&s.PriceRegularCents, &s.PriceVIPCents, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindOverlapping returns showtimes in the room whose interval intersects
// [start, end). Used to reject double-booked rooms at creation.
func (r *ShowtimeRepo) FindOverlapping(ctx context.Context, roomID uint64, start, end string) ([]model.Showtime, error) {
	const q = `SELECT id, room_id, movie_title, starts_at, ends_at, price_regular_cents, price_vip_cents, created_at, updated_at
	           FROM showtimes
	           WHERE room_id = ? AND starts_at < ? AND ends_at > ?`
	rows, err := r.db.QueryContext(ctx, q, roomID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Showtime
	for rows.Next() {
		var s model.Showtime
		if err := rows.Scan(
			&s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.EndsAt,
			&s.PriceRegularCents, &s.PriceVIPCents, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
