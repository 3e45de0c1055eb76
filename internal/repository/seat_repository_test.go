package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/seatgrid/internal/model"
)

func seatRepoMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatRepo(db), mock
}

func layoutRows(roomID uint64, n int) []model.SeatLayoutEntry {
	seats := make([]model.SeatLayoutEntry, 0, n)
	for i := 0; i < n; i++ {
		seats = append(seats, model.SeatLayoutEntry{
			RoomID:       roomID,
			RowLabel:     "A",
			ColumnNumber: uint32(i + 1),
			SeatType:     "REGULAR",
			IsActive:     true,
		})
	}
	return seats
}

func TestReplaceLayoutCommitsDeleteAndInsertTogether(t *testing.T) {
	repo, mock := seatRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_layout WHERE room_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO seat_layout`).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceLayout(context.Background(), 7, layoutRows(7, 2)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceLayoutRollsBackWhenInsertFails(t *testing.T) {
	repo, mock := seatRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_layout WHERE room_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO seat_layout`).
		WillReturnError(errors.New("server has gone away"))
	mock.ExpectRollback()

	err := repo.ReplaceLayout(context.Background(), 7, layoutRows(7, 2))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "the delete must roll back with the failed insert")
}

func TestReplaceLayoutRollsBackWhenDeleteFails(t *testing.T) {
	repo, mock := seatRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_layout WHERE room_id = \?`).
		WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectRollback()

	err := repo.ReplaceLayout(context.Background(), 7, layoutRows(7, 2))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMapsDuplicateKey(t *testing.T) {
	repo, mock := seatRepoMock(t)

	dup := &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '7-A-1' for key 'seat_layout.uniq_room_row_col'",
	}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seat_layout`).WillReturnError(dup)
	mock.ExpectRollback()

	err := repo.BulkInsert(context.Background(), layoutRows(7, 2))
	assert.ErrorIs(t, err, ErrDuplicateSeat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertPassesThroughOtherErrors(t *testing.T) {
	repo, mock := seatRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seat_layout`).
		WillReturnError(errors.New("deadlock found when trying to get lock"))
	mock.ExpectRollback()

	err := repo.BulkInsert(context.Background(), layoutRows(7, 1))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSeat)
	assert.NoError(t, mock.ExpectationsWereMet())
}
