package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var scheduleRowColumns = []string{
	"id", "uuid", "created_by_user_id", "title", "text", "media_url", "start_at", "end_at",
	"max_users", "reserve_count", "confirm_count", "status", "is_deleted", "deleted_at", "created_at", "updated_at",
}

func scheduleRows(id uint64, max, reserve, confirm int, status string) *sqlmock.Rows {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(scheduleRowColumns).AddRow(
		id, "4b0e5a3c-8f1e-4c55-9d7e-2f6f4b1c7a10", 1, "Algebra I", "final exam", nil,
		at.Add(30*24*time.Hour), at.Add(30*24*time.Hour+2*time.Hour),
		max, reserve, confirm, status, false, nil, at, at,
	)
}

var reservationRowColumns = []string{"id", "user_id", "exam_schedule_id", "status", "created_at", "updated_at"}

func TestExamScheduleRepo_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExamScheduleRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM exam_schedules WHERE id = \? AND is_deleted = 0`).
		WithArgs(7).
		WillReturnRows(scheduleRows(7, 2, 1, 0, "AVAILABLE"))

	s, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), s.ID)
	assert.Equal(t, "Algebra I", s.Title)
	assert.Nil(t, s.MediaURL)
	assert.Nil(t, s.DeletedAt)
	assert.Equal(t, model.ScheduleAvailable, s.Status)
	assert.Equal(t, 2, s.MaxUsers)
	assert.Equal(t, 1, s.ReserveCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamScheduleRepo_Get_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExamScheduleRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM exam_schedules`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamScheduleRepo_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExamScheduleRepo(db)

	status := model.ScheduleAvailable
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM exam_schedules WHERE is_deleted = 0 AND status = \?`).
		WithArgs("AVAILABLE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`FROM exam_schedules WHERE is_deleted = 0 AND status = \? ORDER BY start_at ASC, id DESC LIMIT \? OFFSET \?`).
		WithArgs("AVAILABLE", 5, 5).
		WillReturnRows(scheduleRows(3, 10, 0, 0, "AVAILABLE"))

	rows, total, err := repo.List(context.Background(),
		booking.ScheduleFilter{Status: &status},
		[]booking.SortField{{Field: "start_at"}},
		booking.PageRequest{Page: 2, ItemsPerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(3), rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamScheduleRepo_CreateTx_DuplicateWindow(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO exam_schedules`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return tx.InsertSchedule(ctx, &model.ExamSchedule{Title: "x", Status: model.ScheduleAvailable})
	})
	assert.ErrorIs(t, err, booking.ErrDuplicateValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamScheduleRepo_HardDeleteTx_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM exam_schedules WHERE id = \?`).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return tx.HardDeleteSchedule(ctx, 4)
	})
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_Commits(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM exam_schedules WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(scheduleRows(7, 2, 1, 1, "AVAILABLE"))
	mock.ExpectExec(`UPDATE exam_schedules\s+SET reserve_count = \?, confirm_count = \?, status = \?, updated_at = \?\s+WHERE id = \? AND max_users >= \?`).
		WithArgs(0, 2, "FULLY_BOOKED", at, 7, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		s, err := tx.LockSchedule(ctx, 7)
		if err != nil {
			return err
		}
		return tx.WriteCounters(ctx, booking.CounterWrite{
			ScheduleID:   s.ID,
			ReserveCount: 0,
			ConfirmCount: 2,
			Status:       model.ScheduleFullyBooked,
			UpdatedAt:    at,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteCounters_NoMatchingRowIsCapacityExceeded(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE exam_schedules`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return tx.WriteCounters(ctx, booking.CounterWrite{ScheduleID: 7, ConfirmCount: 3, Status: model.ScheduleFullyBooked})
	})
	assert.ErrorIs(t, err, booking.ErrCapacityExceeded)
	assert.ErrorIs(t, err, booking.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CreateTx(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_reservations \(user_id, exam_schedule_id, status, created_at, updated_at\) VALUES \(\?, \?, \?, \?, \?\)`).
		WithArgs(10, 7, "RESERVED", at, at).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`FROM user_reservations WHERE id = \?`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns).AddRow(42, 10, 7, "RESERVED", at, at))
	mock.ExpectCommit()

	r := &model.Reservation{UserID: 10, ExamScheduleID: 7, Status: model.ReservationReserved, CreatedAt: at, UpdatedAt: at}
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return tx.InsertReservation(ctx, r)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), r.ID)
	assert.Equal(t, at, r.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CreateTx_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_reservations`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'unique_user_exam_schedule'"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		return tx.InsertReservation(ctx, &model.Reservation{UserID: 10, ExamScheduleID: 7, Status: model.ReservationReserved})
	})
	assert.ErrorIs(t, err, booking.ErrDuplicateValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_FindTx_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM user_reservations WHERE user_id = \? AND exam_schedule_id = \?`).
		WithArgs(10, 7).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns))
	mock.ExpectCommit()

	var found error
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx booking.Tx) error {
		_, found = tx.FindReservation(ctx, 10, 7)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, found, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_List_Filters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReservationRepo(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	uid := uint64(10)
	st := model.ReservationConfirmed
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_reservations WHERE user_id = \? AND status = \?`).
		WithArgs(10, "CONFIRMED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC LIMIT \? OFFSET \?`).
		WithArgs(10, "CONFIRMED", 10, 0).
		WillReturnRows(sqlmock.NewRows(reservationRowColumns).AddRow(5, 10, 7, "CONFIRMED", at, at))

	rows, total, err := repo.List(context.Background(),
		booking.ReservationFilter{UserID: &uid, Status: &st}, nil,
		booking.PageRequest{Page: 1, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ReservationConfirmed, rows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice@example.com", sqlmock.AnyArg(), false).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), "  Alice@Example.com ", "secret123", false, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_EnsureSuperuser_PromotesExisting(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)
	at := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_superuser", "is_active", "created_at", "updated_at"}).
			AddRow(3, "root@example.com", "hash", false, true, at, at))
	mock.ExpectExec(`UPDATE users SET is_superuser=1 WHERE id=\?`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.EnsureSuperuser(context.Background(), "root@example.com", "ignored", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_EnsureSuperuser_Creates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`FROM users WHERE email=\?`).
		WithArgs("root@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("root@example.com", sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := repo.EnsureSuperuser(context.Background(), "root@example.com", "secret123", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	tests := []struct {
		name    string
		row     []driver.Value
		wantErr bool
	}{
		{name: "live", row: []driver.Value{5, now.Add(time.Hour), nil}},
		{name: "expired", row: []driver.Value{5, now.Add(-time.Hour), nil}, wantErr: true},
		{name: "revoked", row: []driver.Value{5, now.Add(time.Hour), now.Add(-time.Minute)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewTokenRepo(db)
			repo.now = func() time.Time { return now }

			mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).
				WithArgs("h").
				WillReturnRows(sqlmock.NewRows(cols).AddRow(tt.row...))

			uid, err := repo.ValidateRefresh(context.Background(), "h")
			if tt.wantErr {
				assert.ErrorIs(t, err, sql.ErrNoRows)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(5), uid)
		})
	}
}
