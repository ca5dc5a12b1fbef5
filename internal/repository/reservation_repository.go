package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// ReservationRepo persists rows of the user_reservations table. Rows are
// never deleted.
type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, exam_schedule_id, status, created_at, updated_at`

var reservationSortColumns = map[string]string{
	"created_at":       "created_at",
	"updated_at":       "updated_at",
	"status":           "status",
	"exam_schedule_id": "exam_schedule_id",
	"user_id":          "user_id",
}

func scanReservation(sc rowScanner) (*model.Reservation, error) {
	var (
		res    model.Reservation
		status string
	)
	if err := sc.Scan(&res.ID, &res.UserID, &res.ExamScheduleID, &status, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM user_reservations WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err, "get reservation", "reservation")
	}
	return res, nil
}

func (r *ReservationRepo) List(ctx context.Context, f booking.ReservationFilter, sort []booking.SortField, page booking.PageRequest) ([]model.Reservation, int, error) {
	var w where
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.ExamScheduleID != nil {
		w.add("exam_schedule_id = ?", *f.ExamScheduleID)
	}
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_reservations WHERE `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count reservations", "reservation")
	}

	q := `SELECT ` + reservationColumns + ` FROM user_reservations WHERE ` + w.String() +
		orderBy(sort, reservationSortColumns) + ` LIMIT ? OFFSET ?`
	args := append(append([]any{}, w.args...), page.ItemsPerPage, page.Offset())
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr(err, "list reservations", "reservation")
	}
	defer rows.Close()

	out := make([]model.Reservation, 0, page.ItemsPerPage)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, mapErr(err, "scan reservation", "reservation")
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr(err, "list reservations", "reservation")
	}
	return out, total, nil
}

func (r *ReservationRepo) LockTx(ctx context.Context, tx queryer, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM user_reservations WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr(err, "lock reservation", "reservation")
	}
	return res, nil
}

func (r *ReservationRepo) FindTx(ctx context.Context, tx queryer, userID, scheduleID uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM user_reservations WHERE user_id = ? AND exam_schedule_id = ? LIMIT 1`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, userID, scheduleID))
	if err != nil {
		return nil, mapErr(err, "find reservation", "reservation")
	}
	return res, nil
}

func (r *ReservationRepo) CountTx(ctx context.Context, tx queryer, scheduleID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_reservations WHERE exam_schedule_id = ?`, scheduleID).Scan(&n)
	return n, mapErr(err, "count reservations", "reservation")
}

// CreateTx inserts res and reads back the stored row. The unique index
// unique_user_exam_schedule surfaces as ErrDuplicateValue.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx queryer, res *model.Reservation) error {
	const q = `INSERT INTO user_reservations (user_id, exam_schedule_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.ExamScheduleID, string(res.Status), res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return mapErr(err, "insert reservation", "reservation")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM user_reservations WHERE id = ?`, id))
	if err != nil {
		return mapErr(err, "reload reservation", "reservation")
	}
	*res = *stored
	return nil
}

func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx queryer, id uint64, status model.ReservationStatus, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE user_reservations SET status = ?, updated_at = ? WHERE id = ?`, string(status), at, id)
	return mapErr(err, "update reservation status", "reservation")
}
