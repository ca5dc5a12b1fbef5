package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// ExamScheduleRepo persists rows of the exam_schedules table.
type ExamScheduleRepo struct {
	db *sql.DB
}

func NewExamScheduleRepo(db *sql.DB) *ExamScheduleRepo { return &ExamScheduleRepo{db: db} }

const scheduleColumns = `id, uuid, created_by_user_id, title, text, media_url, start_at, end_at,
	max_users, reserve_count, confirm_count, status, is_deleted, deleted_at, created_at, updated_at`

var scheduleSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"start_at":   "start_at",
	"end_at":     "end_at",
	"title":      "title",
	"status":     "status",
	"max_users":  "max_users",
}

func scanSchedule(sc rowScanner) (*model.ExamSchedule, error) {
	var (
		s         model.ExamSchedule
		media     sql.NullString
		deletedAt sql.NullTime
		status    string
	)
	err := sc.Scan(
		&s.ID, &s.UUID, &s.CreatedByUserID, &s.Title, &s.Text, &media, &s.StartAt, &s.EndAt,
		&s.MaxUsers, &s.ReserveCount, &s.ConfirmCount, &status, &s.IsDeleted, &deletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if media.Valid {
		s.MediaURL = &media.String
	}
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Time
	}
	s.Status = model.ScheduleStatus(status)
	return &s, nil
}

// Get returns a schedule that has not been soft-deleted.
func (r *ExamScheduleRepo) Get(ctx context.Context, id uint64) (*model.ExamSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM exam_schedules WHERE id = ? AND is_deleted = 0`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, "get exam schedule", "exam schedule")
	}
	return s, nil
}

// List returns one page of live schedules and the total match count.
func (r *ExamScheduleRepo) List(ctx context.Context, f booking.ScheduleFilter, sort []booking.SortField, page booking.PageRequest) ([]model.ExamSchedule, int, error) {
	var w where
	w.add("is_deleted = 0")
	if f.Status != nil {
		w.add("status = ?", string(*f.Status))
	}
	if f.CreatedByUserID != nil {
		w.add("created_by_user_id = ?", *f.CreatedByUserID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exam_schedules WHERE `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count exam schedules", "exam schedule")
	}

	q := `SELECT ` + scheduleColumns + ` FROM exam_schedules WHERE ` + w.String() +
		orderBy(sort, scheduleSortColumns) + ` LIMIT ? OFFSET ?`
	args := append(append([]any{}, w.args...), page.ItemsPerPage, page.Offset())
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr(err, "list exam schedules", "exam schedule")
	}
	defer rows.Close()

	out := make([]model.ExamSchedule, 0, page.ItemsPerPage)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, mapErr(err, "scan exam schedule", "exam schedule")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr(err, "list exam schedules", "exam schedule")
	}
	return out, total, nil
}

// LockTx selects the row FOR UPDATE, soft-deleted rows included.
func (r *ExamScheduleRepo) LockTx(ctx context.Context, tx queryer, id uint64) (*model.ExamSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM exam_schedules WHERE id = ? FOR UPDATE`
	s, err := scanSchedule(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapErr(err, "lock exam schedule", "exam schedule")
	}
	return s, nil
}

// CreateTx inserts s and reads back the stored row.
func (r *ExamScheduleRepo) CreateTx(ctx context.Context, tx queryer, s *model.ExamSchedule) error {
	const q = `INSERT INTO exam_schedules
		(uuid, created_by_user_id, title, text, media_url, start_at, end_at, max_users, reserve_count, confirm_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		s.UUID, s.CreatedByUserID, s.Title, s.Text, s.MediaURL, s.StartAt, s.EndAt,
		s.MaxUsers, s.ReserveCount, s.ConfirmCount, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapErr(err, "insert exam schedule", "exam schedule for this time window")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanSchedule(tx.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM exam_schedules WHERE id = ?`, id))
	if err != nil {
		return mapErr(err, "reload exam schedule", "exam schedule")
	}
	*s = *stored
	return nil
}

// UpdateDetailsTx writes the descriptive columns and max_users. Counters
// and status are not touched.
func (r *ExamScheduleRepo) UpdateDetailsTx(ctx context.Context, tx queryer, s *model.ExamSchedule) error {
	const q = `UPDATE exam_schedules
		SET title = ?, text = ?, media_url = ?, start_at = ?, end_at = ?, max_users = ?, updated_at = ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, s.Title, s.Text, s.MediaURL, s.StartAt, s.EndAt, s.MaxUsers, s.UpdatedAt, s.ID)
	return mapErr(err, "update exam schedule", "exam schedule for this time window")
}

func (r *ExamScheduleRepo) SoftDeleteTx(ctx context.Context, tx queryer, id uint64, at time.Time) error {
	const q = `UPDATE exam_schedules SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, at, at, id)
	return mapErr(err, "soft delete exam schedule", "exam schedule")
}

func (r *ExamScheduleRepo) HardDeleteTx(ctx context.Context, tx queryer, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM exam_schedules WHERE id = ?`, id)
	if err != nil {
		return mapErr(err, "delete exam schedule", "exam schedule")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return booking.NotFound("exam schedule %d not found", id)
	}
	return nil
}

// WriteCountersTx is the capacity guard's conditional write. The max_users
// condition makes a stale or racing write match zero rows, which is
// reported as ErrCapacityExceeded. The DSN must set clientFoundRows so an
// unchanged row still counts as matched.
func (r *ExamScheduleRepo) WriteCountersTx(ctx context.Context, tx queryer, w booking.CounterWrite) error {
	const q = `UPDATE exam_schedules
		SET reserve_count = ?, confirm_count = ?, status = ?, updated_at = ?
		WHERE id = ? AND max_users >= ?`
	res, err := tx.ExecContext(ctx, q, w.ReserveCount, w.ConfirmCount, string(w.Status), w.UpdatedAt, w.ScheduleID, w.ConfirmCount)
	if err != nil {
		return mapErr(err, "write exam schedule counters", "exam schedule")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrCapacityExceeded
	}
	return nil
}
