package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// Store implements booking.Store on MySQL.
type Store struct {
	db           *sql.DB
	Schedules    *ExamScheduleRepo
	Reservations *ReservationRepo
}

var _ booking.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Schedules:    NewExamScheduleRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

// WithinTx runs fn in a transaction and rolls back unless fn and the
// commit both succeed.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &sqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error) {
	return s.Schedules.Get(ctx, id)
}

func (s *Store) ListSchedules(ctx context.Context, f booking.ScheduleFilter, sort []booking.SortField, page booking.PageRequest) ([]model.ExamSchedule, int, error) {
	return s.Schedules.List(ctx, f, sort, page)
}

func (s *Store) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.Reservations.Get(ctx, id)
}

func (s *Store) ListReservations(ctx context.Context, f booking.ReservationFilter, sort []booking.SortField, page booking.PageRequest) ([]model.Reservation, int, error) {
	return s.Reservations.List(ctx, f, sort, page)
}

type sqlTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *sqlTx) LockSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error) {
	return t.s.Schedules.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertSchedule(ctx context.Context, sch *model.ExamSchedule) error {
	return t.s.Schedules.CreateTx(ctx, t.tx, sch)
}

func (t *sqlTx) UpdateScheduleDetails(ctx context.Context, sch *model.ExamSchedule) error {
	return t.s.Schedules.UpdateDetailsTx(ctx, t.tx, sch)
}

func (t *sqlTx) SoftDeleteSchedule(ctx context.Context, id uint64, at time.Time) error {
	return t.s.Schedules.SoftDeleteTx(ctx, t.tx, id, at)
}

func (t *sqlTx) HardDeleteSchedule(ctx context.Context, id uint64) error {
	return t.s.Schedules.HardDeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) WriteCounters(ctx context.Context, w booking.CounterWrite) error {
	return t.s.Schedules.WriteCountersTx(ctx, t.tx, w)
}

func (t *sqlTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.s.Reservations.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) FindReservation(ctx context.Context, userID, scheduleID uint64) (*model.Reservation, error) {
	return t.s.Reservations.FindTx(ctx, t.tx, userID, scheduleID)
}

func (t *sqlTx) CountReservations(ctx context.Context, scheduleID uint64) (int, error) {
	return t.s.Reservations.CountTx(ctx, t.tx, scheduleID)
}

func (t *sqlTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	return t.s.Reservations.CreateTx(ctx, t.tx, r)
}

func (t *sqlTx) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, at time.Time) error {
	return t.s.Reservations.UpdateStatusTx(ctx, t.tx, id, status, at)
}
