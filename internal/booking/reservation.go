package booking

import (
	"context"
	"errors"

	"github.com/iliyamo/exam-reservation/internal/model"
)

// CreateReservation books a RESERVED seat for actor on a schedule.
func (s *Service) CreateReservation(ctx context.Context, actor Actor, scheduleID uint64) (*model.Reservation, error) {
	log := s.log(ctx, "create_reservation", "user_id", actor.UserID, "exam_schedule_id", scheduleID)
	var out *model.Reservation
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		sch, err := tx.LockSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch.IsDeleted {
			return NotFound("exam schedule %d not found", scheduleID)
		}
		switch _, err := tx.FindReservation(ctx, actor.UserID, scheduleID); {
		case err == nil:
			return DuplicateValue("user %d already holds a reservation for exam schedule %d", actor.UserID, scheduleID)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		if err := s.policy.checkCreate(s.now(), sch); err != nil {
			return err
		}

		now := s.now()
		r := &model.Reservation{
			UserID:         actor.UserID,
			ExamScheduleID: scheduleID,
			Status:         model.ReservationReserved,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		if err := s.guard.apply(ctx, log, tx, sch, adjustment{reserve: 1}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	log.InfoContext(ctx, "reservation created", "reservation_id", out.ID)
	s.publish(ctx, log, AuditEvent{
		Action:         AuditCreated,
		ReservationID:  out.ID,
		UserID:         out.UserID,
		ExamScheduleID: scheduleID,
		To:             out.Status,
		ActorID:        actor.UserID,
		At:             out.CreatedAt,
	})
	return out, nil
}

// ChangeReservationStatus moves a reservation to status through the
// transition table and adjusts the schedule counters in the same
// transaction.
func (s *Service) ChangeReservationStatus(ctx context.Context, actor Actor, reservationID uint64, status model.ReservationStatus) (*model.Reservation, error) {
	log := s.log(ctx, "change_reservation_status", "user_id", actor.UserID, "reservation_id", reservationID, "to", status)
	if !status.Valid() {
		err := BadRequest("unknown reservation status %q", status)
		logResult(ctx, log, err)
		return nil, err
	}

	// Read unlocked first to learn the schedule so the schedule row can be
	// locked before the reservation row.
	cur, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	if !actor.Superuser && cur.UserID != actor.UserID {
		err := Forbidden("reservation %d belongs to another user", reservationID)
		logResult(ctx, log, err)
		return nil, err
	}

	var (
		out  *model.Reservation
		from model.ReservationStatus
	)
	err = s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		sch, err := tx.LockSchedule(ctx, cur.ExamScheduleID)
		if err != nil {
			return err
		}
		r, err := tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		from = r.Status
		if from == status {
			out = r
			return nil
		}
		if status == model.ReservationConfirmed && !actor.Superuser {
			return Forbidden("confirming a reservation requires a superuser")
		}

		t, ok := LookupTransition(from, status)
		if !ok {
			return BadRequest("no transition from %s to %s", from, status)
		}
		entering := status == model.ReservationReserved || status == model.ReservationConfirmed
		if entering && sch.IsDeleted {
			return NotFound("exam schedule %d not found", sch.ID)
		}
		if entering && sch.Closed() {
			return BadRequest("exam schedule %d is closed", sch.ID)
		}
		if status == model.ReservationReserved && !actor.Superuser && !s.policy.WindowOpen(s.now(), sch.StartAt) {
			return BadRequest("booking window closed for exam schedule %d", sch.ID)
		}

		adj := adjustment{reserve: t.DReserve, confirm: t.DConfirm, guarded: t.Guarded}
		if err := s.guard.apply(ctx, log, tx, sch, adj); err != nil {
			return err
		}
		at := sch.UpdatedAt
		if err := tx.UpdateReservationStatus(ctx, r.ID, status, at); err != nil {
			return err
		}
		r.Status = status
		r.UpdatedAt = at
		out = r
		return nil
	})
	if err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	if from == status {
		return out, nil
	}
	log.InfoContext(ctx, "reservation status changed", "from", from)
	s.publish(ctx, log, AuditEvent{
		Action:         AuditStatusChanged,
		ReservationID:  out.ID,
		UserID:         out.UserID,
		ExamScheduleID: out.ExamScheduleID,
		From:           from,
		To:             out.Status,
		ActorID:        actor.UserID,
		At:             out.UpdatedAt,
	})
	return out, nil
}

// GetReservation returns a reservation visible to actor.
func (s *Service) GetReservation(ctx context.Context, actor Actor, id uint64) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser && r.UserID != actor.UserID {
		return nil, Forbidden("reservation %d belongs to another user", id)
	}
	return r, nil
}

// ListReservations returns one page of reservations. sort is an expression such as
// "-created_at,status".
func (s *Service) ListReservations(ctx context.Context, f ReservationFilter, sort string, page PageRequest) (Page[model.Reservation], error) {
	fields, err := ParseSort(sort, ReservationSortFields)
	if err != nil {
		return Page[model.Reservation]{}, err
	}
	page, err = page.Normalize()
	if err != nil {
		return Page[model.Reservation]{}, err
	}
	if f.Status != nil && !f.Status.Valid() {
		return Page[model.Reservation]{}, BadRequest("unknown reservation status %q", *f.Status)
	}
	rows, total, err := s.store.ListReservations(ctx, f, fields, page)
	if err != nil {
		return Page[model.Reservation]{}, err
	}
	return newPage(rows, total, page), nil
}
