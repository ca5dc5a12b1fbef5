package booking

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/exam-reservation/internal/model"
)

// CreateExamSchedule creates a schedule owned by actor. Only superusers may
// create schedules.
func (s *Service) CreateExamSchedule(ctx context.Context, actor Actor, in ScheduleInput) (*model.ExamSchedule, error) {
	log := s.log(ctx, "create_exam_schedule", "user_id", actor.UserID)
	if !actor.Superuser {
		err := Forbidden("creating exam schedules requires a superuser")
		logResult(ctx, log, err)
		return nil, err
	}
	if in.MaxUsers == 0 {
		in.MaxUsers = DefaultMaxUsers
	}
	now := s.now()
	sch := &model.ExamSchedule{
		UUID:            uuid.NewString(),
		CreatedByUserID: actor.UserID,
		Title:           strings.TrimSpace(in.Title),
		Text:            in.Text,
		MediaURL:        normalizeMediaURL(in.MediaURL),
		StartAt:         in.StartAt.UTC(),
		EndAt:           in.EndAt.UTC(),
		MaxUsers:        in.MaxUsers,
		Status:          model.ScheduleAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateSchedule(sch); err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertSchedule(ctx, sch)
	})
	if err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	log.InfoContext(ctx, "exam schedule created", "exam_schedule_id", sch.ID)
	return sch, nil
}

func (s *Service) GetExamSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error) {
	return s.store.GetSchedule(ctx, id)
}

func (s *Service) ListExamSchedules(ctx context.Context, f ScheduleFilter, sort string, page PageRequest) (Page[model.ExamSchedule], error) {
	fields, err := ParseSort(sort, ScheduleSortFields)
	if err != nil {
		return Page[model.ExamSchedule]{}, err
	}
	page, err = page.Normalize()
	if err != nil {
		return Page[model.ExamSchedule]{}, err
	}
	if f.Status != nil && !f.Status.Valid() {
		return Page[model.ExamSchedule]{}, BadRequest("unknown exam schedule status %q", *f.Status)
	}
	rows, total, err := s.store.ListSchedules(ctx, f, fields, page)
	if err != nil {
		return Page[model.ExamSchedule]{}, err
	}
	return newPage(rows, total, page), nil
}

// lockOwned locks a live schedule and checks actor may administer it.
func lockOwned(ctx context.Context, tx Tx, actor Actor, id uint64) (*model.ExamSchedule, error) {
	if !actor.Superuser {
		return nil, Forbidden("managing exam schedules requires a superuser")
	}
	sch, err := tx.LockSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sch.IsDeleted {
		return nil, NotFound("exam schedule %d not found", id)
	}
	if sch.CreatedByUserID != actor.UserID {
		return nil, Forbidden("exam schedule %d belongs to another user", id)
	}
	return sch, nil
}

// UpdateExamSchedule applies patch to a schedule owned by actor. A status
// or max_users change recomputes the derived status through the guard.
func (s *Service) UpdateExamSchedule(ctx context.Context, actor Actor, id uint64, patch SchedulePatch) (*model.ExamSchedule, error) {
	log := s.log(ctx, "update_exam_schedule", "user_id", actor.UserID, "exam_schedule_id", id)
	if patch.empty() {
		err := BadRequest("nothing to update")
		logResult(ctx, log, err)
		return nil, err
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.ScheduleAvailable, model.ScheduleCancelled, model.ScheduleDeleted:
		default:
			err := BadRequest("status %q cannot be set directly", *patch.Status)
			logResult(ctx, log, err)
			return nil, err
		}
	}

	var out *model.ExamSchedule
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		sch, err := lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if patch.touchesDetails() {
			next := *sch
			if patch.Title != nil {
				next.Title = strings.TrimSpace(*patch.Title)
			}
			if patch.Text != nil {
				next.Text = *patch.Text
			}
			if patch.MediaURL != nil {
				next.MediaURL = normalizeMediaURL(patch.MediaURL)
			}
			if patch.StartAt != nil {
				next.StartAt = patch.StartAt.UTC()
			}
			if patch.EndAt != nil {
				next.EndAt = patch.EndAt.UTC()
			}
			if patch.MaxUsers != nil {
				next.MaxUsers = *patch.MaxUsers
			}
			if err := validateSchedule(&next); err != nil {
				return err
			}
			if next.MaxUsers < sch.ConfirmCount {
				return BadRequest("max_users %d below confirmed seats %d", next.MaxUsers, sch.ConfirmCount)
			}
			next.UpdatedAt = s.now()
			if err := tx.UpdateScheduleDetails(ctx, &next); err != nil {
				return err
			}
			*sch = next
		}
		var adj adjustment
		if patch.Status != nil {
			adj.state = *patch.Status
		}
		if err := s.guard.apply(ctx, log, tx, sch, adj); err != nil {
			return err
		}
		out = sch
		return nil
	})
	if err != nil {
		logResult(ctx, log, err)
		return nil, err
	}
	log.InfoContext(ctx, "exam schedule updated", "status", out.Status)
	return out, nil
}

// SoftDeleteExamSchedule flags a schedule deleted. Its reservations are
// left untouched.
func (s *Service) SoftDeleteExamSchedule(ctx context.Context, actor Actor, id uint64) error {
	log := s.log(ctx, "soft_delete_exam_schedule", "user_id", actor.UserID, "exam_schedule_id", id)
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		sch, err := lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		at := s.now()
		if err := tx.SoftDeleteSchedule(ctx, id, at); err != nil {
			return err
		}
		sch.IsDeleted = true
		sch.DeletedAt = &at
		return s.guard.apply(ctx, log, tx, sch, adjustment{state: model.ScheduleDeleted})
	})
	if err != nil {
		logResult(ctx, log, err)
		return err
	}
	log.InfoContext(ctx, "exam schedule soft-deleted")
	return nil
}

// HardDeleteExamSchedule removes a schedule row. It is refused while any
// reservation references the schedule.
func (s *Service) HardDeleteExamSchedule(ctx context.Context, actor Actor, id uint64) error {
	log := s.log(ctx, "hard_delete_exam_schedule", "user_id", actor.UserID, "exam_schedule_id", id)
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		if !actor.Superuser {
			return Forbidden("hard delete requires a superuser")
		}
		if _, err := tx.LockSchedule(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountReservations(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return BadRequest("exam schedule %d still has %d reservations", id, n)
		}
		return tx.HardDeleteSchedule(ctx, id)
	})
	if err != nil {
		logResult(ctx, log, err)
		return err
	}
	log.InfoContext(ctx, "exam schedule hard-deleted")
	return nil
}
