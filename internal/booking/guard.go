package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/exam-reservation/internal/model"
)

// adjustment is one counter change requested of the guard. state, when set,
// replaces the administrative state; AVAILABLE clears it.
type adjustment struct {
	reserve int
	confirm int
	guarded bool
	state   model.ScheduleStatus
}

// guard is the only writer of a schedule's counters and status. The caller
// must hold the schedule row lock through tx.
type guard struct {
	now func() time.Time
}

func (g guard) apply(ctx context.Context, log *slog.Logger, tx Tx, s *model.ExamSchedule, adj adjustment) error {
	if adj.guarded && s.ConfirmCount >= s.MaxUsers {
		return ErrCapacityExceeded
	}

	reserve := s.ReserveCount + adj.reserve
	confirm := s.ConfirmCount + adj.confirm
	if reserve < 0 {
		log.WarnContext(ctx, "reserve_count clamped", "exam_schedule_id", s.ID, "value", reserve)
		reserve = 0
	}
	if confirm < 0 {
		log.WarnContext(ctx, "confirm_count clamped", "exam_schedule_id", s.ID, "value", confirm)
		confirm = 0
	}

	base := s.Status
	if adj.state != "" {
		base = adj.state
	}
	status := model.DeriveStatus(confirm, s.MaxUsers, base)

	at := g.now()
	err := tx.WriteCounters(ctx, CounterWrite{
		ScheduleID:   s.ID,
		ReserveCount: reserve,
		ConfirmCount: confirm,
		Status:       status,
		UpdatedAt:    at,
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			return ErrCapacityExceeded
		}
		return err
	}
	s.ReserveCount = reserve
	s.ConfirmCount = confirm
	s.Status = status
	s.UpdatedAt = at
	return nil
}
