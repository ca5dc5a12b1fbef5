package booking

import (
	"time"

	"github.com/iliyamo/exam-reservation/internal/model"
)

// DefaultBookingCutoff is how long before the start of an exam new
// reservations close.
const DefaultBookingCutoff = 72 * time.Hour

// Policy holds the pre-transition booking rules.
type Policy struct {
	Cutoff time.Duration
}

// WindowOpen reports whether now is strictly before startAt minus the cutoff.
func (p Policy) WindowOpen(now, startAt time.Time) bool {
	return now.Before(startAt.Add(-p.Cutoff))
}

// checkCreate validates a new reservation against a locked schedule.
func (p Policy) checkCreate(now time.Time, s *model.ExamSchedule) error {
	if !p.WindowOpen(now, s.StartAt) {
		return BadRequest("booking window closed for exam schedule %d", s.ID)
	}
	if s.Status.IsAdministrative() {
		return BadRequest("exam schedule %d is %s", s.ID, s.Status)
	}
	if s.ConfirmCount >= s.MaxUsers {
		return ErrCapacityExceeded
	}
	return nil
}
