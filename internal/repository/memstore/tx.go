package memstore

import (
	"context"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// tx stages writes until commit. Reservation rows are only written under
// their schedule's row lock, so they need no lock of their own.
type tx struct {
	store        *Store
	held         map[uint64]chan struct{}
	schedules    map[uint64]model.ExamSchedule
	dropped      map[uint64]bool
	reservations map[uint64]model.Reservation
}

var _ booking.Tx = (*tx)(nil)

func (t *tx) release() {
	for id, ch := range t.held {
		<-ch
		delete(t.held, id)
	}
}

func (t *tx) schedule(id uint64) (model.ExamSchedule, bool) {
	if t.dropped[id] {
		return model.ExamSchedule{}, false
	}
	if sch, ok := t.schedules[id]; ok {
		return sch, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	sch, ok := t.store.schedules[id]
	return sch, ok
}

func (t *tx) reservation(id uint64) (model.Reservation, bool) {
	if r, ok := t.reservations[id]; ok {
		return r, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	r, ok := t.store.reservations[id]
	return r, ok
}

// lockedSchedule returns a schedule the transaction already holds.
func (t *tx) lockedSchedule(id uint64) (model.ExamSchedule, error) {
	if _, ok := t.held[id]; !ok {
		return model.ExamSchedule{}, booking.BadRequest("exam schedule %d is not locked", id)
	}
	sch, ok := t.schedule(id)
	if !ok {
		return model.ExamSchedule{}, booking.NotFound("exam schedule %d not found", id)
	}
	return sch, nil
}

func (t *tx) LockSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error) {
	if _, ok := t.held[id]; !ok {
		ch := t.store.rowLock(id)
		select {
		case ch <- struct{}{}:
			t.held[id] = ch
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	sch, ok := t.schedule(id)
	if !ok {
		return nil, booking.NotFound("exam schedule %d not found", id)
	}
	return &sch, nil
}

func (t *tx) InsertSchedule(_ context.Context, s *model.ExamSchedule) error {
	t.store.mu.Lock()
	for _, other := range t.store.schedules {
		if sameWindow(*s, other) {
			t.store.mu.Unlock()
			return booking.DuplicateValue("exam schedule window already exists")
		}
	}
	t.store.lastSchedule++
	s.ID = t.store.lastSchedule
	now := t.store.now()
	t.store.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	t.schedules[s.ID] = *s
	return nil
}

func (t *tx) UpdateScheduleDetails(_ context.Context, s *model.ExamSchedule) error {
	cur, err := t.lockedSchedule(s.ID)
	if err != nil {
		return err
	}
	t.store.mu.Lock()
	for id, other := range t.store.schedules {
		if id != s.ID && sameWindow(*s, other) {
			t.store.mu.Unlock()
			return booking.DuplicateValue("exam schedule window already exists")
		}
	}
	t.store.mu.Unlock()

	cur.Title = s.Title
	cur.Text = s.Text
	cur.MediaURL = s.MediaURL
	cur.StartAt = s.StartAt
	cur.EndAt = s.EndAt
	cur.MaxUsers = s.MaxUsers
	cur.UpdatedAt = s.UpdatedAt
	t.schedules[s.ID] = cur
	return nil
}

func (t *tx) SoftDeleteSchedule(_ context.Context, id uint64, at time.Time) error {
	cur, err := t.lockedSchedule(id)
	if err != nil {
		return err
	}
	cur.IsDeleted = true
	cur.DeletedAt = &at
	cur.UpdatedAt = at
	t.schedules[id] = cur
	return nil
}

func (t *tx) HardDeleteSchedule(_ context.Context, id uint64) error {
	if _, err := t.lockedSchedule(id); err != nil {
		return err
	}
	delete(t.schedules, id)
	t.dropped[id] = true
	return nil
}

func (t *tx) WriteCounters(_ context.Context, w booking.CounterWrite) error {
	cur, err := t.lockedSchedule(w.ScheduleID)
	if err != nil {
		return err
	}
	if w.ConfirmCount > cur.MaxUsers {
		return booking.ErrCapacityExceeded
	}
	cur.ReserveCount = w.ReserveCount
	cur.ConfirmCount = w.ConfirmCount
	cur.Status = w.Status
	cur.UpdatedAt = w.UpdatedAt
	t.schedules[w.ScheduleID] = cur
	return nil
}

func (t *tx) LockReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.reservation(id)
	if !ok {
		return nil, booking.NotFound("reservation %d not found", id)
	}
	return &r, nil
}

func (t *tx) FindReservation(_ context.Context, userID, scheduleID uint64) (*model.Reservation, error) {
	for _, r := range t.reservations {
		if r.UserID == userID && r.ExamScheduleID == scheduleID {
			return &r, nil
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, r := range t.store.reservations {
		if r.UserID == userID && r.ExamScheduleID == scheduleID {
			return &r, nil
		}
	}
	return nil, booking.NotFound("no reservation for user %d on exam schedule %d", userID, scheduleID)
}

func (t *tx) CountReservations(_ context.Context, scheduleID uint64) (int, error) {
	seen := map[uint64]bool{}
	n := 0
	for id, r := range t.reservations {
		seen[id] = true
		if r.ExamScheduleID == scheduleID {
			n++
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, r := range t.store.reservations {
		if !seen[id] && r.ExamScheduleID == scheduleID {
			n++
		}
	}
	return n, nil
}

func (t *tx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	if _, err := t.FindReservation(ctx, r.UserID, r.ExamScheduleID); err == nil {
		return booking.DuplicateValue("reservation already exists")
	}
	t.store.mu.Lock()
	t.store.lastReservation++
	r.ID = t.store.lastReservation
	now := t.store.now()
	t.store.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	t.reservations[r.ID] = *r
	return nil
}

func (t *tx) UpdateReservationStatus(_ context.Context, id uint64, status model.ReservationStatus, at time.Time) error {
	r, ok := t.reservation(id)
	if !ok {
		return booking.NotFound("reservation %d not found", id)
	}
	r.Status = status
	r.UpdatedAt = at
	t.reservations[id] = r
	return nil
}
