// Package memstore is an in-memory booking.Store. Transactions stage their
// writes and hold per-schedule row locks until they finish, mirroring the
// SELECT ... FOR UPDATE behaviour of the MySQL store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

type Store struct {
	mu              sync.Mutex
	schedules       map[uint64]model.ExamSchedule
	reservations    map[uint64]model.Reservation
	rowLocks        map[uint64]chan struct{}
	lastSchedule    uint64
	lastReservation uint64
	now             func() time.Time
}

var _ booking.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		schedules:    map[uint64]model.ExamSchedule{},
		reservations: map[uint64]model.Reservation{},
		rowLocks:     map[uint64]chan struct{}{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for row timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutSchedule stores a schedule row as-is, bypassing the guard. Tests use it
// to seed counter states.
func (s *Store) PutSchedule(sch model.ExamSchedule) model.ExamSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sch.ID == 0 {
		s.lastSchedule++
		sch.ID = s.lastSchedule
	} else if sch.ID > s.lastSchedule {
		s.lastSchedule = sch.ID
	}
	s.schedules[sch.ID] = sch
	return sch
}

func (s *Store) rowLock(id uint64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	return ch
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	t := &tx{
		store:        s,
		held:         map[uint64]chan struct{}{},
		schedules:    map[uint64]model.ExamSchedule{},
		dropped:      map[uint64]bool{},
		reservations: map[uint64]model.Reservation{},
	}
	defer t.release()
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sch := range t.schedules {
		for oid, other := range s.schedules {
			if oid != id && sameWindow(sch, other) {
				return booking.DuplicateValue("exam schedule window already exists")
			}
		}
	}
	for id, r := range t.reservations {
		for oid, other := range s.reservations {
			if oid != id && other.UserID == r.UserID && other.ExamScheduleID == r.ExamScheduleID {
				return booking.DuplicateValue("reservation already exists")
			}
		}
	}
	for id, sch := range t.schedules {
		s.schedules[id] = sch
	}
	for id := range t.dropped {
		delete(s.schedules, id)
	}
	for id, r := range t.reservations {
		s.reservations[id] = r
	}
	return nil
}

func sameWindow(a, b model.ExamSchedule) bool {
	return a.CreatedByUserID == b.CreatedByUserID && a.StartAt.Equal(b.StartAt) && a.EndAt.Equal(b.EndAt)
}

func (s *Store) GetSchedule(_ context.Context, id uint64) (*model.ExamSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[id]
	if !ok || sch.IsDeleted {
		return nil, booking.NotFound("exam schedule %d not found", id)
	}
	return &sch, nil
}

func (s *Store) ListSchedules(_ context.Context, f booking.ScheduleFilter, order []booking.SortField, page booking.PageRequest) ([]model.ExamSchedule, int, error) {
	s.mu.Lock()
	var rows []model.ExamSchedule
	for _, sch := range s.schedules {
		if sch.IsDeleted {
			continue
		}
		if f.Status != nil && sch.Status != *f.Status {
			continue
		}
		if f.CreatedByUserID != nil && sch.CreatedByUserID != *f.CreatedByUserID {
			continue
		}
		rows = append(rows, sch)
	}
	s.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return less(order, scheduleKey(rows[i]), scheduleKey(rows[j]))
	})
	return paginate(rows, page), len(rows), nil
}

func (s *Store) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, booking.NotFound("reservation %d not found", id)
	}
	return &r, nil
}

func (s *Store) ListReservations(_ context.Context, f booking.ReservationFilter, order []booking.SortField, page booking.PageRequest) ([]model.Reservation, int, error) {
	s.mu.Lock()
	var rows []model.Reservation
	for _, r := range s.reservations {
		if f.UserID != nil && r.UserID != *f.UserID {
			continue
		}
		if f.ExamScheduleID != nil && r.ExamScheduleID != *f.ExamScheduleID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		rows = append(rows, r)
	}
	s.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return less(order, reservationKey(rows[i]), reservationKey(rows[j]))
	})
	return paginate(rows, page), len(rows), nil
}

func paginate[T any](rows []T, page booking.PageRequest) []T {
	start := page.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + page.ItemsPerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
