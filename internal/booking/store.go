package booking

import (
	"context"
	"time"

	"github.com/iliyamo/exam-reservation/internal/model"
)

// Store is the persistence the booking service runs on. Implementations
// report missing rows as ErrNotFound and unique violations as
// ErrDuplicateValue.
type Store interface {
	// WithinTx runs fn in one transaction, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// GetSchedule returns a schedule that is not soft-deleted.
	GetSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error)
	ListSchedules(ctx context.Context, f ScheduleFilter, sort []SortField, page PageRequest) ([]model.ExamSchedule, int, error)

	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter, sort []SortField, page PageRequest) ([]model.Reservation, int, error)
}

// CounterWrite is the guard's conditional write. It must fail with
// ErrCapacityExceeded when ConfirmCount exceeds the stored max_users.
type CounterWrite struct {
	ScheduleID   uint64
	ReserveCount int
	ConfirmCount int
	Status       model.ScheduleStatus
	UpdatedAt    time.Time
}

// Tx is the transactional view of the store. Rows must be locked in the
// order schedule, then reservation.
type Tx interface {
	// LockSchedule takes an exclusive lock on the schedule row, including
	// soft-deleted rows, until the transaction ends.
	LockSchedule(ctx context.Context, id uint64) (*model.ExamSchedule, error)
	InsertSchedule(ctx context.Context, s *model.ExamSchedule) error
	// UpdateScheduleDetails writes the descriptive fields and max_users.
	UpdateScheduleDetails(ctx context.Context, s *model.ExamSchedule) error
	SoftDeleteSchedule(ctx context.Context, id uint64, at time.Time) error
	HardDeleteSchedule(ctx context.Context, id uint64) error
	WriteCounters(ctx context.Context, w CounterWrite) error

	LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// FindReservation looks up the reservation of userID for a schedule in
	// any status.
	FindReservation(ctx context.Context, userID, scheduleID uint64) (*model.Reservation, error)
	CountReservations(ctx context.Context, scheduleID uint64) (int, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, at time.Time) error
}

// AuditEvent describes a committed reservation change.
type AuditEvent struct {
	Action         string
	ReservationID  uint64
	UserID         uint64
	ExamScheduleID uint64
	From           model.ReservationStatus
	To             model.ReservationStatus
	ActorID        uint64
	At             time.Time
}

const (
	AuditCreated       = "reservation.created"
	AuditStatusChanged = "reservation.status_changed"
)

// Auditor receives committed reservation changes. Delivery is best effort.
type Auditor interface {
	ReservationChanged(ctx context.Context, ev AuditEvent) error
}
