package model

import (
	"fmt"
	"time"
)

// ScheduleStatus is the availability state of an exam schedule.
type ScheduleStatus string

const (
	ScheduleAvailable   ScheduleStatus = "AVAILABLE"
	ScheduleFullyBooked ScheduleStatus = "FULLY_BOOKED"
	ScheduleCancelled   ScheduleStatus = "CANCELLED"
	ScheduleDeleted     ScheduleStatus = "DELETED"
)

// Valid reports whether s is one of the known schedule states.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleAvailable, ScheduleFullyBooked, ScheduleCancelled, ScheduleDeleted:
		return true
	}
	return false
}

// IsAdministrative reports whether s was set explicitly by an administrator.
// Administrative states are never overwritten by counter changes.
func (s ScheduleStatus) IsAdministrative() bool {
	return s == ScheduleCancelled || s == ScheduleDeleted
}

// DeriveStatus computes a schedule's status from its confirmed seat count.
// An administrative current state dominates the derived rule.
func DeriveStatus(confirmCount, maxUsers int, current ScheduleStatus) ScheduleStatus {
	if current.IsAdministrative() {
		return current
	}
	if confirmCount >= maxUsers {
		return ScheduleFullyBooked
	}
	return ScheduleAvailable
}

// ExamSchedule mirrors a row of the `exam_schedules` table. ReserveCount,
// ConfirmCount and Status are written only by the capacity guard.
type ExamSchedule struct {
	ID              uint64         `json:"id"`
	UUID            string         `json:"uuid"`
	CreatedByUserID uint64         `json:"created_by_user_id"`
	Title           string         `json:"title"`
	Text            string         `json:"text"`
	MediaURL        *string        `json:"media_url"`
	StartAt         time.Time      `json:"start_at"`
	EndAt           time.Time      `json:"end_at"`
	MaxUsers        int            `json:"max_users"`
	ReserveCount    int            `json:"reserve_count"`
	ConfirmCount    int            `json:"confirm_count"`
	Status          ScheduleStatus `json:"status"`
	IsDeleted       bool           `json:"is_deleted"`
	DeletedAt       *time.Time     `json:"deleted_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Closed reports whether the schedule no longer accepts seats, either
// because it was soft-deleted or an administrator cancelled it.
func (e *ExamSchedule) Closed() bool {
	return e.IsDeleted || e.Status.IsAdministrative()
}

// CheckInvariants verifies the counter and status invariants of e.
func (e *ExamSchedule) CheckInvariants() error {
	if e.ConfirmCount < 0 || e.ConfirmCount > e.MaxUsers {
		return fmt.Errorf("confirm_count %d outside [0, %d]", e.ConfirmCount, e.MaxUsers)
	}
	if e.ReserveCount < 0 {
		return fmt.Errorf("reserve_count %d is negative", e.ReserveCount)
	}
	if !e.EndAt.After(e.StartAt) {
		return fmt.Errorf("end_at %s not after start_at %s", e.EndAt, e.StartAt)
	}
	if want := DeriveStatus(e.ConfirmCount, e.MaxUsers, e.Status); e.Status != want {
		return fmt.Errorf("status %s, derived %s", e.Status, want)
	}
	return nil
}
