package model

import (
	"strings"
	"time"
)

// ReservationStatus is the lifecycle state of a user's reservation.
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "RESERVED"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationDeleted   ReservationStatus = "DELETED"
)

// ReservationStatuses lists every state in declaration order.
var ReservationStatuses = []ReservationStatus{
	ReservationReserved,
	ReservationConfirmed,
	ReservationCancelled,
	ReservationDeleted,
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationReserved, ReservationConfirmed, ReservationCancelled, ReservationDeleted:
		return true
	}
	return false
}

// ParseReservationStatus accepts a status name in any case.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	st := ReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Reservation mirrors a row of the `user_reservations` table. Rows are never
// removed; DELETED is a logical state.
type Reservation struct {
	ID             uint64            `json:"id"`
	UserID         uint64            `json:"user_id"`
	ExamScheduleID uint64            `json:"exam_schedule_id"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
