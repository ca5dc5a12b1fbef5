// Package queue carries reservation audit events over RabbitMQ. Publisher
// implements booking.Auditor and StartAuditConsumer appends delivered
// events to a log file.
package queue

import (
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
)

// ReservationQueue is the durable queue audit events are published to.
const ReservationQueue = "reservation.events"

// ReservationEvent is the JSON payload of one committed reservation change.
type ReservationEvent struct {
	Action         string `json:"action"`
	ReservationID  uint64 `json:"reservation_id"`
	UserID         uint64 `json:"user_id"`
	ExamScheduleID uint64 `json:"exam_schedule_id"`
	FromStatus     string `json:"from_status,omitempty"`
	ToStatus       string `json:"to_status"`
	ActorID        uint64 `json:"actor_id"`
	OccurredAt     string `json:"occurred_at"`
}

func eventFrom(ev booking.AuditEvent) ReservationEvent {
	return ReservationEvent{
		Action:         ev.Action,
		ReservationID:  ev.ReservationID,
		UserID:         ev.UserID,
		ExamScheduleID: ev.ExamScheduleID,
		FromStatus:     string(ev.From),
		ToStatus:       string(ev.To),
		ActorID:        ev.ActorID,
		OccurredAt:     ev.At.UTC().Format(time.RFC3339),
	}
}
