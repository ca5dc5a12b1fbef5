package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

func sampleEvent() booking.AuditEvent {
	return booking.AuditEvent{
		Action:         booking.AuditStatusChanged,
		ReservationID:  5,
		UserID:         10,
		ExamScheduleID: 7,
		From:           model.ReservationReserved,
		To:             model.ReservationConfirmed,
		ActorID:        1,
		At:             time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
	}
}

func TestEventFrom(t *testing.T) {
	ev := eventFrom(sampleEvent())
	assert.Equal(t, "RESERVED", ev.FromStatus)
	assert.Equal(t, "CONFIRMED", ev.ToStatus)
	assert.Equal(t, "2030-01-02T02:04:05Z", ev.OccurredAt)

	created := sampleEvent()
	created.Action, created.From = booking.AuditCreated, ""
	body, err := json.Marshal(eventFrom(created))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "from_status")
}

func TestWriteEvent(t *testing.T) {
	body, err := json.Marshal(eventFrom(sampleEvent()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, body))
	assert.Equal(t,
		"[2030-01-02T02:04:05Z] reservation.status_changed | reservation_id=5 | user_id=10 | exam_schedule_id=7 | RESERVED -> CONFIRMED | actor_id=1\n",
		buf.String())

	assert.Error(t, writeEvent(&buf, []byte("{")))
	assert.Error(t, writeEvent(&buf, []byte(`{"action":""}`)))
}

func TestAppendEventCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "reservation.log")
	body, err := json.Marshal(eventFrom(sampleEvent()))
	require.NoError(t, err)

	require.NoError(t, appendEvent(path, body))
	require.NoError(t, appendEvent(path, body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}
