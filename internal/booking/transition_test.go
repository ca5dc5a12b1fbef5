package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/exam-reservation/internal/model"
)

func TestTransitionTable_CoversEveryPair(t *testing.T) {
	for _, from := range model.ReservationStatuses {
		for _, to := range model.ReservationStatuses {
			tr, ok := LookupTransition(from, to)
			require.True(t, ok, "%s -> %s missing", from, to)
			if from == to {
				assert.True(t, tr.Noop(), "%s -> %s should be a no-op", from, to)
			}
			assert.Equal(t, to == model.ReservationConfirmed && from != to, tr.Guarded, "%s -> %s guard", from, to)
		}
	}
	assert.Len(t, transitions, 16)
}

func TestTransitionTable_Deltas(t *testing.T) {
	tests := []struct {
		from, to          model.ReservationStatus
		dReserve, dConfirm int
	}{
		{model.ReservationReserved, model.ReservationConfirmed, -1, 1},
		{model.ReservationReserved, model.ReservationCancelled, -1, 0},
		{model.ReservationReserved, model.ReservationDeleted, -1, 0},
		{model.ReservationCancelled, model.ReservationConfirmed, 0, 1},
		{model.ReservationDeleted, model.ReservationConfirmed, 0, 1},
		{model.ReservationCancelled, model.ReservationReserved, 1, 0},
		{model.ReservationDeleted, model.ReservationReserved, 1, 0},
		{model.ReservationConfirmed, model.ReservationCancelled, 0, -1},
		{model.ReservationConfirmed, model.ReservationDeleted, 0, -1},
		{model.ReservationConfirmed, model.ReservationReserved, 1, 0},
		{model.ReservationCancelled, model.ReservationDeleted, 0, 0},
		{model.ReservationDeleted, model.ReservationCancelled, 0, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			tr, ok := LookupTransition(tt.from, tt.to)
			require.True(t, ok)
			assert.Equal(t, tt.dReserve, tr.DReserve)
			assert.Equal(t, tt.dConfirm, tr.DConfirm)
		})
	}
}

func TestLookupTransition_UnknownStatus(t *testing.T) {
	_, ok := LookupTransition(model.ReservationReserved, "PENDING")
	assert.False(t, ok)
}
