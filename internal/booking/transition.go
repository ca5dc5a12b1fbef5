package booking

import "github.com/iliyamo/exam-reservation/internal/model"

// Transition is the effect of moving a reservation between two states.
// Guarded transitions require a free confirmed seat.
type Transition struct {
	Guarded  bool
	DReserve int
	DConfirm int
}

// Noop reports whether the transition leaves the schedule untouched.
func (t Transition) Noop() bool { return !t.Guarded && t.DReserve == 0 && t.DConfirm == 0 }

type statusPair struct{ from, to model.ReservationStatus }

var transitions = map[statusPair]Transition{
	{model.ReservationReserved, model.ReservationReserved}:   {},
	{model.ReservationReserved, model.ReservationConfirmed}:  {Guarded: true, DReserve: -1, DConfirm: 1},
	{model.ReservationReserved, model.ReservationCancelled}:  {DReserve: -1},
	{model.ReservationReserved, model.ReservationDeleted}:    {DReserve: -1},

	{model.ReservationConfirmed, model.ReservationConfirmed}: {},
	{model.ReservationConfirmed, model.ReservationReserved}:  {DReserve: 1},
	{model.ReservationConfirmed, model.ReservationCancelled}: {DConfirm: -1},
	{model.ReservationConfirmed, model.ReservationDeleted}:   {DConfirm: -1},

	{model.ReservationCancelled, model.ReservationCancelled}: {},
	{model.ReservationCancelled, model.ReservationReserved}:  {DReserve: 1},
	{model.ReservationCancelled, model.ReservationConfirmed}: {Guarded: true, DConfirm: 1},
	{model.ReservationCancelled, model.ReservationDeleted}:   {},

	{model.ReservationDeleted, model.ReservationDeleted}:     {},
	{model.ReservationDeleted, model.ReservationReserved}:    {DReserve: 1},
	{model.ReservationDeleted, model.ReservationConfirmed}:   {Guarded: true, DConfirm: 1},
	{model.ReservationDeleted, model.ReservationCancelled}:   {},
}

// LookupTransition returns the table entry for from -> to.
func LookupTransition(from, to model.ReservationStatus) (Transition, bool) {
	t, ok := transitions[statusPair{from, to}]
	return t, ok
}
