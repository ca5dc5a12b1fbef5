package memstore

import (
	"strings"
	"time"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// sortKey exposes row columns by name for ordering.
type sortKey struct {
	id      uint64
	columns map[string]any
}

func scheduleKey(s model.ExamSchedule) sortKey {
	return sortKey{id: s.ID, columns: map[string]any{
		"created_at": s.CreatedAt,
		"updated_at": s.UpdatedAt,
		"start_at":   s.StartAt,
		"end_at":     s.EndAt,
		"title":      s.Title,
		"status":     string(s.Status),
		"max_users":  s.MaxUsers,
	}}
}

func reservationKey(r model.Reservation) sortKey {
	return sortKey{id: r.ID, columns: map[string]any{
		"created_at":       r.CreatedAt,
		"updated_at":       r.UpdatedAt,
		"status":           string(r.Status),
		"exam_schedule_id": r.ExamScheduleID,
		"user_id":          r.UserID,
	}}
}

// less orders by the requested fields, then newest first, then id
// descending, matching the MySQL store's default ordering.
func less(order []booking.SortField, a, b sortKey) bool {
	if len(order) == 0 {
		order = []booking.SortField{{Field: "created_at", Desc: true}}
	}
	for _, f := range order {
		c := compare(a.columns[f.Field], b.columns[f.Field])
		if c == 0 {
			continue
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.id > b.id
}

func compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return strings.Compare(x, b.(string))
	case uint64:
		y := b.(uint64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case int:
		y := b.(int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}
