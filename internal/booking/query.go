package booking

import (
	"strings"

	"github.com/iliyamo/exam-reservation/internal/model"
)

const (
	DefaultPage         = 1
	DefaultItemsPerPage = 10
	MaxItemsPerPage     = 100
)

// SortField is one column of an ORDER BY clause.
type SortField struct {
	Field string
	Desc  bool
}

// ReservationSortFields is the set of columns reservations may be sorted by.
var ReservationSortFields = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"status":           true,
	"exam_schedule_id": true,
	"user_id":          true,
}

// ScheduleSortFields is the set of columns exam schedules may be sorted by.
var ScheduleSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"start_at":   true,
	"end_at":     true,
	"title":      true,
	"status":     true,
	"max_users":  true,
}

// ParseSort parses a comma separated sort expression such as "-created_at,status".
// A leading '-' sorts descending. Unknown or repeated fields are rejected.
func ParseSort(expr string, allowed map[string]bool) ([]SortField, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var out []SortField
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		f := SortField{Field: tok}
		if strings.HasPrefix(tok, "-") {
			f.Field, f.Desc = tok[1:], true
		}
		if f.Field == "" {
			return nil, BadRequest("malformed sort expression %q", expr)
		}
		if !allowed[f.Field] {
			return nil, BadRequest("cannot sort by %q", f.Field)
		}
		if seen[f.Field] {
			return nil, BadRequest("sort field %q repeated", f.Field)
		}
		seen[f.Field] = true
		out = append(out, f)
	}
	return out, nil
}

// PageRequest selects one page of a listing. Zero values mean defaults.
type PageRequest struct {
	Page         int
	ItemsPerPage int
}

// Normalize fills defaults and rejects out of range values.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.ItemsPerPage == 0 {
		p.ItemsPerPage = DefaultItemsPerPage
	}
	if p.Page < 1 {
		return p, BadRequest("page must be >= 1")
	}
	if p.ItemsPerPage < 1 || p.ItemsPerPage > MaxItemsPerPage {
		return p, BadRequest("items_per_page must be between 1 and %d", MaxItemsPerPage)
	}
	return p, nil
}

// Offset is the number of rows skipped before the page.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.ItemsPerPage }

// Page is one page of a listing.
type Page[T any] struct {
	Data         []T  `json:"data"`
	TotalCount   int  `json:"total_count"`
	HasMore      bool `json:"has_more"`
	Page         int  `json:"page"`
	ItemsPerPage int  `json:"items_per_page"`
}

func newPage[T any](data []T, total int, req PageRequest) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:         data,
		TotalCount:   total,
		HasMore:      req.Page*req.ItemsPerPage < total,
		Page:         req.Page,
		ItemsPerPage: req.ItemsPerPage,
	}
}

// ReservationFilter narrows a reservation listing. Nil fields match all.
type ReservationFilter struct {
	UserID         *uint64
	ExamScheduleID *uint64
	Status         *model.ReservationStatus
}

// ScheduleFilter narrows an exam schedule listing. Soft-deleted schedules
// are never listed.
type ScheduleFilter struct {
	Status          *model.ScheduleStatus
	CreatedByUserID *uint64
}
