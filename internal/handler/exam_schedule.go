package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// ExamScheduleHandler serves /v1/exam-schedules and the hard delete route.
type ExamScheduleHandler struct {
	Svc *booking.Service
}

func NewExamScheduleHandler(svc *booking.Service) *ExamScheduleHandler {
	if svc == nil {
		panic("nil service passed to NewExamScheduleHandler")
	}
	return &ExamScheduleHandler{Svc: svc}
}

type createScheduleReq struct {
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	MediaURL *string `json:"media_url"`
	StartAt  string  `json:"start_at"`
	EndAt    string  `json:"end_at"`
	MaxUsers int     `json:"max_users"`
}

type patchScheduleReq struct {
	Title    *string `json:"title"`
	Text     *string `json:"text"`
	MediaURL *string `json:"media_url"`
	StartAt  *string `json:"start_at"`
	EndAt    *string `json:"end_at"`
	MaxUsers *int    `json:"max_users"`
	Status   *string `json:"status"`
}

// Create handles POST /v1/exam-schedules.
func (h *ExamScheduleHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	var req createScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in := booking.ScheduleInput{
		Title:    req.Title,
		Text:     req.Text,
		MediaURL: req.MediaURL,
		MaxUsers: req.MaxUsers,
	}
	if in.StartAt, err = parseTime("start_at", req.StartAt); err != nil {
		return writeError(c, err)
	}
	if in.EndAt, err = parseTime("end_at", req.EndAt); err != nil {
		return writeError(c, err)
	}
	s, err := h.Svc.CreateExamSchedule(c.Request().Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// List handles GET /v1/exam-schedules?status=&created_by=&sort=&page=&items_per_page=.
func (h *ExamScheduleHandler) List(c echo.Context) error {
	var f booking.ScheduleFilter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st := model.ScheduleStatus(strings.ToUpper(raw))
		if !st.Valid() {
			return writeError(c, booking.BadRequest("unknown exam schedule status %q", raw))
		}
		f.Status = &st
	}
	var err error
	if f.CreatedByUserID, err = optionalUint(c, "created_by"); err != nil {
		return writeError(c, err)
	}
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.Svc.ListExamSchedules(c.Request().Context(), f, c.QueryParam("sort"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/exam-schedules/:id.
func (h *ExamScheduleHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	s, err := h.Svc.GetExamSchedule(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Update handles PATCH /v1/exam-schedules/:id.
func (h *ExamScheduleHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req patchScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	patch := booking.SchedulePatch{
		Title:    req.Title,
		Text:     req.Text,
		MediaURL: req.MediaURL,
		MaxUsers: req.MaxUsers,
	}
	if req.StartAt != nil {
		t, err := parseTime("start_at", *req.StartAt)
		if err != nil {
			return writeError(c, err)
		}
		patch.StartAt = &t
	}
	if req.EndAt != nil {
		t, err := parseTime("end_at", *req.EndAt)
		if err != nil {
			return writeError(c, err)
		}
		patch.EndAt = &t
	}
	if req.Status != nil {
		st := model.ScheduleStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &st
	}
	s, err := h.Svc.UpdateExamSchedule(c.Request().Context(), actor, id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SoftDelete handles DELETE /v1/exam-schedules/:id.
func (h *ExamScheduleHandler) SoftDelete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Svc.SoftDeleteExamSchedule(c.Request().Context(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HardDelete handles DELETE /v1/db-exam-schedules/:id.
func (h *ExamScheduleHandler) HardDelete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Svc.HardDeleteExamSchedule(c.Request().Context(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
