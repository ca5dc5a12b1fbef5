package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// ReservationHandler serves the reservation endpoints. Every route runs
// behind JWTAuth.
type ReservationHandler struct {
	Svc *booking.Service
}

func NewReservationHandler(svc *booking.Service) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

type createReservationReq struct {
	ExamScheduleID uint64 `json:"exam_schedule_id"`
}

type changeStatusReq struct {
	Status string `json:"status"`
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ExamScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exam_schedule_id is required"})
	}
	r, err := h.Svc.CreateReservation(c.Request().Context(), actor, req.ExamScheduleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ChangeStatus handles PATCH /v1/reservations/:id/status.
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req changeStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	st, ok := model.ParseReservationStatus(req.Status)
	if !ok {
		return writeError(c, booking.BadRequest("unknown reservation status %q", req.Status))
	}
	r, err := h.Svc.ChangeReservationStatus(c.Request().Context(), actor, id, st)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	r, err := h.Svc.GetReservation(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Mine handles GET /v1/my-reservations.
func (h *ReservationHandler) Mine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return writeError(c, err)
	}
	f, err := reservationFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	f.UserID = &actor.UserID
	return h.list(c, f)
}

// List handles GET /v1/reservations for superusers.
func (h *ReservationHandler) List(c echo.Context) error {
	f, err := reservationFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	if f.UserID, err = optionalUint(c, "user_id"); err != nil {
		return writeError(c, err)
	}
	return h.list(c, f)
}

func (h *ReservationHandler) list(c echo.Context, f booking.ReservationFilter) error {
	page, err := parsePage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.Svc.ListReservations(c.Request().Context(), f, c.QueryParam("sort"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func reservationFilter(c echo.Context) (booking.ReservationFilter, error) {
	var f booking.ReservationFilter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st, ok := model.ParseReservationStatus(raw)
		if !ok {
			return f, booking.BadRequest("unknown reservation status %q", raw)
		}
		f.Status = &st
	}
	var err error
	f.ExamScheduleID, err = optionalUint(c, "exam_schedule_id")
	return f, err
}
