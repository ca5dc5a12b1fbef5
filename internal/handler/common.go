// Package handler holds the echo HTTP handlers. Business failures arrive as
// *booking.Error values and are mapped to status codes in writeError.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/logging"
	"github.com/iliyamo/exam-reservation/internal/middleware"
)

// errUnauthenticated is returned when a protected handler runs without an
// identity in the context.
var errUnauthenticated = errors.New("unauthorized")

func actorFrom(c echo.Context) (booking.Actor, error) {
	a, ok := middleware.Actor(c)
	if !ok {
		return booking.Actor{}, errUnauthenticated
	}
	return a, nil
}

// writeError renders err as {"error": msg}. Unclassified errors become a
// generic 500 and are logged with their cause.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, errUnauthenticated) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var be *booking.Error
	if errors.As(err, &be) {
		status := http.StatusInternalServerError
		switch be.Kind {
		case booking.KindNotFound:
			status = http.StatusNotFound
		case booking.KindForbidden:
			status = http.StatusForbidden
		case booking.KindDuplicateValue:
			status = http.StatusConflict
		case booking.KindBadRequest:
			status = http.StatusBadRequest
		}
		if status != http.StatusInternalServerError {
			msg := be.Msg
			if msg == "" {
				msg = be.Kind.String()
			}
			return c.JSON(status, echo.Map{"error": msg})
		}
	}
	ctx := c.Request().Context()
	logging.Or(ctx, nil).ErrorContext(ctx, "request failed",
		"method", c.Request().Method, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, booking.BadRequest("invalid %s", name)
	}
	return id, nil
}

// optionalUint reads a positive integer query parameter.
func optionalUint(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, booking.BadRequest("invalid %s", name)
	}
	return &v, nil
}

// parsePage reads page and items_per_page. Range checks happen in the
// booking service.
func parsePage(c echo.Context) (booking.PageRequest, error) {
	var p booking.PageRequest
	for name, dst := range map[string]*int{"page": &p.Page, "items_per_page": &p.ItemsPerPage} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, booking.BadRequest("%s must be a positive integer", name)
		}
		*dst = n
	}
	return p, nil
}

// timeLayouts are the accepted request time formats. Zone-less values are UTC.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

func parseTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, booking.BadRequest("%s must be RFC 3339 or YYYY-MM-DD HH:MM", field)
}
