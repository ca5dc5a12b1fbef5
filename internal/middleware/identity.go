package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Actor returns the authenticated identity stored by JWTAuth.
func Actor(c echo.Context) (booking.Actor, bool) {
	uid, ok := c.Get(ctxUserID).(uint64)
	if !ok || uid == 0 {
		return booking.Actor{}, false
	}
	role, _ := c.Get(ctxRole).(string)
	return booking.Actor{UserID: uid, Superuser: role == model.RoleSuperuser}, true
}

// currentUserID is the user part of rate limit keys, "anon" for
// unauthenticated requests.
func currentUserID(c echo.Context) string {
	if uid, ok := c.Get(ctxUserID).(uint64); ok && uid != 0 {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
