package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/middleware"
)

// registerUser mounts the reservation endpoints open to any authenticated
// user. Ownership and privilege checks happen in the booking service.
func registerUser(v1 *echo.Group, d Deps) {
	g := v1.Group("",
		middleware.JWTAuth(d.JWTSecret),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Logger, scheduleCacheScope),
	)
	g.POST("/reservations", d.Reservations.Create)
	g.PATCH("/reservations/:id/status", d.Reservations.ChangeStatus)
	g.GET("/reservations/:id", d.Reservations.Get)
	g.GET("/my-reservations", d.Reservations.Mine)
}
