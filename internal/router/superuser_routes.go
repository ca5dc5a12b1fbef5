package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-reservation/internal/middleware"
	"github.com/iliyamo/exam-reservation/internal/model"
)

// registerSuperuser mounts schedule administration and the global
// reservation listing. Schedule ownership is checked in the service.
func registerSuperuser(v1 *echo.Group, d Deps) {
	g := v1.Group("",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleSuperuser),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Logger, scheduleCacheScope),
	)
	g.POST("/exam-schedules", d.Schedules.Create)
	g.PATCH("/exam-schedules/:id", d.Schedules.Update)
	g.DELETE("/exam-schedules/:id", d.Schedules.SoftDelete)
	g.DELETE("/db-exam-schedules/:id", d.Schedules.HardDelete)
	g.GET("/reservations", d.Reservations.List)
}
