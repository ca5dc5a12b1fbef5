// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/exam-reservation/internal/config"
	"github.com/iliyamo/exam-reservation/internal/handler"
	"github.com/iliyamo/exam-reservation/internal/middleware"
)

// scheduleCacheScope groups cached exam schedule reads. Reservation writes
// invalidate it too because they move the counters.
const scheduleCacheScope = "exam-schedules"

// Deps is everything the routes need. Redis may be nil, in which case rate
// limiting and caching are off.
type Deps struct {
	DB           *sql.DB
	Auth         *handler.AuthHandler
	Schedules    *handler.ExamScheduleHandler
	Reservations *handler.ReservationHandler
	JWTSecret    string
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
	Logger       *slog.Logger
}

// RegisterRoutes mounts /healthz and the /v1 API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger))
	registerAuth(v1, d)
	registerPublic(v1, d)
	registerUser(v1, d)
	registerSuperuser(v1, d)
}

func registerAuth(v1 *echo.Group, d Deps) {
	g := v1.Group("/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)

	v1.GET("/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret))
}

// registerPublic mounts the cached, unauthenticated schedule reads.
func registerPublic(v1 *echo.Group, d Deps) {
	g := v1.Group("/exam-schedules", middleware.NewRedisCache(d.Cache, d.Redis, scheduleCacheScope))
	g.GET("", d.Schedules.List)
	g.GET("/:id", d.Schedules.Get)
}
