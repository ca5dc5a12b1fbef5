package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/exam-reservation/internal/logging"
)

// ContextLogger attaches a request-scoped logger carrying the request id to
// the request context. It must run after echo's RequestID middleware.
func ContextLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := base.With("request_id", rid)
			c.SetRequest(req.WithContext(logging.ContextWithLogger(req.Context(), l)))
			return next(c)
		}
	}
}

// AccessLog writes one slog record per request.
func AccessLog(base *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("request_id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if uid, ok := c.Get(ctxUserID).(uint64); ok {
				attrs = append(attrs, slog.Uint64("user_id", uid))
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			} else if v.Status >= 500 {
				level = slog.LevelError
			}
			base.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
