package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Logger emits one structured line per request. It sits outside the auth
// middleware, so the subject fields are read after the handler chain has
// resolved them onto the request context.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			evt = evt.
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			ctx := req.Context()
			if uid := auth.UserIDFromContext(ctx); uid != uuid.Nil {
				evt = evt.
					Str("user_id", uid.String()).
					Str("role", auth.RoleFromContext(ctx))
			}
			evt.Msg("request handled")

			return err
		}
	}
}
