package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/gate"
)

// Logger emits one structured line per request. The gate runs inside
// this middleware and attaches the caller to the request context, so the
// caller's role and account are read back after the handler returns.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if p, ok := gate.PrincipalFromContext(c.Request().Context()); ok {
				evt = evt.
					Str("role", p.Role).
					Str("account_id", p.AccountID.String())
			}

			evt.Msg("request")
			return err
		}
	}
}
