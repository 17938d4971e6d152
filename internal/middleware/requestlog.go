package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/slot-booking-api/internal/metrics"
)

// RequestLogger attaches a request-scoped zerolog logger (tagged with the
// request id set by echo's RequestID middleware) to the request context and
// writes one line per request.  Handler errors are rendered here through
// c.Error so the logged status is the one the client saw.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)

			logger := base.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.IncHTTP(req.Method, route, res.Status)

			ev := logger.Info()
			switch {
			case res.Status >= 500:
				ev = logger.Error()
			case res.Status >= 400:
				ev = logger.Warn()
			}
			ev.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("route", route).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Str("ip", c.RealIP()).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
