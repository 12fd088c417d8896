package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
	"github.com/shinyyama/centace-backend/internal/reqctx"
)

const HeaderRequestID = "X-Request-ID"

// RequestContext tags each request with an id, logs it and records latency.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := req.Header.Get(HeaderRequestID)
		if rid == "" {
			rid = reqctx.NewRID()
		}
		c.Response().Header().Set(HeaderRequestID, rid)
		c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.APIRequestDuration.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		ev := logging.Ctx(c.Request().Context()).Info()
		if status >= 500 {
			ev = logging.Ctx(c.Request().Context()).Error()
		}
		ev.Str("method", req.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Msg("request")
		return nil
	}
}
