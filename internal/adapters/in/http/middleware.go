package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestObserver receives the outcome of every request.
type RequestObserver interface {
	ObserveRequest(handler string, status int, elapsed time.Duration)
}

// RequestLogger logs one line per request. Server errors are logged at error
// level, client errors at warn level.
func RequestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			entry := logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
			})

			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request handled")
			case status >= http.StatusBadRequest:
				entry.Warn("request handled")
			default:
				entry.Debug("request handled")
			}
			return nil
		}
	}
}

// RequestMetrics reports the route template, status and latency of every
// request to observer.
func RequestMetrics(observer RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			observer.ObserveRequest(path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
