package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Options holds the infrastructure routes mounted next to the API.
type Options struct {
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	// Observer receives per-request metrics when set.
	Observer RequestObserver
	Logger   logrus.FieldLogger
}

// NewEcho builds the echo instance: recovery, request logging and metrics,
// OpenAPI validation of /api/v1, the health, metrics and swagger routes and
// finally the order API of server.
func NewEcho(ctx context.Context, server *Server, options Options) (*echo.Echo, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	if err = RegisterSwagger(doc); err != nil {
		return nil, err
	}
	validator, err := OpenAPIValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if options.Logger != nil {
		e.Use(RequestLogger(options.Logger))
	}
	if options.Observer != nil {
		e.Use(RequestMetrics(options.Observer))
	}
	e.Use(validator)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if options.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(options.Metrics))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	server.RegisterRoutes(e)
	return e, nil
}
