package http

import (
	"context"
	_ "embed"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// LoadOpenAPI parses and validates the embedded API contract.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load openapi document")
	}
	if err = doc.Validate(ctx); err != nil {
		return nil, pkgerrors.Wrap(err, "validate openapi document")
	}
	return doc, nil
}

// swaggerDoc serves the contract to echo-swagger through the swag registry.
type swaggerDoc struct {
	json string
}

func (d swaggerDoc) ReadDoc() string {
	return d.json
}

var registerSwagger sync.Once

// RegisterSwagger publishes doc as the swag instance read by /swagger/doc.json.
// Only the first call has an effect.
func RegisterSwagger(doc *openapi3.T) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return pkgerrors.Wrap(err, "marshal openapi document")
	}

	registerSwagger.Do(func() {
		swag.Register(swag.Name, swaggerDoc{json: string(data)})
	})
	return nil
}

// OpenAPIValidator rejects requests that do not match doc with 400. Requests
// to routes outside the contract (health, metrics, swagger) pass through.
func OpenAPIValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build openapi router")
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, findErr := router.FindRoute(req)
			if findErr != nil {
				return next(c)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if validationErr := openapi3filter.ValidateRequest(req.Context(), input); validationErr != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{
					Code:    http.StatusBadRequest,
					Message: validationMessage(validationErr),
				})
			}

			return next(c)
		}
	}, nil
}

// validationMessage keeps the first line of a kin-openapi error; the rest is
// a schema dump.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return "Invalid request: " + msg
}
