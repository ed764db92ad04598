package http

import (
	"errors"
	"net/http"

	"restaurant/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusCode maps a use case error to an HTTP status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrTransitionIsInvalid),
		errors.Is(err, errs.ErrObjectAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errs.ErrRetriesAreExhausted),
		errors.Is(err, errs.ErrStoreIsUnavailable),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) ErrorResponse {
	code := statusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "Internal server error"
	}
	return ErrorResponse{Code: code, Message: message}
}

// writeError logs unexpected failures and renders err as an ErrorResponse.
func (s *Server) writeError(c echo.Context, err error) error {
	response := errorResponse(err)
	if response.Code >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.JSON(response.Code, response)
}
