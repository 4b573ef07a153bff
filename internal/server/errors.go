package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/motif"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError reports a rejected configuration value.
func NewValidationError(ce *geometry.ConfigurationError) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", ce.Field),
		Details: ce.Error(),
	}
}

func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// classify maps domain errors onto API errors.
func classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var ce *geometry.ConfigurationError
	switch {
	case errors.As(err, &ce):
		return NewValidationError(ce)
	case errors.Is(err, motif.ErrDuplicateSegment):
		return NewConflictError(err.Error())
	case errors.Is(err, motif.ErrSameEndpoint), errors.Is(err, motif.ErrUnknownNode):
		return NewBadRequestError("invalid segment", err)
	}
	return nil
}

// ErrorHandler renders every error as an APIError.
// Usage: e.HTTPErrorHandler = ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := classify(err)
	if apiErr == nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			apiErr = &APIError{
				Status:  he.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", he.Message),
			}
		} else {
			apiErr = NewInternalError("An unexpected error occurred", err)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
