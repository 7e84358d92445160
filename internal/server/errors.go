package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/fitness-planner/internal/pipeline"
	"github.com/jonathan/fitness-planner/internal/store"
)

// timeoutMessage is returned with 504 responses.
const timeoutMessage = "Request timeout - The plan generation is taking longer than expected. Please try again."

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrMethodNotAllowed indicates a method other than the endpoint accepts
type ErrMethodNotAllowed struct {
	Method string
}

func (e *ErrMethodNotAllowed) Error() string {
	return "Method not allowed"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		timeout    *pipeline.TimeoutError
		validation *ErrValidation
		fields     validator.ValidationErrors
		method     *ErrMethodNotAllowed
	)
	switch {
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &method):
		return http.StatusMethodNotAllowed
	case errors.As(err, &validation), errors.As(err, &fields):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the JSON error envelope for err.
func errorBody(err error) map[string]any {
	var timeout *pipeline.TimeoutError
	if errors.As(err, &timeout) {
		return map[string]any{"error": timeoutMessage, "timeout": true}
	}
	return map[string]any{"error": err.Error()}
}
