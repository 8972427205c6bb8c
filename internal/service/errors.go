package service

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned when no model invoker is configured,
	// usually because the API credential is missing.
	ErrModelUnavailable = errors.New("model is not available: set an LLM API key and check the provider settings")

	// ErrMalformedResponse is returned when no JSON object can be salvaged from the model reply.
	ErrMalformedResponse = errors.New("Model did not return valid JSON.")

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a rejected caller input. It is raised before any model call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
