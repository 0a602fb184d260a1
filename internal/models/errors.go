package models

import (
	"errors"
	"fmt"
)

// Error codes returned to API clients.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
)

// AppError is the typed error the core returns to its callers. Handlers
// map Code to an HTTP status; everything else is treated as internal.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewNotFoundError(resource string, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// code extracts the AppError code from anywhere in the chain.
func code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return code(err) == CodeNotFound }
func IsConflict(err error) bool     { return code(err) == CodeConflict }
func IsValidation(err error) bool   { return code(err) == CodeValidation }
func IsUnauthorized(err error) bool { return code(err) == CodeUnauthorized }
