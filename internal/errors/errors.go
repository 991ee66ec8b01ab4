// Package errors defines the coded application errors shared by the diary
// service layers. The HTTP layer maps codes to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown      = "UNKNOWN"
	CodeDatabase     = "DATABASE"
	CodeValidation   = "VALIDATION"
	CodeAPI          = "API"
	CodeConfig       = "CONFIG"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Message() string
	Unwrap() error
}

// appError carries the code, caller-facing message and cause shared by
// every error type below.
type appError struct {
	code    string
	message string
	err     error
}

func (e *appError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *appError) Code() string {
	return e.code
}

// Message returns the caller-facing message without the wrapped cause.
func (e *appError) Message() string {
	return e.message
}

func (e *appError) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Message returns the caller-facing message of the first ApplicationError in
// err's chain, or fallback.
func Message(err error, fallback string) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}

	return fallback
}

type DatabaseError struct{ appError }

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{appError{code: CodeDatabase, message: message, err: cause}}
}

type ValidationError struct{ appError }

func NewValidationError(message string, cause error) error {
	return &ValidationError{appError{code: CodeValidation, message: message, err: cause}}
}

// APIError wraps failures of the external text generation service.
type APIError struct {
	appError
	StatusCode int
}

func NewAPIError(message string, statusCode int, cause error) error {
	return &APIError{appError: appError{code: CodeAPI, message: message, err: cause}, StatusCode: statusCode}
}

type ConfigError struct{ appError }

func NewConfigError(message string, cause error) error {
	return &ConfigError{appError{code: CodeConfig, message: message, err: cause}}
}

type UnauthorizedError struct{ appError }

func NewUnauthorizedError(message string) error {
	return &UnauthorizedError{appError{code: CodeUnauthorized, message: message}}
}

type ForbiddenError struct{ appError }

func NewForbiddenError(message string) error {
	return &ForbiddenError{appError{code: CodeForbidden, message: message}}
}
