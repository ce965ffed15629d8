package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidation       ErrorCode = "VALIDATION"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeInternal         ErrorCode = "INTERNAL"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code onto the status the API responds with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation, CodeCapacityExceeded:
		return fiber.StatusBadRequest
	case CodeConflict:
		return fiber.StatusConflict
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap keeps err reachable through errors.Is/As. Wrapping a sentinel keeps the
// sentinel matchable as well.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func Validation(format string, args ...any) *AppError {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first AppError in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
