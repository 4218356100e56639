// Package apperrors описывает доменные ошибки сервиса и их коды.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Машиночитаемый код ошибки.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeInvalidOperation  Code = "INVALID_OPERATION"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus возвращает HTTP-статус для кода.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeInvalidTransition, CodeInvalidOperation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error — доменная ошибка с кодом и метаданными.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, поэтому errors.Is(err, apperrors.ErrNotFound) работает
// для любой ошибки NOT_FOUND.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Сентинелы для errors.Is.
var (
	ErrValidation        = New(CodeValidation, "validation error")
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrUnauthorized      = New(CodeUnauthorized, "unauthorized")
	ErrForbidden         = New(CodeForbidden, "forbidden")
	ErrInvalidTransition = New(CodeInvalidTransition, "invalid status transition")
	ErrInvalidOperation  = New(CodeInvalidOperation, "invalid operation")
	ErrConflict          = New(CodeConflict, "conflict")
)

func Validation(message string) *Error { return New(CodeValidation, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Forbidden(message string) *Error { return New(CodeForbidden, message) }

func InvalidOperation(message string) *Error { return New(CodeInvalidOperation, message) }

func Conflict(message string) *Error { return New(CodeConflict, message) }

// Переход статуса, которого нет в графе.
func InvalidTransition(from, to string) *Error {
	return WithMetadata(
		CodeInvalidTransition,
		fmt.Sprintf("Недопустимый переход статуса: %s -> %s", from, to),
		map[string]string{"from": from, "to": to},
	)
}

// CodeOf достаёт код из цепочки ошибок; для чужих ошибок: CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
