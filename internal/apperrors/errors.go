package apperrors

import "net/http"

// Error is the service-level error type. Handlers map it onto the HTTP
// response; Fields is only set for validation failures.
type Error struct {
	Status  int               `json:"-"`
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    "validation_failed",
		Message: message,
		Fields:  fields,
	}
}

func Conflict(message string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    "conflict",
		Message: message,
	}
}

func Unauthorized(message string) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: message,
	}
}

func NotFound(message string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: message,
	}
}

func Internal(message string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: message,
	}
}
