package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeSourceNotFound    = "SOURCE_NOT_FOUND"
	CodeAlreadyProcessed  = "ALREADY_PROCESSED"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

// Sentinels for errors.Is. An *AppError matches the sentinel carrying the same Code.
var (
	ErrValidation        = &AppError{Code: CodeValidation}
	ErrNotFound          = &AppError{Code: CodeNotFound}
	ErrInsufficientStock = &AppError{Code: CodeInsufficientStock}
	ErrSourceNotFound    = &AppError{Code: CodeSourceNotFound}
	ErrAlreadyProcessed  = &AppError{Code: CodeAlreadyProcessed}
	ErrConflict          = &AppError{Code: CodeConflict}
)

// AppError is an expected, per-request failure with the HTTP status it maps to.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithDetails(details map[string]string) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// InsufficientStock is returned when the cross-location total cannot cover an outbound.
func InsufficientStock(itemCode string, requested, available int) *AppError {
	return New(CodeInsufficientStock, "Insufficient stock", http.StatusBadRequest).
		WithDetail("itemCode", itemCode).
		WithDetail("requested", fmt.Sprint(requested)).
		WithDetail("available", fmt.Sprint(available))
}

// SourceNotFound is returned when a move finds no row at the source location able to cover it.
func SourceNotFound(itemCode, fromLocation string) *AppError {
	return New(CodeSourceNotFound, "Source item not found or insufficient stock", http.StatusBadRequest).
		WithDetail("itemCode", itemCode).
		WithDetail("fromLocation", fromLocation)
}

// AlreadyProcessed maps to 404 so clients treat it like a missing queue entry.
func AlreadyProcessed(id uint) *AppError {
	return New(CodeAlreadyProcessed, "Exchange queue item not found", http.StatusNotFound).
		WithDetail("id", fmt.Sprint(id))
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Internal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// Unavailable is returned when a lock or backend could not be reached in time.
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message, http.StatusServiceUnavailable)
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From converts any error into an AppError, defaulting to an internal error.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal("").Wrap(err)
}
