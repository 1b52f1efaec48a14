// Package errors provides application-level error types and utilities.
// It defines the generic error shapes (validation, not found, internal)
// plus the modmail lifecycle taxonomy (permission denied, already exists,
// race lost, transport failure) used across the public use case boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeInternal   ErrorType = "internal_error"
	ErrorTypeBadRequest ErrorType = "bad_request"

	// Modmail lifecycle taxonomy. AlreadyExists and RaceLost are
	// informational outcomes, not failures: the caller gets a pointer to
	// the live (or in-flight) thread instead of a new one.
	ErrorTypePermissionDenied   ErrorType = "permission_denied"
	ErrorTypeAlreadyExists      ErrorType = "already_exists"
	ErrorTypeUnsupportedChannel ErrorType = "unsupported_channel"
	ErrorTypeMissingCapability  ErrorType = "missing_capability"
	ErrorTypeRaceLost           ErrorType = "race_lost"
	ErrorTypeTransportFailure   ErrorType = "transport_failure"
	ErrorTypeOrphanedTicket     ErrorType = "orphaned_ticket"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newError(t ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newError(ErrorTypeBadRequest, http.StatusBadRequest, message, details...)
}

// NewPermissionDeniedError indicates the actor lacks any qualifying
// capability for the attempted lifecycle action. Non-retriable.
func NewPermissionDeniedError(message string, details ...string) *AppError {
	return newError(ErrorTypePermissionDenied, http.StatusForbidden, message, details...)
}

// NewAlreadyExistsError indicates a live modmail thread (or one being
// created) was found for the user. Informational, not a failure.
func NewAlreadyExistsError(message string, details ...string) *AppError {
	return newError(ErrorTypeAlreadyExists, http.StatusConflict, message, details...)
}

// NewUnsupportedChannelError indicates the target channel type cannot
// host a modmail thread.
func NewUnsupportedChannelError(message string, details ...string) *AppError {
	return newError(ErrorTypeUnsupportedChannel, http.StatusBadRequest, message, details...)
}

// NewMissingCapabilityError lists the transport capabilities the bot is
// missing on the target channel.
func NewMissingCapabilityError(missing []string) *AppError {
	return newError(
		ErrorTypeMissingCapability,
		http.StatusForbidden,
		"bot lacks required channel capabilities",
		strings.Join(missing, ", "),
	)
}

// NewRaceLostError maps a unique-constraint violation on concurrent
// create to the same outcome as "creation in progress".
func NewRaceLostError(message string, details ...string) *AppError {
	return newError(ErrorTypeRaceLost, http.StatusConflict, message, details...)
}

// NewTransportFailureError indicates delivery to the user or thread failed.
func NewTransportFailureError(message string, details ...string) *AppError {
	return newError(ErrorTypeTransportFailure, http.StatusBadGateway, message, details...)
}

// NewOrphanedTicketError indicates the ticket has no thread because a
// previous creation attempt failed.
func NewOrphanedTicketError(message string, details ...string) *AppError {
	return newError(ErrorTypeOrphanedTicket, http.StatusConflict, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsAlreadyExistsError reports the informational "thread already exists"
// outcome, which callers surface as a notice rather than an error.
func IsAlreadyExistsError(err error) bool {
	return IsType(err, ErrorTypeAlreadyExists) || IsType(err, ErrorTypeRaceLost)
}

// IsPermissionDeniedError checks for the non-retriable permission outcome.
func IsPermissionDeniedError(err error) bool {
	return IsType(err, ErrorTypePermissionDenied)
}
