package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Configuration Errors
// Missing credentials or secrets are fatal at startup, never retried.

func ErrConfig(field string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CONFIG_MISSING,
		Message:  fmt.Sprintf("Missing required configuration: %s", field),
	}.WithDetail("field", field)
}

// Upstream Errors
// Transient failures (network, 5xx) are retried with backoff by the owning
// component; terminal failures (4xx, revoked consent) are surfaced for
// operator remediation.

func ErrUpstreamTransient(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_UPSTREAM_TRANSIENT,
		Message:  fmt.Sprintf("Upstream call to %s failed", service),
	}.WithDetail("service", service)
}

func ErrUpstreamTerminal(service string, statusCode int, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_UPSTREAM_TERMINAL,
		Message:  fmt.Sprintf("Upstream %s rejected the request", service),
	}.WithDetail("service", service).
		WithDetail("status_code", fmt.Sprintf("%d", statusCode))
}

func ErrGraphRejected(resource string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_GRAPH_REJECTED,
		Message:  "Graph rejected the subscription resource",
	}.WithDetail("resource", resource)
}

// Validation Errors
// Dropped and logged, never retried.

func ErrClientStateMismatch(subscriptionID string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION_CLIENT_STATE,
		Message:  "Notification clientState does not match subscription secret",
	}.WithDetail("subscription_id", subscriptionID)
}

func ErrMalformedNotification(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION_MALFORMED,
		Message:  "Malformed notification payload",
	}
}

// Pipeline Errors
// Recoverable states, retried bounded then parked as failed for re-drive.

func ErrTranscriptNotReady(resourceID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TRANSCRIPT_NOT_READY,
		Message:  "Transcript is not yet available for the meeting",
	}.WithDetail("resource_id", resourceID)
}

func ErrSummarizationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUMMARIZATION_FAILED,
		Message:  "Failed to generate meeting summary",
	}
}

func ErrProcessingTimeout(notificationID string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PROCESSING_TIMEOUT,
		Message:  "Notification processing exceeded the deadline",
	}.WithDetail("notification_id", notificationID)
}

func ErrProcessingFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PROCESSING_FAILED,
		Message:  "Processing failed",
	}
}

// Entity Errors

func ErrSubscriptionNotFound(subscriptionID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SUBSCRIPTION_NOT_FOUND,
		Message:  "Subscription not found",
	}.WithDetail("subscription_id", subscriptionID)
}

func ErrMeetingNotFound(id string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("id", id)
}

// IsTransient reports whether err should be retried by the caller.
func IsTransient(err error) bool {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == ErrorCode_UPSTREAM_TRANSIENT ||
			appErr.Code == ErrorCode_TRANSCRIPT_NOT_READY
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or ErrorCode_UNKNOWN.
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCode_UNKNOWN
}
