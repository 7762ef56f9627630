package util

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewAmbiguousIdentity reports an identity-key collision between active staff
// records. This is a data-integrity fault: it must reach an operator, never be
// auto-resolved.
func NewAmbiguousIdentity(key string, recordIDs []string) error {
	return &DomainError{
		Code:       "AMBIGUOUS_IDENTITY",
		Message:    "multiple active staff records share one identity key",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"identity_key": key,
			"record_ids":   recordIDs,
		},
	}
}

// NewDuplicateEvent signals an append of an already-stored event id. Safe to
// treat as a no-op on retry.
func NewDuplicateEvent(eventID string) error {
	return &DomainError{
		Code:       "DUPLICATE_EVENT",
		Message:    "notification event already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"event_id": eventID},
	}
}

// NewTimeout wraps a deadline expiry on a store operation.
func NewTimeout(op string, err error) error {
	return &DomainError{
		Code:       "TIMEOUT",
		Message:    fmt.Sprintf("%s timed out", op),
		HTTPStatus: http.StatusGatewayTimeout,
		Details:    map[string]any{"operation": op},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// PartialAvailabilityError reports a multi-collection read where some
// collections succeeded and others did not. Callers keep the data they got.
type PartialAvailabilityError struct {
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialAvailabilityError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("collections unavailable: %s", strings.Join(names, ", "))
}

// ToDomainError renders the partial fault in the same envelope as other
// DomainErrors.
func (e *PartialAvailabilityError) ToDomainError() *DomainError {
	failed := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	return &DomainError{
		Code:       "PARTIAL_AVAILABILITY",
		Message:    "some collections are temporarily unavailable",
		HTTPStatus: http.StatusOK,
		Details: map[string]any{
			"succeeded": append([]string{}, e.Succeeded...),
			"failed":    failed,
		},
	}
}

// HasCode reports whether err carries the given DomainError code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsDuplicateEvent reports the benign duplicate-append case.
func IsDuplicateEvent(err error) bool {
	return HasCode(err, "DUPLICATE_EVENT")
}

// IsTimeout reports a retryable timeout fault.
func IsTimeout(err error) bool {
	return HasCode(err, "TIMEOUT")
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var partial *PartialAvailabilityError
	if errors.As(err, &partial) {
		return partial.ToDomainError()
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
