package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable, caller-visible identifier of an error class.
type Code string

const (
	CodeScopeViolation      Code = "SCOPE_VIOLATION"
	CodeDuplicateCode       Code = "DUPLICATE_CODE"
	CodeUnknownAccount      Code = "UNKNOWN_ACCOUNT"
	CodeInvalidLine         Code = "INVALID_LINE"
	CodeImmutableJournal    Code = "IMMUTABLE_JOURNAL"
	CodeUnbalancedJournal   Code = "UNBALANCED_JOURNAL"
	CodeOverlappingInterval Code = "OVERLAPPING_INTERVAL"
	CodeNoRateFound         Code = "NO_RATE_FOUND"
	CodeReferencedEntity    Code = "REFERENCED_ENTITY"
	CodeIdempotencyConflict Code = "IDEMPOTENCY_CONFLICT"
	CodeCycleDetected       Code = "CYCLE_DETECTED"
	CodeUnavailable         Code = "UNAVAILABLE"
	CodeNotFound            Code = "NOT_FOUND"
	CodeValidation          Code = "VALIDATION"
	CodeInternal            Code = "INTERNAL"

	// CodeUnauthenticated and CodeRateLimited are produced by the HTTP layer only.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeRateLimited     Code = "RATE_LIMITED"
)

// AppError is the structured error returned by the core. Detail is safe to
// show to callers; Err carries the underlying cause for logs only.
type AppError struct {
	Code   Code
	Detail string
	Err    error
}

func (e *AppError) Error() string {
	msg := string(e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError carrying the same code when the target is a bare
// sentinel (no detail), so errors.Is(err, ErrImmutableJournal) works on
// errors built with New or Wrap.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Detail == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrScopeViolation      = &AppError{Code: CodeScopeViolation}
	ErrDuplicateCode       = &AppError{Code: CodeDuplicateCode}
	ErrUnknownAccount      = &AppError{Code: CodeUnknownAccount}
	ErrInvalidLine         = &AppError{Code: CodeInvalidLine}
	ErrImmutableJournal    = &AppError{Code: CodeImmutableJournal}
	ErrUnbalancedJournal   = &AppError{Code: CodeUnbalancedJournal}
	ErrOverlappingInterval = &AppError{Code: CodeOverlappingInterval}
	ErrNoRateFound         = &AppError{Code: CodeNoRateFound}
	ErrReferencedEntity    = &AppError{Code: CodeReferencedEntity}
	ErrIdempotencyConflict = &AppError{Code: CodeIdempotencyConflict}
	ErrCycleDetected       = &AppError{Code: CodeCycleDetected}
	ErrUnavailable         = &AppError{Code: CodeUnavailable}

	// ErrNotFound indicates that a requested resource could not be found.
	ErrNotFound = &AppError{Code: CodeNotFound}
	// ErrValidation indicates that input data failed validation checks.
	ErrValidation = &AppError{Code: CodeValidation}
	ErrInternal   = &AppError{Code: CodeInternal}
)

// New builds an AppError with a caller-safe detail message.
func New(code Code, detail string) *AppError {
	return &AppError{Code: code, Detail: detail}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new AppError.
func Wrap(code Code, detail string, err error) *AppError {
	return &AppError{Code: code, Detail: detail, Err: err}
}

// NewValidationError mirrors the repository helpers used across the codebase.
func NewValidationError(detail string) *AppError {
	return New(CodeValidation, detail)
}

// NewNotFoundError builds a NOT_FOUND error for the named resource.
func NewNotFoundError(detail string) *AppError {
	return New(CodeNotFound, detail)
}

// Transient marks a storage failure that may succeed when retried, such as a
// serialization failure or lock timeout.
func Transient(detail string, err error) *AppError {
	return Wrap(CodeUnavailable, detail, err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// CodeOf extracts the stable code from err. Unknown errors are INTERNAL.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// DetailOf returns the caller-safe message for err. Internal errors never
// expose their cause.
func DetailOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeInternal {
		if appErr.Detail != "" {
			return appErr.Detail
		}
		return string(appErr.Code)
	}
	return "internal error"
}

// HTTPStatus maps a code to the status used by the HTTP adapter.
func HTTPStatus(code Code) int {
	switch code {
	case CodeScopeViolation:
		return http.StatusForbidden
	case CodeNotFound, CodeNoRateFound:
		return http.StatusNotFound
	case CodeDuplicateCode, CodeImmutableJournal, CodeOverlappingInterval,
		CodeReferencedEntity, CodeIdempotencyConflict, CodeCycleDetected:
		return http.StatusConflict
	case CodeUnknownAccount, CodeInvalidLine, CodeUnbalancedJournal, CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
