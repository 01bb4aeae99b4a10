package billing

import (
	"errors"
	"fmt"
)

// ErrorCode is the unified billing error taxonomy. Vendor-specific error
// types are converted to one of these at the platform adapter boundary and
// never reach callers raw.
type ErrorCode uint8

const (
	// ErrorGeneral is the catch-all; the vendor message is preserved.
	ErrorGeneral ErrorCode = iota
	ErrorNotInitialized
	ErrorNotInstalled
	ErrorOutdated
	ErrorUserUnauthorized
	ErrorRequestLimitReached
	ErrorReviewAlreadyExists
	ErrorInvalidReviewInfo
	ErrorConsistencyAnomaly
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNotInitialized:
		return "not_initialized"
	case ErrorNotInstalled:
		return "not_installed"
	case ErrorOutdated:
		return "outdated"
	case ErrorUserUnauthorized:
		return "user_unauthorized"
	case ErrorRequestLimitReached:
		return "request_limit_reached"
	case ErrorReviewAlreadyExists:
		return "review_already_exists"
	case ErrorInvalidReviewInfo:
		return "invalid_review_info"
	case ErrorConsistencyAnomaly:
		return "consistency_anomaly"
	default:
		return "general"
	}
}

// Error is a taxonomy-tagged billing failure.
type Error struct {
	Code    ErrorCode
	Message string

	// VendorCode is the raw vendor error code, when the vendor supplied one.
	VendorCode *string
}

func (e *Error) Error() string {
	if e.VendorCode != nil {
		return fmt.Sprintf("billing: %s: %s (vendor code %s)", e.Code, e.Message, *e.VendorCode)
	}
	return fmt.Sprintf("billing: %s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrNotInitialized is returned by every façade operation invoked before a
// successful Initialize.
var ErrNotInitialized = NewError(ErrorNotInitialized, "billing client is not initialized")

// AsError converts any error into a *Error. Errors already carrying a
// taxonomy code pass through; everything else becomes ErrorGeneral with the
// original message preserved.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return NewError(ErrorGeneral, err.Error())
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code ErrorCode) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == code
}

// AnomalyKind classifies a consistency anomaly.
type AnomalyKind uint8

const (
	// AnomalyUnreachableTransition means the vendor reported a purchase
	// state not reachable from the last known state.
	AnomalyUnreachableTransition AnomalyKind = iota
	// AnomalyConflictingOutcomes means the two delivery channels reported
	// different outcomes for the same purchase attempt.
	AnomalyConflictingOutcomes
)

func (k AnomalyKind) String() string {
	switch k {
	case AnomalyConflictingOutcomes:
		return "conflicting_outcomes"
	default:
		return "unreachable_transition"
	}
}

// Anomaly is a non-fatal consistency observation. Anomalies are surfaced as
// observability events; they never abort the operation that produced them.
type Anomaly struct {
	Kind   AnomalyKind
	Key    string
	Detail string
}

// AnomalyReporter receives consistency anomalies from the lifecycle tracker
// and the event reconciler.
type AnomalyReporter func(Anomaly)
