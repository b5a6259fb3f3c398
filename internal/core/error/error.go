package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "not found"
	// ValidationMessage describes rejected user input.
	ValidationMessage = "input validation failed"
	// ModelErrorMessage describes failures talking to the language model.
	ModelErrorMessage = "model communication failed"
	// ResponseFormatMessage describes unparseable or schema-violating model output.
	ResponseFormatMessage = "model response format invalid"
	// CatalogErrorMessage describes a failed or empty tool catalog fetch.
	CatalogErrorMessage = "tool catalog unavailable"
	// TelemetryErrorMessage describes a failed telemetry submission.
	TelemetryErrorMessage = "telemetry submission failed"
)

// Kind classifies application errors so callers can branch on recovery
// behaviour without string matching.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation is recovered locally: re-prompt the user, no state
	// change, no conversation round consumed.
	KindValidation
	// KindModel covers network/auth/timeout failures of the model call.
	KindModel
	// KindResponseFormat covers non-parseable or schema-violating model output.
	KindResponseFormat
	// KindCatalog covers an unavailable tool catalog when one is required.
	KindCatalog
	// KindTelemetry is swallowed after logging, never surfaced.
	KindTelemetry
)

// AppError wraps an underlying error with an HTTP status, a safe message
// and a recovery classification.
type AppError struct {
	Err     error
	Status  int
	Message string
	Kind    Kind
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Validation builds a locally recoverable input validation error.
func Validation(message string) *AppError {
	return &AppError{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Kind:    KindValidation,
	}
}

// Model wraps a model communication failure.
func Model(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: ModelErrorMessage,
		Kind:    KindModel,
	}
}

// ResponseFormat wraps a malformed model response. Logging the raw
// offending payload is the caller's responsibility; it never travels in
// the safe message.
func ResponseFormat(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: ResponseFormatMessage,
		Kind:    KindResponseFormat,
	}
}

// Catalog wraps a failed or empty catalog fetch.
func Catalog(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: CatalogErrorMessage,
		Kind:    KindCatalog,
	}
}

// Telemetry wraps a telemetry submission failure.
func Telemetry(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: TelemetryErrorMessage,
		Kind:    KindTelemetry,
	}
}

// KindOf extracts the Kind from an error chain, KindInternal when absent.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsValidation reports whether the error is a locally recoverable
// input validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
