// Package openbberr defines the normalized error taxonomy surfaced at the
// dispatcher boundary. Fetchers may fail however they like internally;
// every error is classified into a Kind before it crosses into callers,
// the HTTP surface, or the CLI.
package openbberr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies a normalized failure category.
type Kind string

const (
	// Registry and routing failures. No I/O has been performed.
	KindDuplicateModel      Kind = "DuplicateModel"
	KindRegistryFrozen      Kind = "RegistryFrozen"
	KindInvalidProvider     Kind = "InvalidProvider"
	KindUnknownModel        Kind = "UnknownModel"
	KindUnknownProvider     Kind = "UnknownProvider"
	KindNoProviderAvailable Kind = "NoProviderAvailable"

	// Pre-dispatch gate failures.
	KindValidationFailed  Kind = "ValidationFailed"
	KindMissingCredential Kind = "MissingCredential"

	// Upstream failures, normalized from whatever the fetcher produced.
	KindUnauthorized        Kind = "Unauthorized"
	KindProviderRejected    Kind = "ProviderRejected"
	KindEmptyData           Kind = "EmptyData"
	KindProviderUnavailable Kind = "ProviderUnavailable"
	KindProviderTimeout     Kind = "ProviderTimeout"
	KindProviderInternal    Kind = "ProviderInternal"

	// Caller cancelled the dispatch.
	KindCancelled Kind = "Cancelled"
)

// FieldError describes a single parameter that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error is the boundary error type. Kind is always set; Original preserves
// the uncategorized cause for ProviderInternal diagnostics; Fields carries
// every FieldError when Kind is ValidationFailed.
type Error struct {
	Kind     Kind
	Message  string
	Original error
	Fields   []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, fe := range e.Fields {
			parts[i] = fe.Error()
		}
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Original
}

// New creates a boundary error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a boundary error preserving the original cause.
func Wrap(kind Kind, original error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Original: original}
}

// Validation creates a ValidationFailed error carrying every field error.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Fields: fields}
}

// KindOf extracts the Kind from an error chain. Returns ProviderInternal
// for errors that never passed through classification.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindProviderInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code the API surface returns.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	case KindUnknownModel, KindUnknownProvider:
		return http.StatusNotFound
	case KindEmptyData:
		return http.StatusNoContent
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// CLI exit codes.
const (
	ExitOK                = 0
	ExitInvalidArguments  = 2
	ExitValidationFailure = 3
	ExitMissingCredential = 4
	ExitProviderError     = 5
)

// ExitCode maps an error to the CLI exit code contract.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindUnknownModel, KindUnknownProvider, KindNoProviderAvailable:
		return ExitInvalidArguments
	case KindValidationFailed:
		return ExitValidationFailure
	case KindMissingCredential:
		return ExitMissingCredential
	default:
		return ExitProviderError
	}
}
