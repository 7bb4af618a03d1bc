package objectgen

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider attempt failures.
type ErrorKind string

const (
	// ErrKindConfigMissing means a required credential or endpoint is absent.
	ErrKindConfigMissing ErrorKind = "config_missing"

	// ErrKindHTTPFailure means the provider returned a non-2xx response or
	// the request could not be performed.
	ErrKindHTTPFailure ErrorKind = "http_failure"

	// ErrKindJobFailure means a polled job reached an explicit failed or
	// cancelled status.
	ErrKindJobFailure ErrorKind = "job_failure"

	// ErrKindTimeout means the poll budget was exhausted without the job
	// reaching a terminal status.
	ErrKindTimeout ErrorKind = "timeout"
)

// ProviderError is a failure from one provider attempt. Every ProviderError
// is recoverable: the sequencer records it and moves on to the next provider.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider string, kind ErrorKind, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message}
}

func wrapProviderError(provider string, kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// ErrorKindOf returns the kind of a provider error, or "" for other errors.
func ErrorKindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// InvalidInputError rejects a malformed request before any provider is
// attempted. Surfaced to the client as a 400.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// IsInvalidInput reports whether err is an input rejection.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// MaxErrorDetails bounds the per-provider error messages carried by an
// AllFailedError.
const MaxErrorDetails = 5

// AllFailedError is returned when no provider produced anything usable.
type AllFailedError struct {
	// Details holds up to MaxErrorDetails per-provider error strings.
	Details []string
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all providers failed (%d errors collected)", len(e.Details))
}

// newAllFailedError bounds the collected details to MaxErrorDetails.
func newAllFailedError(details []string) *AllFailedError {
	if len(details) > MaxErrorDetails {
		details = details[:MaxErrorDetails]
	}
	return &AllFailedError{Details: details}
}
