// Package errs defines the error taxonomy shared by the companion's
// audio, provider, bridge, and session layers.
package errs

import "fmt"

// DeviceError reports an audio device failure (open, read, or close).
// Device errors are recoverable: the turn aborts and the session keeps
// running.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("audio device error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("audio device error: %v", e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// NewDeviceError wraps err as a DeviceError for the given operation.
func NewDeviceError(op string, err error) *DeviceError {
	return &DeviceError{Op: op, Err: err}
}

// ProviderError reports a failure from an external collaborator
// (transcription, dialogue, or synthesis).
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a ProviderError for the named provider.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// NewProviderStatusError builds a ProviderError from an HTTP status and
// response body excerpt.
func NewProviderStatusError(provider string, status int, message string) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Message: message}
}

// TransportError reports a failure delivering a message over the remote
// channel. Delivery is retried a bounded number of times, then dropped.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err as a TransportError for the given operation.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// ValidationError reports an out-of-range or malformed input on a
// privileged command. It is surfaced as a rejection reply to the
// requester and mutates no state.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
	}
	return e.Message
}

// NewValidationError builds a ValidationError for the named parameter.
func NewValidationError(param, message string) *ValidationError {
	return &ValidationError{Param: param, Message: message}
}
