package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for supplier and gateway interactions.
//
//   - TransportError: connection failure or timeout. Retryable only for
//     idempotent calls.
//   - ProtocolError: the response was malformed or not in the expected
//     format. Never retried; always carries a bounded raw-body preview.
//   - BusinessError: the remote system reported a semantic failure (non-2xx
//     status, non-zero error code). Never retried automatically.
//   - ValidationError: caller input rejected before any external call.
//   - AuthenticationError: signature or token invalid.

var (
	ErrNotFound = errors.New("not found")

	// ErrTokenLeak marks an attempt to persist a payload that still carries a
	// search token. It is an invariant violation, not a recoverable error.
	ErrTokenLeak = errors.New("search token must not be persisted")
)

// PreviewLimit bounds raw-body previews embedded in errors.
const PreviewLimit = 400

// Preview truncates a raw payload for inclusion in an error message.
func Preview(raw []byte) string {
	if len(raw) > PreviewLimit {
		return string(raw[:PreviewLimit]) + "..."
	}
	return string(raw)
}

type TransportError struct {
	Service string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("supplier %s: timeout: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("supplier %s: transport: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type ProtocolError struct {
	Service string
	Reason  string
	Preview string
}

func (e *ProtocolError) Error() string {
	if e.Preview == "" {
		return fmt.Sprintf("%s: protocol error: %s", e.Service, e.Reason)
	}
	return fmt.Sprintf("%s: protocol error: %s: %q", e.Service, e.Reason, e.Preview)
}

type BusinessError struct {
	Service string
	Code    string
	Message string
	Preview string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: business error %s: %s", e.Service, e.Code, e.Message)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// IsRetryable reports whether an error may be retried for an idempotent call.
// Only transport failures qualify; protocol and business errors never do.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
