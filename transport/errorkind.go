// SPDX-License-Identifier: GPL-3.0-or-later

package transport

// ErrorKind tags which step of the transport lifecycle failed.
//
// The taxonomy is deliberately small: a caller that wants to retry or
// report on failures switches on the kind, not on the underlying error
// type, which may vary across platforms and TLS libraries.
type ErrorKind string

// The error kinds a [Transport] can report.
const (
	ErrorKindResolve   ErrorKind = "resolve"
	ErrorKindConnect   ErrorKind = "connect"
	ErrorKindHandshake ErrorKind = "handshake"
	ErrorKindWrite     ErrorKind = "write"
	ErrorKindRead      ErrorKind = "read"
	ErrorKindShutdown  ErrorKind = "shutdown"
	ErrorKindIdleWait  ErrorKind = "idle wait"
	ErrorKindBadValue  ErrorKind = "bad_value"
)

// Error wraps a transport-level failure with the kind of step that failed
// and, when available, a platform error class (see the errclass package).
type Error struct {
	Kind     ErrorKind
	Class    string
	Err      error
	HTTPCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

// Unwrap allows errors.Is/errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a [*Error] for the given kind and cause.
func NewError(kind ErrorKind, class string, err error) *Error {
	return &Error{Kind: kind, Class: class, Err: err}
}
