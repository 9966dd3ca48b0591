// SPDX-License-Identifier: GPL-3.0-or-later

package reactor

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// Config holds common configuration for reactor operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by the transport layer to establish TCP connections.
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TLSConfig is the default TLS client configuration used when a
	// session is created over TLS and no per-session override is given.
	//
	// Set by [NewConfig] to a zero [*tls.Config] (peer verification on),
	// resolving the "verify peer by default" open question.
	TLSConfig *tls.Config

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// UserAgent is the value written into the request's User-Agent header
	// by [session.Session.Run].
	//
	// Set by [NewConfig] to [DefaultUserAgent].
	UserAgent string
}

// Dialer abstracts the [*net.Dialer] behavior.
//
// By making the connect step depend on an abstract implementation we allow
// for unit testing and for using alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultUserAgent is the User-Agent header value used when no override is
// configured.
const DefaultUserAgent = "reactor-http-client/1.0"

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		TLSConfig:     &tls.Config{},
		TimeNow:       time.Now,
		UserAgent:     DefaultUserAgent,
	}
}
