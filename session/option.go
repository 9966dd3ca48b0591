// SPDX-License-Identifier: GPL-3.0-or-later

package session

import "github.com/reactorhttp/reactor/transport"

// Option mutates the pending request envelope of a [Session] (spec §4.2's
// set_option). Options compose via [Session.SetOptions].
type Option func(*transport.Request)

// WithHost sets the request's Host field.
func WithHost(host string) Option {
	return func(r *transport.Request) { r.Host = host }
}

// WithPort sets the request's Port field.
func WithPort(port string) Option {
	return func(r *transport.Request) { r.Port = port }
}

// WithTarget sets the request's path (+ optional query).
func WithTarget(target string) Option {
	return func(r *transport.Request) { r.Target = target }
}

// WithMethod sets the request's verb.
func WithMethod(method string) Option {
	return func(r *transport.Request) { r.Method = method }
}

// WithVersion sets the request's declared HTTP version.
func WithVersion(version string) Option {
	return func(r *transport.Request) { r.Version = version }
}

// WithKeepAlive sets whether the request asks the peer to keep the
// connection open. [Session.Run] sends the field as it is set here.
func WithKeepAlive(keepAlive bool) Option {
	return func(r *transport.Request) { r.KeepAlive = keepAlive }
}

// WithContentType sets the request's Content-Type.
func WithContentType(contentType string) Option {
	return func(r *transport.Request) { r.ContentType = contentType }
}

// WithHeader appends a single header field.
func WithHeader(name, value string) Option {
	return func(r *transport.Request) { r.Headers.Add(name, value) }
}

// WithHeaders replaces the request's headers wholesale.
func WithHeaders(headers transport.Headers) Option {
	return func(r *transport.Request) { r.Headers = headers.Clone() }
}

// WithBody sets the request body.
func WithBody(body []byte) Option {
	return func(r *transport.Request) { r.Body = body }
}

// WithFullRequest replaces the pending envelope entirely.
func WithFullRequest(req transport.Request) Option {
	return func(r *transport.Request) { *r = req.Clone() }
}
