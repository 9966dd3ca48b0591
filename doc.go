// SPDX-License-Identifier: GPL-3.0-or-later

// Package reactor provides a reactive network I/O toolkit: an asynchronous
// HTTP/TCP/UDP library built on a small Reactive-Streams-style core
// ([stream.Mono] / [stream.Flux]) that drives TLS-capable request/response
// pipelines with connection pooling, retries, backpressure, and composition
// of sources and sinks.
//
// # Core Abstraction
//
// [Config] carries the shared dependencies every other package takes as a
// constructor argument: the [Dialer], [ErrClassifier], User-Agent, and TLS
// defaults. Loggers ([SLogger]) are passed to constructors separately. Each layer above it ([transport], [session], [pool], [retry],
// [webclient], [subscriber]) is a small, independently testable step with
// exactly one success mode and one failure mode; they compose by plain
// function calls and struct embedding rather than a generic pipeline type,
// so the transport layer's resolve -> connect -> (handshake) -> write ->
// read sequence is just [transport.TCPTransport]'s methods called in order.
//
// # Package Layout
//
//   - [transport]: resolve/connect/(handshake)/write/read/shutdown over
//     plain TCP or TLS.
//   - [session]: the HTTP session state machine (Fresh/Disconnected/Idle/InUse)
//     that owns one Transport and serializes one request at a time.
//   - [pool]: a bounded cache of reusable sessions per endpoint.
//   - [retry]: bounded, fixed-delay retry of a captured request envelope.
//   - [stream]: the Mono/Flux publisher core, map/filter adapters, and the
//     sync/async sink groups (including the broadcasting sink).
//   - [webclient]: HttpSource/HttpSink and the fluent WebClient builder that
//     bridges HTTP calls to the reactive core.
//   - [subscriber]: an outbound event pusher combining a pool, a retry
//     policy, and a bounded in-memory event queue.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Pass a custom
// [*slog.Logger] as the logger argument of a constructor (or via
// [webclient.Builder.WithLogger]) to enable logging. Error classification is
// configurable via [ErrClassifier]; by default, a no-op classifier is used.
//
// # Timeout and Context Philosophy
//
// This package is context-transparent: operations never modify the context
// they receive. The caller controls timeouts externally via
// [context.WithTimeout], [context.WithDeadline], or [signal.NotifyContext].
// Connect and shutdown additionally carry their own fixed deadline (30s)
// regardless of the caller's context, matching §4.1 of the design.
package reactor
