//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop connect.go, tls.go, httpconn.go (merged into
// one owning lifecycle per spec §4.1).
//

package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/reactorhttp/reactor"
)

// Transport is the owning lifecycle of a single network connection, per
// spec §4.1: resolve, connect, optionally handshake, then an arbitrary
// number of write/read exchanges, ending in shutdown.
//
// A Transport is not safe for concurrent use: callers needing "one exchange
// in flight at a time" enforcement belong one layer up, in package session.
type Transport interface {
	Resolve(ctx context.Context) error
	Connect(ctx context.Context) error
	Handshake(ctx context.Context) error
	Write(ctx context.Context, req Request) error
	Read(ctx context.Context) (Response, error)
	Shutdown(ctx context.Context) error

	// MonitorForError returns a channel that receives at most one value:
	// the error observed when the underlying connection breaks while idle
	// (e.g. the peer reset it between exchanges). The channel is never
	// closed; a Shutdown while the wait is pending makes the wait fail,
	// and that error is delivered like any other. Callers use this to notice a dead
	// Idle connection without issuing a read (spec §4.2's Idle state).
	MonitorForError(ctx context.Context) <-chan error
}

// Endpoint names a resolve/connect target: a hostname plus the port and
// network ("tcp") to dial.
type Endpoint struct {
	Host    string
	Port    string
	Network string
}

// TCPTransport is a [Transport] over a plain TCP connection.
type TCPTransport struct {
	endpoint  Endpoint
	resolver  Resolver
	dialer    reactor.Dialer
	logger    reactor.SLogger
	classify  reactor.ErrClassifier
	spanID    string

	mu        sync.Mutex
	endpoints []netip.AddrPort
	conn      net.Conn
	reader    *bufio.Reader
	lastReq   string

	monitorOnce sync.Once
	monitorCh   chan error
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport builds a [*TCPTransport] that will dial endpoint when
// Connect is called. cfg supplies the dialer and error classifier; a nil
// cfg uses [reactor.NewConfig]'s defaults. A nil resolver uses the system
// resolver, and a nil logger discards logs.
func NewTCPTransport(endpoint Endpoint, cfg *reactor.Config, resolver Resolver, logger reactor.SLogger) *TCPTransport {
	if cfg == nil {
		cfg = reactor.NewConfig()
	}
	if resolver == nil {
		resolver = SystemResolver{}
	}
	if logger == nil {
		logger = reactor.DefaultSLogger()
	}
	network := endpoint.Network
	if network == "" {
		network = "tcp"
	}
	endpoint.Network = network
	return &TCPTransport{
		endpoint: endpoint,
		resolver: resolver,
		dialer:   cfg.Dialer,
		logger:   logger,
		classify: cfg.ErrClassifier,
		spanID:   reactor.NewSpanID(),
	}
}

// Resolve performs the resolve() step of spec §4.1 on its own, caching the
// resulting endpoints so a subsequent Connect does not repeat the DNS
// lookup. Calling Resolve more than once re-resolves and replaces the
// cache; Connect calls it automatically when no cached endpoints exist.
func (t *TCPTransport) Resolve(ctx context.Context) error {
	endpoints, err := resolveEndpoints(ctx, t.resolver, t.endpoint.Host, t.endpoint.Port, t.logger, t.classify)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.endpoints = endpoints
	t.mu.Unlock()
	return nil
}

// Connect dials the endpoint, per spec §4.1, resolving it first if Resolve
// has not already been called.
func (t *TCPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	endpoints := t.endpoints
	t.mu.Unlock()
	if endpoints == nil {
		if err := t.Resolve(ctx); err != nil {
			return err
		}
		t.mu.Lock()
		endpoints = t.endpoints
		t.mu.Unlock()
	}

	conn, err := dialEndpoints(ctx, t.dialer, t.endpoint.Network, endpoints, t.endpoint.Port, t.logger, t.classify)
	if err != nil {
		return err
	}
	conn = watchCancellation(ctx, conn)
	conn = observeConn(conn, t.logger, t.classify)

	t.mu.Lock()
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	t.mu.Unlock()
	return nil
}

// Handshake is a no-op for [*TCPTransport]; plain TCP has no handshake step
// beyond Connect.
func (t *TCPTransport) Handshake(ctx context.Context) error {
	return nil
}

// Write serializes req onto the connection established by Connect.
func (t *TCPTransport) Write(ctx context.Context, req Request) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	runtimex.Assert(conn != nil)

	t0 := time.Now()
	t.logger.Debug("httpWriteStart", slog.String("method", req.Method), slog.String("target", req.Target), slog.Time("t", t0))
	err := writeRequest(conn, req)
	t.logger.Debug("httpWriteDone", slog.Any("err", err), slog.String("errClass", t.classify.Classify(err)), slog.Time("t0", t0), slog.Time("t", time.Now()))
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.lastReq = req.Method
	t.mu.Unlock()
	return nil
}

// Read parses the next response off the connection, per spec §4.1.
func (t *TCPTransport) Read(ctx context.Context) (Response, error) {
	t.mu.Lock()
	reader, method := t.reader, t.lastReq
	t.mu.Unlock()
	runtimex.Assert(reader != nil)

	t0 := time.Now()
	t.logger.Debug("httpReadStart", slog.Time("t", t0))
	resp, err := readResponse(reader, method)
	t.logger.Debug("httpReadDone", slog.Int("statusCode", resp.StatusCode), slog.Any("err", err), slog.String("errClass", t.classify.Classify(err)), slog.Time("t0", t0), slog.Time("t", time.Now()))
	return resp, err
}

// Shutdown closes the underlying connection, bounded by connectDeadline.
func (t *TCPTransport) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectDeadline)
	defer cancel()

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- conn.Close() }()
	select {
	case err := <-done:
		if err != nil {
			return NewError(ErrorKindShutdown, t.classify.Classify(err), err)
		}
		return nil
	case <-ctx.Done():
		return NewError(ErrorKindShutdown, t.classify.Classify(ctx.Err()), ctx.Err())
	}
}

// MonitorForError implements [Transport] by issuing a one-byte peek read
// in a background goroutine: a broken idle connection returns an error (or
// io.EOF) from Read without the caller needing to attempt a real exchange.
func (t *TCPTransport) MonitorForError(ctx context.Context) <-chan error {
	t.monitorOnce.Do(func() {
		t.monitorCh = make(chan error, 1)
		go func() {
			t.mu.Lock()
			reader := t.reader
			t.mu.Unlock()
			if reader == nil {
				return
			}
			_, err := reader.Peek(1)
			if err != nil {
				t.monitorCh <- err
			}
		}()
	})
	return t.monitorCh
}

// TLSTransport is a [Transport] over TCP plus a TLS client handshake.
type TLSTransport struct {
	*TCPTransport
	tlsConfig *tls.Config
}

var _ Transport = (*TLSTransport)(nil)

// NewTLSTransport builds a [*TLSTransport]. tlsConfig is cloned per
// handshake by [handshake]; a nil tlsConfig falls back to cfg.TLSConfig.
func NewTLSTransport(endpoint Endpoint, cfg *reactor.Config, resolver Resolver, logger reactor.SLogger, tlsConfig *tls.Config) *TLSTransport {
	if cfg == nil {
		cfg = reactor.NewConfig()
	}
	if tlsConfig == nil {
		tlsConfig = cfg.TLSConfig
	}
	return &TLSTransport{
		TCPTransport: NewTCPTransport(endpoint, cfg, resolver, logger),
		tlsConfig:    tlsConfig,
	}
}

// Handshake performs the TLS client handshake over the connection Connect
// established, replacing the plain conn with the negotiated *tls.Conn.
func (t *TLSTransport) Handshake(ctx context.Context) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	runtimex.Assert(conn != nil)

	cfg := t.tlsConfig
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = t.endpoint.Host
	}
	tconn, err := handshake(ctx, conn, cfg, t.logger, t.classify)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = tconn
	t.reader = bufio.NewReader(tconn)
	t.mu.Unlock()
	return nil
}
