//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop connect.go
//

package transport

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/reactorhttp/reactor"
)

// connectDeadline is the fixed operation deadline for connect and shutdown,
// per spec §4.1.
const connectDeadline = 30 * time.Second

// resolveEndpoints performs the resolve() step of spec §4.1: a DNS lookup
// of host, turned into dialable (address, port) pairs. On failure it
// returns an [*Error] of kind [ErrorKindResolve], per spec §4.1's
// "on failure invokes the installed error handler with kind resolve".
func resolveEndpoints(ctx context.Context, resolver Resolver, host, port string,
	logger reactor.SLogger, classifier reactor.ErrClassifier) ([]netip.AddrPort, error) {
	t0 := time.Now()
	logResolveStart(logger, host, port, t0)
	addrs, err := resolver.LookupHost(ctx, host)
	logResolveDone(logger, classifier, host, port, t0, err)
	if err != nil {
		return nil, NewError(ErrorKindResolve, classifier.Classify(err), err)
	}

	endpoints, err := addrPorts(addrs, port)
	if err != nil {
		return nil, NewError(ErrorKindResolve, classifier.Classify(err), err)
	}
	return endpoints, nil
}

// dialEndpoints performs the connect() step of spec §4.1: dialing each
// resolved endpoint in order, returning the first connection that
// succeeds. On failure it returns an [*Error] of kind [ErrorKindConnect].
func dialEndpoints(ctx context.Context, dialer reactor.Dialer, network string, endpoints []netip.AddrPort,
	port string, logger reactor.SLogger, classifier reactor.ErrClassifier) (net.Conn, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectDeadline)
	defer cancel()

	var lastErr error
	for _, ep := range endpoints {
		address := joinHostPort(ep.Addr().String(), port)
		t1 := time.Now()
		logConnectStart(logger, network, address, t1)
		conn, err := dialer.DialContext(connectCtx, network, address)
		logConnectDone(logger, classifier, network, address, t1, conn, err)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &net.AddrError{Err: "no endpoints to connect to"}
	}
	return nil, NewError(ErrorKindConnect, classifier.Classify(lastErr), lastErr)
}

func logResolveStart(logger reactor.SLogger, host, port string, t0 time.Time) {
	logger.Info("resolveStart", slog.String("host", host), slog.String("port", port), slog.Time("t", t0))
}

func logResolveDone(logger reactor.SLogger, classifier reactor.ErrClassifier, host, port string, t0 time.Time, err error) {
	logger.Info(
		"resolveDone",
		slog.String("host", host),
		slog.String("port", port),
		slog.Any("err", err),
		slog.String("errClass", classifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
}

func logConnectStart(logger reactor.SLogger, network, address string, t0 time.Time) {
	logger.Info("connectStart", slog.String("protocol", network), slog.String("remoteAddr", address), slog.Time("t", t0))
}

func logConnectDone(logger reactor.SLogger, classifier reactor.ErrClassifier, network, address string, t0 time.Time, conn net.Conn, err error) {
	logger.Info(
		"connectDone",
		slog.String("protocol", network),
		slog.String("remoteAddr", address),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.Any("err", err),
		slog.String("errClass", classifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
}
