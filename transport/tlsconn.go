//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop tls.go
//

package transport

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/reactorhttp/reactor"
)

// handshake performs the client-side TLS handshake step of spec §4.1.
//
// On failure the connection is closed before returning, following the
// resource-cleanup contract the teacher's Func primitives use for
// closeable resources received as input.
func handshake(ctx context.Context, conn net.Conn, config *tls.Config,
	logger reactor.SLogger, classifier reactor.ErrClassifier) (*tls.Conn, error) {
	cfg := config
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	tconn := tls.Client(conn, cfg)

	t0 := time.Now()
	logHandshakeStart(logger, conn, cfg, t0)
	err := tconn.HandshakeContext(ctx)
	state := tconn.ConnectionState()
	logHandshakeDone(logger, classifier, conn, cfg, t0, state, err)
	if err != nil {
		tconn.Close()
		return nil, NewError(ErrorKindHandshake, classifier.Classify(err), err)
	}
	return tconn, nil
}

func logHandshakeStart(logger reactor.SLogger, conn net.Conn, cfg *tls.Config, t0 time.Time) {
	logger.Info(
		"tlsHandshakeStart",
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.String("tlsServerName", cfg.ServerName),
		slog.Bool("tlsSkipVerify", cfg.InsecureSkipVerify),
		slog.Time("t", t0),
	)
}

func logHandshakeDone(logger reactor.SLogger, classifier reactor.ErrClassifier,
	conn net.Conn, cfg *tls.Config, t0 time.Time, state tls.ConnectionState, err error) {
	logger.Info(
		"tlsHandshakeDone",
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.String("tlsNegotiatedProtocol", state.NegotiatedProtocol),
		slog.String("tlsVersion", tls.VersionName(state.Version)),
		slog.Any("err", err),
		slog.String("errClass", classifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
}
