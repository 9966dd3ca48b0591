//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop observeconn.go
//

package transport

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
	"github.com/reactorhttp/reactor"
)

// observeConn wraps conn so that every Read/Write/deadline change emits a
// Debug-level structured log event (spec §9: "I/O-level events ... are
// emitted at slog.LevelDebug").
func observeConn(conn net.Conn, logger reactor.SLogger, classifier reactor.ErrClassifier) net.Conn {
	return &observedConn{
		conn:      conn,
		laddr:     safeconn.LocalAddr(conn),
		raddr:     safeconn.RemoteAddr(conn),
		protocol:  safeconn.Network(conn),
		logger:    logger,
		classify:  classifier,
		closeOnce: sync.Once{},
	}
}

type observedConn struct {
	conn      net.Conn
	laddr     string
	raddr     string
	protocol  string
	logger    reactor.SLogger
	classify  reactor.ErrClassifier
	closeOnce sync.Once
}

func (c *observedConn) Read(buf []byte) (int, error) {
	t0 := time.Now()
	n, err := c.conn.Read(buf)
	c.logger.Debug(
		"readDone",
		slog.Int("ioBytesCount", n),
		slog.Any("err", err),
		slog.String("errClass", c.classify.Classify(err)),
		slog.String("localAddr", c.laddr),
		slog.String("remoteAddr", c.raddr),
		slog.String("protocol", c.protocol),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
	return n, err
}

func (c *observedConn) Write(data []byte) (int, error) {
	t0 := time.Now()
	n, err := c.conn.Write(data)
	c.logger.Debug(
		"writeDone",
		slog.Int("ioBytesCount", n),
		slog.Any("err", err),
		slog.String("errClass", c.classify.Classify(err)),
		slog.String("localAddr", c.laddr),
		slog.String("remoteAddr", c.raddr),
		slog.String("protocol", c.protocol),
		slog.Time("t0", t0),
		slog.Time("t", time.Now()),
	)
	return n, err
}

func (c *observedConn) Close() (err error) {
	err = net.ErrClosed
	c.closeOnce.Do(func() {
		err = c.conn.Close()
		c.logger.Info(
			"closeDone",
			slog.Any("err", err),
			slog.String("errClass", c.classify.Classify(err)),
			slog.String("localAddr", c.laddr),
			slog.String("remoteAddr", c.raddr),
			slog.String("protocol", c.protocol),
			slog.Time("t", time.Now()),
		)
	})
	return
}

func (c *observedConn) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *observedConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *observedConn) SetDeadline(t time.Time) error {
	c.logger.Debug("setDeadline", slog.Time("deadline", t), slog.String("localAddr", c.laddr), slog.String("remoteAddr", c.raddr))
	return c.conn.SetDeadline(t)
}

func (c *observedConn) SetReadDeadline(t time.Time) error {
	c.logger.Debug("setReadDeadline", slog.Time("deadline", t), slog.String("localAddr", c.laddr), slog.String("remoteAddr", c.raddr))
	return c.conn.SetReadDeadline(t)
}

func (c *observedConn) SetWriteDeadline(t time.Time) error {
	c.logger.Debug("setWriteDeadline", slog.Time("deadline", t), slog.String("localAddr", c.laddr), slog.String("remoteAddr", c.raddr))
	return c.conn.SetWriteDeadline(t)
}
