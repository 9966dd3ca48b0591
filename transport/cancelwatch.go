// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"net"
)

// watchCancellation closes conn when ctx is done, for responsive
// cancellation of in-flight I/O (spec §5, "Cancellation & timeouts").
//
// The returned [net.Conn] wraps conn: closing it unregisters the watcher
// before closing the underlying connection, so no goroutine leaks even if
// ctx is never cancelled.
func watchCancellation(ctx context.Context, conn net.Conn) net.Conn {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}
}

type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
