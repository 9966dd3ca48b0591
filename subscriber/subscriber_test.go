// SPDX-License-Identifier: GPL-3.0-or-later

package subscriber

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reactorhttp/reactor/retry"
	"github.com/reactorhttp/reactor/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keepAliveServer accepts connections on 127.0.0.1 and, on each one,
// serially reads POST requests and answers each with a 200 that keeps the
// connection open, recording the request bodies it saw in arrival order.
type keepAliveServer struct {
	mu           sync.Mutex
	bodies       []string
	contentTypes []string
	conns        int32
	addr         string
	ln           net.Listener
}

func startKeepAliveServer(t *testing.T) *keepAliveServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &keepAliveServer{ln: ln, addr: ln.Addr().String()}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&s.conns, 1)
			go s.handle(conn)
		}
	}()
	return s
}

func (s *keepAliveServer) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		var contentLength int
		var contentType string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(line), "content-length:") {
				parts := strings.SplitN(line, ":", 2)
				contentLength, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
			if strings.HasPrefix(strings.ToLower(line), "content-type:") {
				parts := strings.SplitN(line, ":", 2)
				contentType = strings.TrimSpace(parts[1])
			}
		}
		body := make([]byte, contentLength)
		if contentLength > 0 {
			if _, err := readFull(reader, body); err != nil {
				return
			}
		}
		s.mu.Lock()
		s.bodies = append(s.bodies, string(body))
		s.contentTypes = append(s.contentTypes, contentType)
		s.mu.Unlock()

		const resp = "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: keep-alive\r\n\r\n"
		if _, err := conn.Write([]byte(resp)); err != nil {
			return
		}
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *keepAliveServer) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s *keepAliveServer) contentTypeSnapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.contentTypes))
	copy(out, s.contentTypes)
	return out
}

func TestHTTPSubscriberDeliversRapidEventsInOrderOverOneConnection(t *testing.T) {
	server := startKeepAliveServer(t)
	host, port, err := net.SplitHostPort(server.addr)
	require.NoError(t, err)

	const total = 100
	var delivered int32
	done := make(chan struct{})

	sub := New(nil, nil).
		WithPolicy(retry.Policy{MaxRetries: -1, Delay: 5 * time.Millisecond}).
		WithSuccessHandler(func(o session.Outcome) {
			if n := atomic.AddInt32(&delivered, 1); n == total {
				close(done)
			}
		})
	sub.endpoint.Host = host
	sub.endpoint.Port = port
	sub.request.Host = host
	sub.request.Port = port
	sub.request.Target = "/events"

	for i := 0; i < total; i++ {
		sub.SendEvent(fmt.Sprintf("event-%d", i))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("only %d/%d events delivered", atomic.LoadInt32(&delivered), total)
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&server.conns), int32(2), "pool size 1 should reuse a single keep-alive connection")

	bodies := server.snapshot()
	require.Len(t, bodies, total)
	for i, b := range bodies {
		assert.Equal(t, fmt.Sprintf("event-%d", i), b, "events must be delivered in submission order")
	}
}

func TestHTTPSubscriberDefaultsContentTypeToApplicationJSON(t *testing.T) {
	server := startKeepAliveServer(t)
	host, port, err := net.SplitHostPort(server.addr)
	require.NoError(t, err)

	done := make(chan struct{})
	sub := New(nil, nil).
		WithPolicy(retry.Policy{MaxRetries: -1, Delay: 5 * time.Millisecond}).
		WithSuccessHandler(func(o session.Outcome) { close(done) })
	sub.endpoint.Host = host
	sub.endpoint.Port = port
	sub.request.Host = host
	sub.request.Port = port
	sub.request.Target = "/events"

	sub.SendEvent("hello")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was never delivered")
	}

	types := server.contentTypeSnapshot()
	require.Len(t, types, 1)
	assert.Equal(t, "application/json", types[0])
}

func TestHTTPSubscriberQueuesWhenPoolSaturated(t *testing.T) {
	sub := New(nil, nil)
	sub.queueCap = 3
	sub.pool.WithPoolSize(0) // force every Acquire to fail, as if saturated

	var dropped []string
	sub.WithOnDrop(func(data string) { dropped = append(dropped, data) })

	for i := 0; i < 5; i++ {
		sub.SendEvent(fmt.Sprintf("e%d", i))
	}

	assert.Equal(t, 3, sub.QueueLen())
	assert.Equal(t, []string{"e0", "e1"}, dropped)
}

func TestHTTPSubscriberWithEndpointParsesURL(t *testing.T) {
	sub := New(nil, nil).WithEndpoint("https://events.example.com:9443/ingest")
	assert.True(t, sub.useTLS)
	assert.Equal(t, "events.example.com", sub.endpoint.Host)
	assert.Equal(t, "9443", sub.endpoint.Port)
	assert.Equal(t, "/ingest", sub.request.Target)
}

func TestHTTPSubscriberWithInsecureSkipVerifySetsTLSConfigFlag(t *testing.T) {
	sub := New(nil, nil)
	require.False(t, sub.cfg.TLSConfig.InsecureSkipVerify)

	sub.WithInsecureSkipVerify(true)
	require.True(t, sub.cfg.TLSConfig.InsecureSkipVerify)
}
