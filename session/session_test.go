// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reactorhttp/reactor/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is a minimal in-memory [transport.Transport] stand-in that
// lets tests drive connect/write/read outcomes without real sockets.
type fakeTransport struct {
	mu sync.Mutex

	connectErr error
	writeErr   error
	readErr    error
	response   transport.Response

	connectCalls int
	writeCalls   int
	shutdownCalls int

	monitorCh chan error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		response:  transport.Response{Version: "HTTP/1.1", StatusCode: 200},
		monitorCh: make(chan error, 1),
	}
}

func (f *fakeTransport) Resolve(ctx context.Context) error { return nil }

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return f.connectErr
}

func (f *fakeTransport) Handshake(ctx context.Context) error { return nil }

func (f *fakeTransport) Write(ctx context.Context, req transport.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	return f.writeErr
}

func (f *fakeTransport) Read(ctx context.Context) (transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return transport.Response{}, f.readErr
	}
	return f.response, nil
}

func (f *fakeTransport) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownCalls++
	return nil
}

func (f *fakeTransport) MonitorForError(ctx context.Context) <-chan error {
	return f.monitorCh
}

func TestSessionRunSucceedsAndGoesIdleOnKeepAlive(t *testing.T) {
	ft := newFakeTransport()
	ft.response.Headers.Add("Connection", "keep-alive")
	s := New(func() transport.Transport { return ft }, nil, nil)

	require.Equal(t, Fresh, s.State())

	var got Outcome
	done := make(chan struct{})
	s.SetResponseHandler(func(req transport.Request, outcome Outcome) {
		got = outcome
		close(done)
	})
	s.Run(context.Background())
	<-done

	require.True(t, got.Ok())
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, ft.connectCalls)
}

func TestSessionReusesIdleConnectionWithoutReconnect(t *testing.T) {
	ft := newFakeTransport()
	ft.response.Headers.Add("Connection", "keep-alive")
	s := New(func() transport.Transport { return ft }, nil, nil)

	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		s.SetResponseHandler(func(req transport.Request, outcome Outcome) {
			close(done)
		})
		s.Run(context.Background())
		<-done
	}

	assert.Equal(t, 1, ft.connectCalls, "idle reuse must not reconnect")
	assert.Equal(t, 3, ft.writeCalls)
}

func TestSessionGoesFreshWithoutKeepAlive(t *testing.T) {
	ft := newFakeTransport() // default Response has no Connection header, HTTP/1.1 defaults keep-alive... override:
	ft.response.Headers.Add("Connection", "close")
	s := New(func() transport.Transport { return ft }, nil, nil)

	done := make(chan struct{})
	s.SetResponseHandler(func(req transport.Request, outcome Outcome) { close(done) })
	s.Run(context.Background())
	<-done

	assert.Equal(t, Fresh, s.State())
	assert.Equal(t, 1, ft.shutdownCalls)
}

func TestSessionRunFailsOnConnectError(t *testing.T) {
	ft := newFakeTransport()
	ft.connectErr = errors.New("refused")
	s := New(func() transport.Transport { return ft }, nil, nil)

	var got Outcome
	done := make(chan struct{})
	s.SetResponseHandler(func(req transport.Request, outcome Outcome) {
		got = outcome
		close(done)
	})
	s.Run(context.Background())
	<-done

	assert.False(t, got.Ok())
	require.NotNil(t, got.Err)
	assert.Equal(t, Fresh, s.State())
}

func TestSessionClosePreventsReuse(t *testing.T) {
	ft := newFakeTransport()
	ft.response.Headers.Add("Connection", "keep-alive")
	s := New(func() transport.Transport { return ft }, nil, nil)

	done := make(chan struct{})
	s.SetResponseHandler(func(req transport.Request, outcome Outcome) { close(done) })
	s.Run(context.Background())
	<-done

	require.NoError(t, s.Close())
	assert.Equal(t, Disconnected, s.State())
	assert.Equal(t, 1, ft.shutdownCalls) // once for Close, none were needed before
}

func TestSessionCloneIsIndependent(t *testing.T) {
	ft := newFakeTransport()
	s := New(func() transport.Transport { return ft }, nil, nil)
	s.SetOption(WithHost("example.com"))

	clone := s.Clone()
	assert.Equal(t, Fresh, clone.State())
	assert.NotSame(t, s, clone)
}

func TestSessionRunPanicsOnConcurrentRun(t *testing.T) {
	ft := newFakeTransport()
	ft.response.Headers.Add("Connection", "keep-alive")
	blocker := make(chan struct{})
	s := New(func() transport.Transport { return ft }, nil, nil)
	s.SetResponseHandler(func(req transport.Request, outcome Outcome) {
		<-blocker
	})

	go s.Run(context.Background())
	time.Sleep(20 * time.Millisecond) // let the first Run claim the running flag

	assert.Panics(t, func() {
		s.Run(context.Background())
	})
	close(blocker)
}
