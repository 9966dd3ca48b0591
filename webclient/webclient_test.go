// SPDX-License-Identifier: GPL-3.0-or-later

package webclient

import (
	"context"
	"sync"

	"github.com/reactorhttp/reactor/transport"
)

// fakeTransport is a minimal in-memory [transport.Transport] used across
// this package's tests to drive sessions without real sockets.
type fakeTransport struct {
	mu sync.Mutex

	responses []transport.Response // consumed in order, repeating the last once exhausted
	errs      []error
	calls     int
}

func newFakeTransport(responses ...transport.Response) *fakeTransport {
	return &fakeTransport{responses: responses}
}

func (f *fakeTransport) Resolve(ctx context.Context) error   { return nil }
func (f *fakeTransport) Connect(ctx context.Context) error   { return nil }
func (f *fakeTransport) Handshake(ctx context.Context) error { return nil }
func (f *fakeTransport) Write(ctx context.Context, req transport.Request) error {
	return nil
}

func (f *fakeTransport) Read(ctx context.Context) (transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return transport.Response{}, f.errs[idx]
	}
	return f.responses[idx], nil
}

func (f *fakeTransport) Shutdown(ctx context.Context) error { return nil }

func (f *fakeTransport) MonitorForError(ctx context.Context) <-chan error {
	return make(chan error)
}
