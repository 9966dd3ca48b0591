//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop httpconn.go (round trip lifecycle, structured
// logging around each exchange).
//

package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bassosimone/runtimex"
	"github.com/reactorhttp/reactor"
	"github.com/reactorhttp/reactor/transport"
)

// Outcome is what a [ResponseHandler] receives for one exchange: either a
// [transport.Response] or a [*transport.Error], never both (spec §4.2:
// "result<response, error>").
type Outcome struct {
	Response transport.Response
	Err      *transport.Error
}

// Ok reports whether the exchange succeeded.
func (o Outcome) Ok() bool {
	return o.Err == nil
}

// ResponseHandler is invoked at most once per [Session.Run] call, always
// with the request that was sent so retry code can reconstruct the
// envelope (spec §4.2).
type ResponseHandler func(req transport.Request, outcome Outcome)

// Session is the HTTP session state machine of spec §4.2: it owns a
// [transport.Transport], serializes one request at a time, and tracks
// Fresh/Disconnected/Idle/InUse state across exchanges.
//
// A Session is safe for concurrent use by multiple goroutines, but running
// two exchanges concurrently on the same Session is a programmer error and
// panics, per spec §7.
type Session struct {
	newTransport func() transport.Transport
	cfg          *reactor.Config
	logger       reactor.SLogger
	classifier   reactor.ErrClassifier
	spanID       string

	running atomic.Bool

	mu            sync.Mutex
	state         State
	transport     transport.Transport
	pending       transport.Request
	handler       ResponseHandler
	monitorCancel context.CancelFunc
}

// New builds a [*Session] that creates transports via newTransport whenever
// it needs to (re)connect. cfg supplies the User-Agent and error classifier;
// a nil cfg uses [reactor.NewConfig]'s defaults. A nil logger discards logs.
func New(newTransport func() transport.Transport, cfg *reactor.Config, logger reactor.SLogger) *Session {
	if cfg == nil {
		cfg = reactor.NewConfig()
	}
	if logger == nil {
		logger = reactor.DefaultSLogger()
	}
	return &Session{
		newTransport: newTransport,
		cfg:          cfg,
		logger:       logger,
		classifier:   cfg.ErrClassifier,
		spanID:       reactor.NewSpanID(),
		state:        Fresh,
		pending:      transport.NewRequest(),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InUse reports whether an exchange is currently in flight. It satisfies
// the small interface package pool uses to scan for a reusable session.
func (s *Session) InUse() bool {
	return s.State() == InUse
}

// SetOption applies a single [Option] to the pending request envelope.
func (s *Session) SetOption(opt Option) {
	s.SetOptions(opt)
}

// SetOptions applies every opt, in order, to the pending request envelope.
func (s *Session) SetOptions(opts ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range opts {
		opt(&s.pending)
	}
}

// SetResponseHandler installs h for the next exchange only: [Session.Run]
// takes and clears it, whether that exchange succeeds or fails, so a
// handler must be installed before every Run.
func (s *Session) SetResponseHandler(h ResponseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Run fires the session's state machine for one exchange: resolving and
// connecting (and handshaking) only if the session is not already Idle,
// then writing req (or the pending envelope configured via SetOptions) and
// reading the response.
//
// The response handler always receives exactly one [Outcome], whether the
// exchange succeeds or fails; transport errors are never returned from Run
// itself (spec §7: "transport errors are not thrown"). Calling Run while
// another exchange is already in flight on this session is a programmer
// error and panics.
func (s *Session) Run(ctx context.Context, req ...transport.Request) {
	if !s.running.CompareAndSwap(false, true) {
		runtimex.Assert(false)
	}
	defer s.running.Store(false)

	s.mu.Lock()
	if s.monitorCancel != nil {
		s.monitorCancel()
		s.monitorCancel = nil
	}
	handler := s.handler
	runtimex.Assert(handler != nil)
	s.handler = nil
	needsConnect := s.state == Fresh || s.state == Disconnected
	tr := s.transport
	var request transport.Request
	if len(req) > 0 {
		request = req[0].Clone()
	} else {
		request = s.pending.Clone()
	}
	s.state = InUse
	s.mu.Unlock()

	if request.Headers.Get("User-Agent") == "" {
		request.Headers.Add("User-Agent", s.cfg.UserAgent)
	}

	s.logger.Info("sessionRunStart", slog.String("spanID", s.spanID), slog.String("method", request.Method), slog.Bool("needsConnect", needsConnect))

	if needsConnect {
		tr = s.newTransport()
		if err := tr.Connect(ctx); err != nil {
			s.fail(ctx, nil, request, handler, err)
			return
		}
		if err := tr.Handshake(ctx); err != nil {
			s.fail(ctx, tr, request, handler, err)
			return
		}
	}

	if err := tr.Write(ctx, request); err != nil {
		s.fail(ctx, tr, request, handler, err)
		return
	}
	resp, err := tr.Read(ctx)
	if err != nil {
		s.fail(ctx, tr, request, handler, err)
		return
	}

	s.mu.Lock()
	s.transport = tr
	s.mu.Unlock()

	handler(request, Outcome{Response: resp})

	if resp.IsKeepAlive() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
		s.armMonitor(ctx, tr)
	} else {
		tr.Shutdown(ctx)
		s.mu.Lock()
		s.state = Fresh
		s.transport = nil
		s.mu.Unlock()
	}

	s.logger.Info("sessionRunDone", slog.String("spanID", s.spanID), slog.Int("statusCode", resp.StatusCode), slog.Bool("keepAlive", resp.IsKeepAlive()))
}

// fail transitions the session to Fresh, tearing down tr if non-nil, and
// invokes handler exactly once with the classified error (spec §4.2's
// "any InUse --err--> Fresh" transition).
func (s *Session) fail(ctx context.Context, tr transport.Transport, request transport.Request, handler ResponseHandler, err error) {
	if tr != nil {
		tr.Shutdown(ctx)
	}
	s.mu.Lock()
	s.state = Fresh
	s.transport = nil
	s.mu.Unlock()

	terr, ok := err.(*transport.Error)
	if !ok {
		terr = transport.NewError(transport.ErrorKindBadValue, s.classifier.Classify(err), err)
	}
	s.logger.Info("sessionRunError", slog.String("spanID", s.spanID), slog.String("kind", string(terr.Kind)), slog.Any("err", terr.Err))
	handler(request, Outcome{Err: terr})
}

// armMonitor starts a passive wait for the transport to signal a broken
// idle connection (spec §4.1's monitor_for_error). If the peer closes while
// Idle, the session silently transitions to Fresh without invoking the
// response handler, since there is no pending request (spec §7).
func (s *Session) armMonitor(ctx context.Context, tr transport.Transport) {
	monitorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.monitorCancel = cancel
	s.mu.Unlock()

	go func() {
		ch := tr.MonitorForError(monitorCtx)
		select {
		case err, ok := <-ch:
			if !ok || err == nil {
				return
			}
			s.mu.Lock()
			if s.state != Idle || s.transport != tr {
				s.mu.Unlock()
				return
			}
			s.state = Fresh
			s.transport = nil
			s.mu.Unlock()
			tr.Shutdown(context.Background())
			s.logger.Debug("idleWaitPeerClosed", slog.String("spanID", s.spanID), slog.Any("err", err))
		case <-monitorCtx.Done():
		}
	}()
}

// Close forces the transport to shut down and transitions the session to
// Disconnected, per spec §4.2. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.monitorCancel != nil {
		s.monitorCancel()
		s.monitorCancel = nil
	}
	tr := s.transport
	s.transport = nil
	s.state = Disconnected
	s.mu.Unlock()
	if tr == nil {
		return nil
	}
	return tr.Shutdown(context.Background())
}

// Clone returns a new session bound to the same transport factory, config,
// and logger, but with a fresh, unconnected transport, per spec §4.2.
func (s *Session) Clone() *Session {
	return New(s.newTransport, s.cfg, s.logger)
}
