//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package subscriber

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/reactorhttp/reactor"
	"github.com/reactorhttp/reactor/pool"
	"github.com/reactorhttp/reactor/retry"
	"github.com/reactorhttp/reactor/session"
	"github.com/reactorhttp/reactor/transport"
	"github.com/reactorhttp/reactor/webclient"
)

// defaultQueueCapacity is the bounded event queue size of spec §9's open
// question 5: overflow drops the oldest queued event.
const defaultQueueCapacity = 100

// SuccessHandler is invoked once per successfully delivered event.
type SuccessHandler func(session.Outcome)

// HTTPSubscriber is the at-least-once event publisher of spec §4.7: it
// pools sessions to a configured endpoint, retries failed deliveries, and
// buffers events that arrive while the pool is saturated.
type HTTPSubscriber struct {
	cfg      *reactor.Config
	logger   reactor.SLogger
	endpoint transport.Endpoint
	useTLS   bool
	request  transport.Request
	policy   retry.Policy

	successHandler SuccessHandler
	onDrop         func(data string)

	pool *pool.Pool[*session.Session]

	mu       sync.Mutex
	queue    []string
	queueCap int
}

// New builds an [*HTTPSubscriber] with a default pool size of 1 and an
// unbounded, 15s-delay retry policy.
func New(cfg *reactor.Config, logger reactor.SLogger) *HTTPSubscriber {
	if cfg == nil {
		cfg = reactor.NewConfig()
	}
	if logger == nil {
		logger = reactor.DefaultSLogger()
	}
	req := transport.NewRequest()
	req.Method = "POST"
	req.ContentType = "application/json"
	s := &HTTPSubscriber{
		cfg:      cfg,
		logger:   logger,
		request:  req,
		policy:   retry.Policy{MaxRetries: -1, Delay: 15 * time.Second},
		queueCap: defaultQueueCapacity,
	}
	s.pool = pool.New[*session.Session](1, s.newSession)
	return s
}

// WithEndpoint parses url into host/port/target and configures TLS, per
// spec §4.6's URL parsing reused here for the subscriber's fixed target.
func (s *HTTPSubscriber) WithEndpoint(url string) *HTTPSubscriber {
	scheme, host, port, target, err := webclient.ParseURL(url)
	if err != nil {
		panic(err)
	}
	s.useTLS = scheme == "https"
	s.endpoint.Host = host
	s.endpoint.Port = port
	s.request.Host = host
	s.request.Port = port
	s.request.Target = target
	return s
}

// WithPolicy sets the retry policy applied to failed deliveries.
func (s *HTTPSubscriber) WithPolicy(policy retry.Policy) *HTTPSubscriber {
	s.policy = policy
	return s
}

// WithSSLContext enables TLS and sets the client TLS configuration.
func (s *HTTPSubscriber) WithSSLContext(tlsConfig *tls.Config) *HTTPSubscriber {
	s.useTLS = true
	s.cfg.TLSConfig = tlsConfig
	return s
}

// WithInsecureSkipVerify toggles certificate verification on the client TLS
// configuration, resolving spec §9's open question 1 the same way
// [webclient.Builder.WithInsecureSkipVerify] does.
func (s *HTTPSubscriber) WithInsecureSkipVerify(skip bool) *HTTPSubscriber {
	if s.cfg.TLSConfig == nil {
		s.cfg.TLSConfig = &tls.Config{}
	}
	s.cfg.TLSConfig.InsecureSkipVerify = skip
	return s
}

// WithSuccessHandler installs the handler invoked on each successful
// delivery.
func (s *HTTPSubscriber) WithSuccessHandler(h SuccessHandler) *HTTPSubscriber {
	s.successHandler = h
	return s
}

// WithPoolSize adjusts the session pool's capacity.
func (s *HTTPSubscriber) WithPoolSize(n int) *HTTPSubscriber {
	s.pool.WithPoolSize(n)
	return s
}

// WithHeaders sets the headers attached to every outbound event.
func (s *HTTPSubscriber) WithHeaders(headers transport.Headers) *HTTPSubscriber {
	s.request.Headers = headers.Clone()
	return s
}

// WithOnDrop installs a callback invoked with the oldest queued event's
// data whenever the bounded event queue overflows and drops it.
func (s *HTTPSubscriber) WithOnDrop(onDrop func(data string)) *HTTPSubscriber {
	s.onDrop = onDrop
	return s
}

func (s *HTTPSubscriber) newSession() *session.Session {
	return session.New(s.newTransport, s.cfg, s.logger)
}

func (s *HTTPSubscriber) newTransport() transport.Transport {
	if s.useTLS {
		return transport.NewTLSTransport(s.endpoint, s.cfg, nil, s.logger, s.cfg.TLSConfig)
	}
	return transport.NewTCPTransport(s.endpoint, s.cfg, nil, s.logger)
}

// initializeSession applies the subscriber's configured URL/verb/keep-alive
// to a newly created pool entry, per spec §4.7 step 1. It does not install
// a response handler: [Session.SetResponseHandler] only holds for the next
// response, so runEvent installs a fresh one before every Run instead.
func (s *HTTPSubscriber) initializeSession(sess *session.Session) {
	sess.SetOptions(
		session.WithHost(s.request.Host),
		session.WithPort(s.request.Port),
		session.WithTarget(s.request.Target),
		session.WithMethod(s.request.Method),
		session.WithKeepAlive(s.request.KeepAlive),
		session.WithHeaders(s.request.Headers),
		session.WithContentType(s.request.ContentType),
	)
}

// SendEvent enqueues an outbound POST carrying data, per spec §4.7.
func (s *HTTPSubscriber) SendEvent(data string) {
	sess, ok := s.pool.Acquire(s.initializeSession)
	if !ok {
		s.enqueue(data)
		return
	}
	req := s.request.Clone()
	req.Body = []byte(data)
	s.runEvent(sess, req, nil)
}

// runEvent fires one delivery attempt for req over sess. record carries
// retry bookkeeping across attempts; it is created on the first attempt.
func (s *HTTPSubscriber) runEvent(sess *session.Session, req transport.Request, record *retry.Record[transport.Request]) {
	if record == nil {
		record = retry.NewRecord[transport.Request](s.policy, req)
	}
	sess.SetResponseHandler(func(_ transport.Request, outcome session.Outcome) {
		if outcome.Ok() {
			if s.successHandler != nil {
				s.successHandler(outcome)
			}
			if !outcome.Response.IsKeepAlive() {
				s.pool.Release(sess)
			}
			s.sendNext()
			return
		}
		s.pool.Release(sess)
		go s.retryLoop(record)
	})
	sess.Run(context.Background(), req)
}

// retryLoop waits for the retry policy's delay and re-acquires a session
// to continue delivery. If re-acquisition fails because the pool is
// saturated, the consumed retry attempt is given back (spec §4.7 step 5:
// "do not consume a retry attempt — just reschedule") and the loop waits
// again.
func (s *HTTPSubscriber) retryLoop(record *retry.Record[transport.Request]) {
	for {
		var nextReq transport.Request
		retried := record.WaitAndRetry(context.Background(), func(_ context.Context, r transport.Request) {
			nextReq = r
		})
		if !retried {
			return
		}
		sess, ok := s.pool.Acquire(s.initializeSession)
		if ok {
			s.runEvent(sess, nextReq, record)
			return
		}
		record.DecrementRetryCount()
	}
}

// sendNext drains one queued event, if any, per spec §4.7 step 4.
func (s *HTTPSubscriber) sendNext() {
	data, ok := s.dequeue()
	if !ok {
		return
	}
	s.SendEvent(data)
}

func (s *HTTPSubscriber) enqueue(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) >= s.queueCap {
		dropped := s.queue[0]
		s.queue = s.queue[1:]
		if s.onDrop != nil {
			s.onDrop(dropped)
		}
	}
	s.queue = append(s.queue, data)
}

func (s *HTTPSubscriber) dequeue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	data := s.queue[0]
	s.queue = s.queue[1:]
	return data, true
}

// QueueLen reports how many events are currently buffered.
func (s *HTTPSubscriber) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close shuts down every pooled session.
func (s *HTTPSubscriber) Close() error {
	return s.pool.Close()
}
