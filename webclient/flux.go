//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package webclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reactorhttp/reactor/retry"
	"github.com/reactorhttp/reactor/session"
	"github.com/reactorhttp/reactor/stream"
	"github.com/reactorhttp/reactor/transport"
)

// defaultRetryDelay is the delay spec §4.6 assigns to a [HTTPFlux.Retry]
// policy.
const defaultRetryDelay = 15 * time.Second

// HTTPFlux wraps a [stream.Flux] of [session.Outcome] with the HTTP-aware
// conveniences of spec §4.6: a retry policy, subscribe_with_retry, and
// as_json.
type HTTPFlux struct {
	session *session.Session
	request transport.Request
	source  *HTTPSource
	flux    *stream.Flux[session.Outcome]
	policy  *retry.Policy
}

// NewHTTPFlux builds a [*HTTPFlux] over sess, sending request up to count
// times (or forever if forever is true).
func NewHTTPFlux(sess *session.Session, request transport.Request, count int, forever bool) *HTTPFlux {
	src := NewHTTPSource(sess, request, count, forever)
	return &HTTPFlux{
		session: sess,
		request: request,
		source:  src,
		flux:    stream.NewFlux[session.Outcome](src),
	}
}

// Retry attaches a retry policy of n retries with a 15s delay, per spec
// §4.6. Returns hf for chaining.
func (hf *HTTPFlux) Retry(n int) *HTTPFlux {
	hf.policy = &retry.Policy{MaxRetries: n, Delay: defaultRetryDelay}
	return hf
}

// Subscribe attaches a plain synchronous subscriber with no retry wiring.
func (hf *HTTPFlux) Subscribe(consumer func(session.Outcome)) {
	hf.flux.Subscribe(consumer)
}

// SubscribeAsync attaches a plain asynchronous subscriber with no retry
// wiring.
func (hf *HTTPFlux) SubscribeAsync(consumer func(session.Outcome, func(bool))) {
	hf.flux.SubscribeAsync(consumer)
}

// Handler is invoked once per exchange by [HTTPFlux.SubscribeWithRetry]. A
// non-nil return value is treated the same as an error outcome: it
// triggers a retry, standing in for the "handler throws" case of spec
// §4.6 (Go has no exceptions to catch, so the handler reports failure by
// returning an error instead of panicking).
type Handler func(session.Outcome) error

// SubscribeWithRetry implements spec §4.6's subscribe_with_retry: on each
// value, it invokes handler; if handler returns an error or the outcome
// itself is an error, it clones the request and the session, and schedules
// a retry through the attached policy (default: unbounded, 15s delay, if
// Retry was never called). When the policy is exhausted, the chain simply
// stops — there is nothing further to subscribe. It drives a single
// exchange (plus its retries): the count/forever budget hf was built with
// is not consulted, and the subscription ends once handler accepts an
// outcome.
func (hf *HTTPFlux) SubscribeWithRetry(handler Handler) {
	policy := retry.Policy{MaxRetries: -1, Delay: defaultRetryDelay}
	if hf.policy != nil {
		policy = *hf.policy
	}
	record := retry.NewRecord[transport.Request](policy, hf.request)

	var attempt func(sess *session.Session, req transport.Request)
	attempt = func(sess *session.Session, req transport.Request) {
		src := NewHTTPSource(sess, req, 1, false)
		f := stream.NewFlux[session.Outcome](src)
		f.SubscribeAsync(func(outcome session.Outcome, token func(bool)) {
			if err := safeInvoke(handler, outcome); err == nil {
				token(false)
				return
			}
			record.SetRequest(req.Clone())
			retried := record.WaitAndRetry(context.Background(), func(_ context.Context, nextReq transport.Request) {
				attempt(sess.Clone(), nextReq)
			})
			if !retried {
				token(false)
			}
		})
	}
	attempt(hf.session, hf.request)
}

func safeInvoke(handler Handler, outcome session.Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webclient: handler panic: %v", r)
		}
	}()
	if !outcome.Ok() {
		return outcome.Err
	}
	return handler(outcome)
}

// SubscribeJSON subscribes to hf through [HTTPFlux.SubscribeWithRetry], so
// any policy attached via [HTTPFlux.Retry] (or [Builder.WithRetry]) governs
// JSON exchanges exactly the way it governs plain ones, per spec §8
// scenario S3. Each successful response body is parsed as JSON into a T; a
// parse failure is delivered to handler as a bad_value [*transport.Error]
// and, since malformed JSON from a reachable server won't fix itself on
// retry, does not trigger another attempt. A transport-level failure is
// left to SubscribeWithRetry's own retry machinery and is not separately
// delivered to handler, per spec §4.6's as_json.
func SubscribeJSON[T any](hf *HTTPFlux, handler func(T, *transport.Error)) {
	hf.SubscribeWithRetry(func(outcome session.Outcome) error {
		var zero T
		if err := json.Unmarshal(outcome.Response.Body, &zero); err != nil {
			terr := transport.NewError(transport.ErrorKindBadValue, "", err)
			handler(zero, terr)
			return nil
		}
		handler(zero, nil)
		return nil
	})
}

// HTTPMono is the single-exchange specialization of [HTTPFlux], per spec
// §4.6. It reuses HTTPFlux's machinery with a one-exchange budget.
type HTTPMono struct {
	*HTTPFlux
}

// NewHTTPMono builds an [*HTTPMono] that performs exactly one exchange
// over sess.
func NewHTTPMono(sess *session.Session, request transport.Request) *HTTPMono {
	return &HTTPMono{HTTPFlux: NewHTTPFlux(sess, request, 1, false)}
}
