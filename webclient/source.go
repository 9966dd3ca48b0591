//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package webclient

import (
	"context"

	"github.com/reactorhttp/reactor/session"
	"github.com/reactorhttp/reactor/stream"
	"github.com/reactorhttp/reactor/transport"
)

// HTTPSource is a [stream.Source] backed by a [*session.Session], per spec
// §4.6: each Next call drives exactly one exchange over the session and
// hands the result to consumer.
type HTTPSource struct {
	Session  *session.Session
	Request  transport.Request
	Ctx      context.Context
	Count    int
	Forever  bool
}

var _ stream.Source[session.Outcome] = (*HTTPSource)(nil)

// NewHTTPSource builds an [*HTTPSource] bound to sess, sending a clone of
// request each time Next is called. count bounds the number of exchanges
// unless forever is true (spec §4.6's "exchange budget").
func NewHTTPSource(sess *session.Session, request transport.Request, count int, forever bool) *HTTPSource {
	return &HTTPSource{Session: sess, Request: request, Ctx: context.Background(), Count: count, Forever: forever}
}

// Next drives one exchange and invokes consumer with its [session.Outcome].
func (s *HTTPSource) Next(consumer func(session.Outcome)) {
	if !s.Forever {
		s.Count--
	}
	req := s.Request.Clone()
	s.Session.SetResponseHandler(func(_ transport.Request, outcome session.Outcome) {
		consumer(outcome)
	})
	s.Session.Run(s.Ctx, req)
}

// HasNext reports whether the exchange budget allows another Next call.
func (s *HTTPSource) HasNext() bool {
	return s.Forever || s.Count > 0
}
