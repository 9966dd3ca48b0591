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

// HTTPSink is the POST-side counterpart of [HTTPSource], per spec §4.6: it
// accepts a downstream value, turns it into a request body, and POSTs it
// to a configured URL through its own session.
type HTTPSink struct {
	Session *session.Session
	Request transport.Request

	// Handler decides, from the response outcome, whether the sink
	// should ask for more downstream values (spec's requestNext).
	Handler func(session.Outcome) bool
}

// NewHTTPSink builds an [*HTTPSink]. If request does not already carry a
// Content-Type, it defaults to "plain/text", per spec §6's broadcast-sink
// default.
func NewHTTPSink(sess *session.Session, request transport.Request, handler func(session.Outcome) bool) *HTTPSink {
	if request.ContentType == "" {
		request.ContentType = "plain/text"
	}
	return &HTTPSink{Session: sess, Request: request, Handler: handler}
}

// Post sends body as the request payload and invokes completionToken with
// Handler's requestNext decision once the response (or error) arrives.
func (s *HTTPSink) Post(ctx context.Context, body []byte, completionToken func(more bool)) {
	req := s.Request.Clone()
	req.Body = body
	s.Session.SetResponseHandler(func(_ transport.Request, outcome session.Outcome) {
		completionToken(s.Handler(outcome))
	})
	s.Session.Run(ctx, req)
}

// PostString is the raw-string variant of Post, per spec §4.6.
func (s *HTTPSink) PostString(ctx context.Context, data string, completionToken func(more bool)) {
	s.Post(ctx, []byte(data), completionToken)
}

// PostResponse converts a downstream [transport.Response] into a request
// body (its raw bytes) and posts it, the "accepts a downstream Response
// value" path of spec §4.6.
func (s *HTTPSink) PostResponse(ctx context.Context, resp transport.Response, completionToken func(more bool)) {
	s.Post(ctx, resp.Body, completionToken)
}

// AsAsyncSink adapts s into a [stream.AsyncSink] of raw bytes, for
// composition into a [stream.Broadcaster] or other sink group.
func (s *HTTPSink) AsAsyncSink() stream.AsyncSink[[]byte] {
	return func(v []byte, completionToken func(bool)) {
		s.Post(context.Background(), v, completionToken)
	}
}
