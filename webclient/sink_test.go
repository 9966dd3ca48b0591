// SPDX-License-Identifier: GPL-3.0-or-later

package webclient

import (
	"context"
	"testing"

	"github.com/reactorhttp/reactor/session"
	"github.com/reactorhttp/reactor/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSinkPostSendsBodyAndReportsDemand(t *testing.T) {
	ft := newFakeTransport(closingResponse(201, "created"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)

	sink := NewHTTPSink(sess, transport.NewRequest(), func(o session.Outcome) bool {
		return o.Ok() && o.Response.StatusCode == 201
	})

	var more bool
	done := make(chan struct{})
	sink.Post(context.Background(), []byte("payload"), func(m bool) {
		more = m
		close(done)
	})
	<-done

	require.True(t, more)
}

func TestHTTPSinkPostStringDelegatesToPost(t *testing.T) {
	ft := newFakeTransport(closingResponse(200, "ok"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)
	sink := NewHTTPSink(sess, transport.NewRequest(), func(session.Outcome) bool { return false })

	done := make(chan struct{})
	sink.PostString(context.Background(), "hello", func(bool) { close(done) })
	<-done
}

func TestHTTPSinkPostResponseForwardsBody(t *testing.T) {
	ft := newFakeTransport(closingResponse(200, "ok"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)
	sink := NewHTTPSink(sess, transport.NewRequest(), func(session.Outcome) bool { return false })

	done := make(chan struct{})
	sink.PostResponse(context.Background(), transport.Response{Body: []byte("relayed")}, func(bool) { close(done) })
	<-done
}

func TestNewHTTPSinkDefaultsContentTypeToPlainText(t *testing.T) {
	ft := newFakeTransport(closingResponse(200, "ok"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)
	sink := NewHTTPSink(sess, transport.NewRequest(), func(session.Outcome) bool { return false })

	assert.Equal(t, "plain/text", sink.Request.ContentType)
}

func TestNewHTTPSinkKeepsExplicitContentType(t *testing.T) {
	ft := newFakeTransport(closingResponse(200, "ok"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)
	req := transport.NewRequest()
	req.ContentType = "application/xml"
	sink := NewHTTPSink(sess, req, func(session.Outcome) bool { return false })

	assert.Equal(t, "application/xml", sink.Request.ContentType)
}

func TestHTTPSinkAsAsyncSinkComposesIntoSinkShape(t *testing.T) {
	ft := newFakeTransport(closingResponse(200, "ok"))
	sess := session.New(func() transport.Transport { return ft }, nil, nil)
	sink := NewHTTPSink(sess, transport.NewRequest(), func(session.Outcome) bool { return true })

	asyncSink := sink.AsAsyncSink()
	var more bool
	done := make(chan struct{})
	asyncSink([]byte("x"), func(m bool) {
		more = m
		close(done)
	})
	<-done
	assert.True(t, more)
}
