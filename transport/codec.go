//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package transport

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// writeRequest serializes req onto w using net/http's own request writer,
// so that framing (Content-Length, chunked bodies, header folding) matches
// what any RFC 7230 server expects, rather than hand-rolling it.
func writeRequest(w io.Writer, req Request) error {
	target := req.Target
	if target == "" {
		target = "/"
	}
	hreq, err := http.NewRequest(req.Method, target, nil)
	if err != nil {
		return NewError(ErrorKindWrite, "", err)
	}
	hreq.Proto = req.Version
	hreq.Host = req.Host
	if req.Body != nil {
		hreq.Body = io.NopCloser(strings.NewReader(string(req.Body)))
		hreq.ContentLength = int64(len(req.Body))
	}
	hreq.Header = make(http.Header)
	for _, f := range req.Headers {
		hreq.Header.Add(f.Name, f.Value)
	}
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	if req.EmitPortHeader && req.Port != "" {
		hreq.Header.Set("port", req.Port)
	}
	if req.KeepAlive {
		hreq.Header.Set("Connection", "keep-alive")
	} else {
		hreq.Header.Set("Connection", "close")
	}

	if err := hreq.Write(w); err != nil {
		return NewError(ErrorKindWrite, "", err)
	}
	return nil
}

// readResponse parses an HTTP response from r using net/http's own reader,
// draining and buffering the body so the connection can be reused (or
// closed) independently of how the caller consumes the returned Response.
func readResponse(r *bufio.Reader, method string) (Response, error) {
	hresp, err := http.ReadResponse(r, &http.Request{Method: method})
	if err != nil {
		return Response{}, NewError(ErrorKindRead, "", err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return Response{}, NewError(ErrorKindRead, "", err)
	}

	var headers Headers
	for name, values := range hresp.Header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}
	if headers.Get("Content-Length") == "" {
		headers.Add("Content-Length", strconv.Itoa(len(body)))
	}

	return Response{
		StatusCode: hresp.StatusCode,
		Version:    fmt.Sprintf("HTTP/%d.%d", hresp.ProtoMajor, hresp.ProtoMinor),
		Headers:    headers,
		Body:       body,
	}, nil
}
