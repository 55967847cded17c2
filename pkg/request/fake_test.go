package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/samvad-hq/samvad-request/pkg/httpclient"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeTransport hands out a single fakeConn and remembers the opened URL.
type fakeTransport struct {
	conn    *fakeConn
	openErr error
	opened  []string
}

func (t *fakeTransport) Open(_ context.Context, rawURL string) (httpclient.Conn, error) {
	t.opened = append(t.opened, rawURL)
	if t.openErr != nil {
		return nil, t.openErr
	}
	t.conn.url = rawURL
	return t.conn, nil
}

// fakeConn records what the request does to it and replays a canned response.
type fakeConn struct {
	url      string
	method   string
	headers  map[string]string
	output   bool
	written  bytes.Buffer
	writeErr error
	sendErr  error
	sent     bool
	closed   int

	status   int
	date     int64
	respHdr  map[string][]string
	respBody string
}

func newFakeConn(status int, body string) *fakeConn {
	return &fakeConn{
		headers: map[string]string{},
		status:  status,
		respHdr: map[string][]string{
			"":             {"HTTP/1.1 200 OK"},
			"Content-Type": {"text/plain"},
		},
		respBody: body,
	}
}

func (c *fakeConn) URL() string { return c.url }

func (c *fakeConn) SetMethod(m string) error {
	c.method = m
	return nil
}

func (c *fakeConn) SetHeader(k, v string) { c.headers[k] = v }

func (c *fakeConn) SetOutputEnabled(enabled bool) { c.output = enabled }

func (c *fakeConn) OutputStream() (io.Writer, error) {
	if !c.output {
		return nil, errors.New("output disabled")
	}
	if c.writeErr != nil {
		return failingWriter{err: c.writeErr}, nil
	}
	return &c.written, nil
}

func (c *fakeConn) Send(context.Context) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = true
	return nil
}

func (c *fakeConn) StatusCode() int                   { return c.status }
func (c *fakeConn) Date() int64                       { return c.date }
func (c *fakeConn) HeaderFields() map[string][]string { return c.respHdr }

func (c *fakeConn) InputStream() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(c.respBody)), nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func newFakeRequest(t interface{ Fatalf(string, ...any) }, rawURL string, conn *fakeConn) (*Request, *fakeTransport) {
	tr := &fakeTransport{conn: conn}
	r, err := New(rawURL, Options{Transport: tr})
	if err != nil {
		t.Fatalf("New(%q): %v", rawURL, err)
	}
	return r, tr
}
