package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	errConnClosed     = errors.New("connection is closed")
	errAlreadySent    = errors.New("request already sent")
	errNotSent        = errors.New("request not sent")
	errOutputDisabled = errors.New("output is not enabled on this connection")
	errStreamConsumed = errors.New("response stream already consumed")
	errInvalidMethod  = errors.New("invalid request method")
)

const defaultRestyMethod = http.MethodGet

// RestyTransport adapts resty.Client to the Transport interface.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a new RestyTransport with the specified timeout and user agent.
func NewRestyTransport(timeout time.Duration, userAgent string) *RestyTransport {
	c := newRestyBaseClient(timeout)
	if ua := strings.TrimSpace(userAgent); ua != "" {
		c.SetHeader("User-Agent", ua)
	}
	return &RestyTransport{client: c}
}

// NewRestyTransportFromClient wraps an already configured resty client.
func NewRestyTransportFromClient(client *resty.Client) *RestyTransport {
	if client == nil {
		client = newRestyBaseClient(0)
	}
	return &RestyTransport{client: client}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Open prepares a connection for rawURL. No network I/O happens until Send.
func (t *RestyTransport) Open(ctx context.Context, rawURL string) (Conn, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("resty transport is not initialized")
	}
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("open connection: url is empty")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}
	}
	return &restyConn{
		client: t.client,
		url:    rawURL,
		method: defaultRestyMethod,
		header: make(http.Header),
	}, nil
}

// restyConn buffers the request body and executes it through resty on Send.
type restyConn struct {
	client   *resty.Client
	url      string
	method   string
	header   http.Header
	output   bool
	body     bytes.Buffer
	resp     *resty.Response
	consumed bool
	closed   bool
}

func (c *restyConn) URL() string { return c.url }

func (c *restyConn) SetMethod(method string) error {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" || strings.ContainsAny(method, " \t\r\n") {
		return fmt.Errorf("%w: %q", errInvalidMethod, method)
	}
	c.method = method
	return nil
}

func (c *restyConn) SetHeader(key, value string) {
	c.header.Set(key, value)
}

func (c *restyConn) SetOutputEnabled(enabled bool) {
	c.output = enabled
}

func (c *restyConn) OutputStream() (io.Writer, error) {
	switch {
	case c.closed:
		return nil, errConnClosed
	case c.resp != nil:
		return nil, errAlreadySent
	case !c.output:
		return nil, errOutputDisabled
	}
	return &c.body, nil
}

// Send performs the exchange. The response body is left unread so it can be
// consumed through InputStream.
func (c *restyConn) Send(ctx context.Context) error {
	if c.closed {
		return errConnClosed
	}
	if c.resp != nil {
		return errAlreadySent
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	for key, values := range c.header {
		for _, v := range values {
			req.SetHeader(key, v)
		}
	}
	if c.output {
		req.SetBody(c.body.Bytes())
	}

	resp, err := req.Execute(c.method, c.url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return fmt.Errorf("http %s %s: %w", c.method, c.url, err)
	}
	c.resp = resp
	return nil
}

func (c *restyConn) StatusCode() int {
	if c.resp == nil {
		return 0
	}
	return c.resp.StatusCode()
}

func (c *restyConn) Date() int64 {
	if c.resp == nil {
		return 0
	}
	raw := c.resp.Header().Get("Date")
	if raw == "" {
		return 0
	}
	t, err := http.ParseTime(raw)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

func (c *restyConn) HeaderFields() map[string][]string {
	if c.resp == nil {
		return map[string][]string{}
	}
	src := c.resp.Header()
	out := make(map[string][]string, len(src)+1)
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	out[""] = []string{statusLine(c.resp)}
	return out
}

func (c *restyConn) InputStream() (io.ReadCloser, error) {
	switch {
	case c.closed:
		return nil, errConnClosed
	case c.resp == nil:
		return nil, errNotSent
	case c.consumed:
		return nil, errStreamConsumed
	}
	c.consumed = true
	body := c.resp.RawBody()
	if body == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return body, nil
}

// Close releases the response body. Calling it more than once is a no-op.
func (c *restyConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.body.Reset()
	if c.resp != nil && c.resp.RawBody() != nil {
		return c.resp.RawBody().Close()
	}
	return nil
}

func statusLine(resp *resty.Response) string {
	proto, status := "HTTP/1.1", ""
	if raw := resp.RawResponse; raw != nil {
		if raw.Proto != "" {
			proto = raw.Proto
		}
		status = raw.Status
	}
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}
	return proto + " " + status
}
