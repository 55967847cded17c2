package httpclient

import (
	"context"
	"io"
)

// Transport opens connections so callers can inject mocks or different transports.
type Transport interface {
	Open(ctx context.Context, rawURL string) (Conn, error)
}

// Conn is a single request/response exchange. It is configured, optionally
// written to, sent once, read once, and closed.
type Conn interface {
	URL() string
	SetMethod(method string) error
	SetHeader(key, value string)
	SetOutputEnabled(enabled bool)
	// OutputStream is only available before Send and only when output is enabled.
	OutputStream() (io.Writer, error)
	Send(ctx context.Context) error

	StatusCode() int
	// Date returns the response Date header in milliseconds since the epoch, or 0.
	Date() int64
	// HeaderFields returns the response headers with the status line stored under "".
	HeaderFields() map[string][]string
	InputStream() (io.ReadCloser, error)

	Close() error
}
