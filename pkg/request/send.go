package request

import (
	"context"
	"errors"
	"time"
)

// Get sends the request as GET.
func (r *Request) Get(ctx context.Context) (*Response, error) {
	return r.do(ctx, MethodGet)
}

// Post sends the request as POST with the active body.
func (r *Request) Post(ctx context.Context) (*Response, error) {
	return r.do(ctx, MethodPost)
}

// Put sends the request as PUT with the active body.
func (r *Request) Put(ctx context.Context) (*Response, error) {
	return r.do(ctx, MethodPut)
}

// Delete sends the request as DELETE.
func (r *Request) Delete(ctx context.Context) (*Response, error) {
	return r.do(ctx, MethodDelete)
}

// Send dispatches on the stored method.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	return r.do(ctx, r.method)
}

// Get is shorthand for building a Request with default options and sending it as GET.
func Get(ctx context.Context, rawURL string) (*Response, error) {
	r, err := New(rawURL, Options{})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// do runs one exchange. The stored method is only used to pick the verb, so
// the Request keeps its configuration across calls.
func (r *Request) do(ctx context.Context, method Method) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !r.hasURL {
		return nil, ErrNoURL
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if _, err := lookupCharset(r.charset); err != nil {
		return nil, err
	}
	if method.hasBody() {
		if err := r.validateBody(); err != nil {
			return nil, err
		}
	}

	headers := r.effectiveHeaders(method)

	target := r.FullURL()
	start := time.Now()
	r.log.DebugObj("sending request", "request", map[string]any{
		"method":    method,
		"url":       target,
		"body_type": r.bodyType.String(),
	})

	conn, err := r.transport.Open(ctx, target)
	if err != nil {
		return nil, ioFailure("open", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.log.WarnObj("failed to close connection", "error", cerr.Error())
		}
	}()

	if err := conn.SetMethod(string(method)); err != nil {
		return nil, ioFailure("set method", err)
	}
	for _, h := range headers {
		conn.SetHeader(h.Key, h.Value)
	}
	conn.SetOutputEnabled(method.hasBody())

	if method.hasBody() {
		out, err := conn.OutputStream()
		if err != nil {
			return nil, ioFailure("write body", err)
		}
		if err := r.writeBody(out); err != nil {
			return nil, sendFailure("write body", err)
		}
	}

	if err := conn.Send(ctx); err != nil {
		return nil, sendFailure("send", err)
	}

	in, err := conn.InputStream()
	if err != nil {
		return nil, ioFailure("read response", err)
	}
	resp, err := readResponse(in, conn, r.charset)
	if err != nil {
		return nil, err
	}

	r.log.DebugObj("request completed", "response", map[string]any{
		"method":      method,
		"url":         target,
		"status":      resp.StatusCode(),
		"bytes":       len(resp.body),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

// failure keeps configuration errors raised mid-send as they are and wraps
// everything else as an IOError.
func sendFailure(op string, err error) error {
	if errors.Is(err, ErrUnsupportedCharset) || errors.Is(err, ErrUnsupportedBodyType) {
		return err
	}
	return ioFailure(op, err)
}
