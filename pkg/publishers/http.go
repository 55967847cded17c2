package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-request/pkg/httpclient"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

// httpPublisher posts events as JSON through pkg/request.
type httpPublisher struct {
	id        string
	method    request.Method
	url       string
	headers   map[string]string
	transport httpclient.Transport
	log       Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	rawMethod := cfg.HTTP.Method
	if strings.TrimSpace(rawMethod) == "" {
		rawMethod = httpDefaultMethod
	}
	method, err := request.ParseMethod(rawMethod)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}

	return &httpPublisher{
		id:        cfg.ID,
		method:    method,
		url:       cfg.HTTP.URL,
		headers:   cfg.HTTP.Headers,
		transport: httpclient.NewRestyTransport(timeout, "samvad-request-publisher"),
		log:       ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req, err := request.New(h.url, request.Options{Transport: h.transport, Logger: h.log})
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if err := req.SetMethod(h.method); err != nil {
		return err
	}
	for k, v := range h.headers {
		req.SetHeader(k, v)
	}

	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}
	if _, err := req.AddJSONString(string(payload)); err != nil {
		return fmt.Errorf("stage event body: %w", err)
	}

	resp, err := req.Send(ctx)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Bytes()))
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
