package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-request/pkg/httpclient"
)

func TestGetSkipsBodyPhase(t *testing.T) {
	conn := newFakeConn(200, `{"ok":true}`)
	r, tr := newFakeRequest(t, "http://example.com/api?q=go", conn)
	r.AddRawData("ignored for GET")
	r.SetHeader("Accept", "application/json")

	resp, err := r.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.opened[0] != "http://example.com/api?q=go" {
		t.Fatalf("opened %q", tr.opened[0])
	}
	if conn.method != "GET" || conn.output || conn.written.Len() != 0 {
		t.Fatalf("method=%s output=%v written=%q", conn.method, conn.output, conn.written.String())
	}
	if _, ok := conn.headers["Content-Type"]; ok {
		t.Fatalf("GET should not carry a default content type")
	}
	if conn.headers["Accept"] != "application/json" {
		t.Fatalf("explicit header missing: %v", conn.headers)
	}
	if !resp.IsJSONObject() || resp.StatusCode() != 200 {
		t.Fatalf("unexpected response %v", resp)
	}
	if conn.closed != 1 {
		t.Fatalf("close called %d times", conn.closed)
	}
}

func TestPostWritesActiveBody(t *testing.T) {
	conn := newFakeConn(201, "created")
	r, _ := newFakeRequest(t, "http://example.com/items", conn)
	r.AddEncodedField("name", "a b")
	r.AddRawData("raw wins")

	if _, err := r.Post(context.Background()); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if conn.method != "POST" || !conn.output {
		t.Fatalf("method=%s output=%v", conn.method, conn.output)
	}
	if conn.written.String() != "raw wins" {
		t.Fatalf("body = %q", conn.written.String())
	}
	if conn.headers["Content-Type"] != "text/plain" {
		t.Fatalf("content type = %q", conn.headers["Content-Type"])
	}
	if r.Method() != MethodGet {
		t.Fatalf("verb call changed stored method to %s", r.Method())
	}
}

func TestSendUsesStoredMethod(t *testing.T) {
	conn := newFakeConn(200, "")
	r, _ := newFakeRequest(t, "http://example.com", conn)
	if err := r.SetMethod(MethodPut); err != nil {
		t.Fatal(err)
	}
	r.SetJSONObject(map[string]any{"a": "b"})

	if _, err := r.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if conn.method != "PUT" || conn.written.String() != `{"a":"b"}` {
		t.Fatalf("method=%s body=%q", conn.method, conn.written.String())
	}
	if conn.headers["Content-Type"] != "application/json" {
		t.Fatalf("content type = %q", conn.headers["Content-Type"])
	}
}

func TestDeleteSkipsBodyPhase(t *testing.T) {
	conn := newFakeConn(204, "")
	r, _ := newFakeRequest(t, "http://example.com/items/1", conn)
	r.AddBinaryData([]byte("x"))

	if _, err := r.Delete(context.Background()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if conn.method != "DELETE" || conn.output {
		t.Fatalf("method=%s output=%v", conn.method, conn.output)
	}
}

func TestWriteFailureStillClosesOnce(t *testing.T) {
	conn := newFakeConn(200, "")
	conn.writeErr = errBrokenPipe
	r, _ := newFakeRequest(t, "http://example.com", conn)
	r.AddBinaryData([]byte("payload"))

	_, err := r.Post(context.Background())
	if !IsIOError(err) || !errors.Is(err, errBrokenPipe) {
		t.Fatalf("expected IOError wrapping broken pipe, got %v", err)
	}
	if conn.sent {
		t.Fatalf("request should not have been sent")
	}
	if conn.closed != 1 {
		t.Fatalf("close called %d times, want 1", conn.closed)
	}

	// The request stays usable after a failed attempt.
	conn.writeErr = nil
	if _, err := r.Post(context.Background()); err != nil {
		t.Fatalf("retry Post: %v", err)
	}
	if conn.closed != 2 {
		t.Fatalf("close called %d times after retry, want 2", conn.closed)
	}
}

func TestSendFailureClosesConnection(t *testing.T) {
	conn := newFakeConn(0, "")
	conn.sendErr = errors.New("connection refused")
	r, _ := newFakeRequest(t, "http://example.com", conn)

	_, err := r.Get(context.Background())
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "send" {
		t.Fatalf("expected send IOError, got %v", err)
	}
	if conn.closed != 1 {
		t.Fatalf("close called %d times", conn.closed)
	}
}

func TestMissingFileFailsAfterOpenAndCloses(t *testing.T) {
	conn := newFakeConn(200, "")
	r, _ := newFakeRequest(t, "http://example.com", conn)
	r.AddFormRawFile("doc", "/definitely/not/here.txt")

	_, err := r.Post(context.Background())
	if !IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if conn.closed != 1 {
		t.Fatalf("close called %d times", conn.closed)
	}
}

func TestConfigurationErrorsPrecedeIO(t *testing.T) {
	tr := &fakeTransport{conn: newFakeConn(200, "")}

	empty := NewEmpty(Options{Transport: tr})
	if _, err := empty.Get(context.Background()); !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}

	r, _ := New("http://example.com", Options{Transport: tr})
	r.AddFormFieldCharset("k", "v", "not-a-charset")
	if _, err := r.Post(context.Background()); !errors.Is(err, ErrUnsupportedCharset) {
		t.Fatalf("expected ErrUnsupportedCharset, got %v", err)
	}
	if len(tr.opened) != 0 {
		t.Fatalf("transport opened despite configuration error: %v", tr.opened)
	}
}

func TestOpenFailureIsIOError(t *testing.T) {
	tr := &fakeTransport{openErr: errors.New("dial tcp: refused")}
	r, err := New("http://example.com", Options{Transport: tr})
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Get(context.Background())
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "open" {
		t.Fatalf("expected open IOError, got %v", err)
	}
}

func TestExplicitContentTypeWins(t *testing.T) {
	conn := newFakeConn(200, "")
	r, _ := newFakeRequest(t, "http://example.com", conn)
	r.SetHeader("content-type", "application/vnd.custom+json")
	r.SetJSONArray([]any{1})

	if _, err := r.Post(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := conn.headers["Content-Type"]; ok {
		t.Fatalf("default content type applied: %v", conn.headers)
	}
	if conn.headers["content-type"] != "application/vnd.custom+json" {
		t.Fatalf("explicit header lost: %v", conn.headers)
	}
}

func TestSendOverRestyTransport(t *testing.T) {
	var gotMethod, gotType, gotBody, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `[{"id":1}]`)
	}))
	defer srv.Close()

	r, err := New(srv.URL+"/submit?tag=a b", Options{
		Transport: httpclient.NewRestyTransport(5*time.Second, "request-test"),
	})
	if err != nil {
		t.Fatal(err)
	}
	r.AddEncodedField("k", "v 1")

	resp, err := r.Post(context.Background())
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotMethod != http.MethodPost || gotType != "application/x-www-form-urlencoded" {
		t.Fatalf("method=%s type=%s", gotMethod, gotType)
	}
	if gotBody != "k=v%201" || gotQuery != "tag=a%20b" {
		t.Fatalf("body=%q query=%q", gotBody, gotQuery)
	}
	if resp.StatusCode() != http.StatusAccepted || !resp.IsJSONArray() {
		t.Fatalf("status=%d array=%v", resp.StatusCode(), resp.IsJSONArray())
	}
	if !strings.Contains(resp.StatusLine(), "202") {
		t.Fatalf("status line = %q", resp.StatusLine())
	}
	if resp.Date() == 0 {
		t.Fatalf("expected server date")
	}
}

func TestPackageGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html><head><title>t</title></head></html>")
	}))
	defer srv.Close()

	resp, err := Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Meta().Title != "t" {
		t.Fatalf("title = %q", resp.Meta().Title)
	}

	if _, err := Get(context.Background(), "gopher://example.com"); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Fatalf("expected ErrUnsupportedProtocol, got %v", err)
	}
}
