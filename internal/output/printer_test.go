package output

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

func fetch(t *testing.T, contentType, body string, status int) *request.Response {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Trace", "abc")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	resp, err := request.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return resp
}

func TestPrinter_PrintStatusLine(t *testing.T) {
	var buffer strings.Builder
	printer := NewPrinter(&buffer, Options{EnableColor: false})

	if err := printer.PrintStatusLine("HTTP/1.1 404 Not Found", 404); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expected := "HTTP/1.1 404 Not Found\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%q, actual=%q", expected, buffer.String())
	}
}

func TestPrinter_PrintHeaderSkipsStatusEntry(t *testing.T) {
	var buffer strings.Builder
	printer := NewPrinter(&buffer, Options{})

	header := map[string][]string{
		"":             {"HTTP/1.1 200 OK"},
		"X-B":          {"2"},
		"Content-Type": {"text/plain"},
		"X-A":          {"1", "one"},
	}
	if err := printer.PrintHeader(header); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expected := "Content-Type: text/plain\nX-A: 1\nX-A: one\nX-B: 2\n\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%q, actual=%q", expected, buffer.String())
	}
}

func TestPrinter_PrintResponseIndentsJSON(t *testing.T) {
	resp := fetch(t, "application/json", `{"b":[1,2],"a":"<x>"}`, http.StatusOK)

	var buffer strings.Builder
	printer := NewPrinter(&buffer, Options{PrintHeaders: true})
	if err := printer.PrintResponse(resp); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	out := buffer.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\n") {
		t.Errorf("missing status line: %q", out)
	}
	if !strings.Contains(out, "X-Trace: abc\n") {
		t.Errorf("missing header: %q", out)
	}
	body := "{\n    \"a\": \"<x>\",\n    \"b\": [\n        1,\n        2\n    ]\n}\n"
	if !strings.HasSuffix(out, body) {
		t.Errorf("unexpected body: %q", out)
	}
}

func TestPrinter_PrintBodyOnlyForPlainText(t *testing.T) {
	resp := fetch(t, "text/plain", "hello", http.StatusOK)

	var buffer strings.Builder
	if err := NewPrinter(&buffer, Options{}).PrintResponse(resp); err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if buffer.String() != "hello\n" {
		t.Errorf("unexpected output: %q", buffer.String())
	}
}

func TestSummary(t *testing.T) {
	resp := fetch(t, "text/plain", strings.Repeat("x", 2048), http.StatusCreated)

	got := Summary(resp, 1500*time.Microsecond)
	expected := "201 " + bytefmt.ByteSize(2048) + " in 2ms"
	if got != expected {
		t.Errorf("unexpected summary: expected=%q, actual=%q", expected, got)
	}
}

func TestIsTerminalNil(t *testing.T) {
	if IsTerminal(nil) {
		t.Errorf("nil file is not a terminal")
	}
}
