package definitions

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samvad-hq/samvad-request/pkg/request"
)

func TestBuildGETWithQueryAndHeaders(t *testing.T) {
	def := sanitizeDefinition(Definition{
		ID:      "search",
		URL:     "https://example.com/search?lang=en",
		Headers: map[string]string{"X-Key": "k"},
		Query:   []Pair{{Key: "q", Value: "go lang"}, {Key: "lang", Value: "bn"}},
	}, "")

	req, err := Build(def, request.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.Method() != request.MethodGet {
		t.Fatalf("method = %s", req.Method())
	}
	if got := req.FullURL(); got != "https://example.com/search?lang=en&lang=bn&q=go%20lang" {
		t.Fatalf("FullURL = %q", got)
	}
	if req.Header("x-key") != "k" {
		t.Fatalf("header missing: %v", req.Headers())
	}
}

func TestBuildJSONBodyFromYAMLValue(t *testing.T) {
	def := sanitizeDefinition(Definition{
		ID:     "create",
		Method: "post",
		URL:    "https://example.com/items",
		Body: &Body{
			Type: "json",
			JSON: map[string]any{"name": "widget", "tags": []any{"a", "b"}},
		},
	}, "")

	req, err := Build(def, request.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.BodyType() != request.JSON {
		t.Fatalf("body type = %s", req.BodyType())
	}
	obj, ok := req.JSONPayload().(map[string]any)
	if !ok || obj["name"] != "widget" {
		t.Fatalf("payload = %#v", req.JSONPayload())
	}
}

func TestBuildRejectsInvalidJSONText(t *testing.T) {
	def := Definition{ID: "bad", Method: "POST", URL: "https://example.com", Body: &Body{Type: "json", JSON: "nope"}}
	if _, err := Build(def, request.Options{}); !errors.Is(err, request.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestBuildEncodedAndForm(t *testing.T) {
	encoded := Definition{
		ID: "login", Method: "POST", URL: "https://example.com/login",
		Body: &Body{Type: "urlencoded", Fields: []Pair{{Key: "user", Value: "a"}, {Key: "user", Value: "b"}}},
	}
	req, err := Build(encoded, request.Options{})
	if err != nil {
		t.Fatalf("Build encoded: %v", err)
	}
	if req.BodyType() != request.URLEncoded || !reflect.DeepEqual(req.EncodedField("user"), []string{"a", "b"}) {
		t.Fatalf("encoded body not staged: %s %v", req.BodyType(), req.EncodedField("user"))
	}

	form := Definition{
		ID: "upload", Method: "PUT", URL: "https://example.com/upload",
		Body: &Body{Type: "form", Form: []FormPart{
			{Name: "title", Value: "x"},
			{Name: "title", Value: "y", Charset: "iso-8859-1"},
			{Name: "notes", File: "notes.txt"},
			{Name: "blob", File: "blob.bin", Binary: true},
		}},
	}
	req, err = Build(form, request.Options{})
	if err != nil {
		t.Fatalf("Build form: %v", err)
	}
	titles := req.FormEntries("title")
	if len(titles) != 2 || titles[1] != (request.FormField{Value: "y", Charset: "iso-8859-1"}) {
		t.Fatalf("title entries = %#v", titles)
	}
	if _, ok := req.FormEntries("notes")[0].(request.FormRawFile); !ok {
		t.Fatalf("notes should be a raw file entry")
	}
	if _, ok := req.FormEntries("blob")[0].(request.FormBinaryFile); !ok {
		t.Fatalf("blob should be a binary file entry")
	}
}

func TestBuildRawAndBinaryReadFiles(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "body.txt")
	binPath := filepath.Join(dir, "body.bin")
	if err := os.WriteFile(rawPath, []byte(" world"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binPath, []byte{9, 8}, 0o644); err != nil {
		t.Fatal(err)
	}

	raw := Definition{ID: "raw", Method: "POST", URL: "https://example.com", Body: &Body{Raw: "hello", RawFile: rawPath}}
	req, err := Build(raw, request.Options{})
	if err != nil {
		t.Fatalf("Build raw: %v", err)
	}
	if req.RawData() != "hello world" {
		t.Fatalf("raw data = %q", req.RawData())
	}

	bin := Definition{ID: "bin", Method: "POST", URL: "https://example.com", Body: &Body{Type: "binary", Files: []string{binPath}}}
	req, err = Build(bin, request.Options{})
	if err != nil {
		t.Fatalf("Build binary: %v", err)
	}
	if !reflect.DeepEqual(req.BinaryData(), []byte{9, 8}) {
		t.Fatalf("binary data = %v", req.BinaryData())
	}

	missing := Definition{ID: "gone", Method: "POST", URL: "https://example.com", Body: &Body{Type: "binary", Files: []string{filepath.Join(dir, "gone")}}}
	if _, err := Build(missing, request.Options{}); !request.IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestBuildUsesDefinitionCharset(t *testing.T) {
	def := Definition{ID: "cs", Method: "GET", URL: "https://example.com", Charset: "iso-8859-1"}
	req, err := Build(def, request.Options{Charset: "utf-8"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Charset() != "iso-8859-1" {
		t.Fatalf("charset = %q", req.Charset())
	}
}

func TestBuildExplicitHeaderBeatsShorthandAnyCase(t *testing.T) {
	def := sanitizeDefinition(Definition{
		ID:      "ua",
		URL:     "https://example.com/",
		Headers: map[string]string{"user-agent": "explicit", "ACCEPT": "text/csv"},
		Config: map[string]any{
			ConfigUserAgentKey:      "shorthand",
			ConfigAcceptKey:         "text/html",
			ConfigAcceptLanguageKey: "bn",
		},
	}, "")

	// Map iteration order varies between runs; repeat to cover it.
	for i := 0; i < 50; i++ {
		req, err := Build(def, request.Options{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if got := req.Header("User-Agent"); got != "explicit" {
			t.Fatalf("run %d: User-Agent = %q", i, got)
		}
		if got := req.Header("Accept"); got != "text/csv" {
			t.Fatalf("run %d: Accept = %q", i, got)
		}
		if got := req.Header("Accept-Language"); got != "bn" {
			t.Fatalf("run %d: Accept-Language = %q", i, got)
		}
	}

	got := Headers(def)
	if _, dup := got["User-Agent"]; dup || len(got) != 3 {
		t.Fatalf("shorthand should be dropped when an explicit header matches: %v", got)
	}
}
