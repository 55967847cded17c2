package request

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-request/pkg/httpclient"
)

const defaultTimeout = 30 * time.Second

// Logger defines the logging surface Request relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, interface{})  {}
func (nopLogger) DebugObj(string, string, interface{}) {}
func (nopLogger) WarnObj(string, string, interface{})  {}
func (nopLogger) ErrorObj(string, string, interface{}) {}

// Options controls the collaborators and defaults of a Request.
type Options struct {
	// Transport defaults to a resty-backed transport.
	Transport httpclient.Transport
	// Charset is used for text fields, raw bodies and response decoding.
	Charset   string
	Logger    Logger
	Timeout   time.Duration
	UserAgent string
}

// Request is a mutable, reusable HTTP request description. A Request must not
// be sent from several goroutines at once.
type Request struct {
	target    targetURL
	hasURL    bool
	method    Method
	headers   map[string]string
	query     *multimap[string]
	bodyType  BodyType
	form      *multimap[FormEntry]
	encoded   *multimap[string]
	raw       strings.Builder
	json      jsonPayload
	binary    bytes.Buffer
	boundary  string
	charset   string
	transport httpclient.Transport
	log       Logger
}

// New builds a Request for rawURL. A URL without a scheme is sent over http.
func New(rawURL string, opts Options) (*Request, error) {
	r := NewEmpty(opts)
	if err := r.SetURL(rawURL); err != nil {
		return nil, err
	}
	return r, nil
}

// NewEmpty builds a Request without a URL; SetURL must be called before sending.
func NewEmpty(opts Options) *Request {
	transport := opts.Transport
	if transport == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		transport = httpclient.NewRestyTransport(timeout, opts.UserAgent)
	}
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	charset := strings.TrimSpace(opts.Charset)
	if charset == "" {
		charset = DefaultCharset
	}

	return &Request{
		method:    MethodGet,
		headers:   make(map[string]string),
		query:     newMultimap[string](),
		bodyType:  Raw,
		form:      newMultimap[FormEntry](),
		encoded:   newMultimap[string](),
		boundary:  strconv.FormatInt(time.Now().UnixNano(), 16),
		charset:   charset,
		transport: transport,
		log:       log,
	}
}

// SetURL replaces the target URL. Any query string is stripped and its pairs
// are appended to the query parameters.
func (r *Request) SetURL(rawURL string) error {
	target, query, err := splitURL(rawURL)
	if err != nil {
		return err
	}
	r.target = target
	r.hasURL = true
	parseQueryInto(query, r.query)
	return nil
}

// URL returns the target URL without query parameters.
func (r *Request) URL() string {
	if !r.hasURL {
		return ""
	}
	return r.target.base + r.target.fragment
}

// FullURL returns the URL that a send would use, query parameters included.
func (r *Request) FullURL() string {
	if !r.hasURL {
		return ""
	}
	u := r.target.base
	if q := encodePairs(r.query); q != "" {
		u += "?" + q
	}
	return u + r.target.fragment
}

// Protocol returns "http" or "https", or "" when no URL is set.
func (r *Request) Protocol() string {
	return r.target.protocol
}

func (r *Request) SetMethod(m Method) error {
	parsed, err := ParseMethod(string(m))
	if err != nil {
		return err
	}
	r.method = parsed
	return nil
}

func (r *Request) Method() Method { return r.method }

// SetCharset changes the charset used for encoding text and decoding responses.
func (r *Request) SetCharset(charset string) error {
	if _, err := lookupCharset(charset); err != nil {
		return err
	}
	r.charset = strings.TrimSpace(charset)
	return nil
}

func (r *Request) Charset() string { return r.charset }

// SetTransport swaps the connection primitive used by subsequent sends.
func (r *Request) SetTransport(t httpclient.Transport) {
	if t != nil {
		r.transport = t
	}
}

// Boundary returns the multipart boundary used by every send of this Request.
func (r *Request) Boundary() string { return r.boundary }

// SetHeader sets a header, replacing any header whose name matches
// case-insensitively, and returns the previous value.
func (r *Request) SetHeader(key, value string) string {
	prev := r.RemoveHeader(key)
	r.headers[key] = value
	return prev
}

// Header returns the value of the header named key, matched case-insensitively.
func (r *Request) Header(key string) string {
	if k, ok := r.headerKey(key); ok {
		return r.headers[k]
	}
	return ""
}

// Headers returns a copy of the explicitly set headers.
func (r *Request) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// RemoveHeader deletes the header named key and returns its value.
func (r *Request) RemoveHeader(key string) string {
	k, ok := r.headerKey(key)
	if !ok {
		return ""
	}
	prev := r.headers[k]
	delete(r.headers, k)
	return prev
}

func (r *Request) headerKey(key string) (string, bool) {
	if _, ok := r.headers[key]; ok {
		return key, true
	}
	for k := range r.headers {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

// Query parameters ---------------------------------------------------------------

func (r *Request) AddQueryParam(key, value string) []string {
	return r.query.add(key, value)
}

func (r *Request) QueryParam(key string) []string {
	return r.query.get(key)
}

func (r *Request) QueryParams() map[string][]string {
	return r.query.snapshot()
}

func (r *Request) RemoveQueryParam(key string) []string {
	return r.query.remove(key)
}

func (r *Request) ClearQueryParams() map[string][]string {
	return r.query.clear()
}

// Multipart form ---------------------------------------------------------------

// AddFormField adds a text field using the request charset and switches the
// body to multipart/form-data.
func (r *Request) AddFormField(key, value string) []FormEntry {
	return r.AddFormFieldCharset(key, value, r.charset)
}

func (r *Request) AddFormFieldCharset(key, value, charset string) []FormEntry {
	r.bodyType = FormData
	return r.form.add(key, FormField{Value: value, Charset: charset})
}

// AddFormRawFile adds a text file part. The file is read at send time.
func (r *Request) AddFormRawFile(key, path string) []FormEntry {
	return r.AddFormRawFileCharset(key, path, r.charset)
}

func (r *Request) AddFormRawFileCharset(key, path, charset string) []FormEntry {
	r.bodyType = FormData
	return r.form.add(key, FormRawFile{Path: path, Charset: charset})
}

// AddFormBinaryFile adds a binary file part. The file is read at send time.
func (r *Request) AddFormBinaryFile(key, path string) []FormEntry {
	r.bodyType = FormData
	return r.form.add(key, FormBinaryFile{Path: path})
}

func (r *Request) FormEntries(key string) []FormEntry {
	return r.form.get(key)
}

func (r *Request) RemoveFormField(key string) []FormEntry {
	return r.form.remove(key)
}

func (r *Request) ClearForm() map[string][]FormEntry {
	return r.form.clear()
}

// URL-encoded form ---------------------------------------------------------------

func (r *Request) AddEncodedField(key, value string) []string {
	r.bodyType = URLEncoded
	return r.encoded.add(key, value)
}

func (r *Request) EncodedField(key string) []string {
	return r.encoded.get(key)
}

func (r *Request) RemoveEncodedField(key string) []string {
	return r.encoded.remove(key)
}

func (r *Request) ClearEncodedFields() map[string][]string {
	return r.encoded.clear()
}

// Raw text ---------------------------------------------------------------

// AddRawData appends s to the raw body and returns the whole raw body.
func (r *Request) AddRawData(s string) string {
	r.bodyType = Raw
	r.raw.WriteString(s)
	return r.raw.String()
}

// AddRawFile appends the file contents, decoded with the request charset.
func (r *Request) AddRawFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return r.raw.String(), ioFailure("read raw file", err)
	}
	return r.AddRawData(decodeText(data, r.charset)), nil
}

func (r *Request) RawData() string { return r.raw.String() }

func (r *Request) ClearRawData() string {
	prev := r.raw.String()
	r.raw.Reset()
	return prev
}

// JSON ---------------------------------------------------------------

// SetJSONObject stages obj as the JSON body, dropping any staged array, and
// returns the previously staged payload.
func (r *Request) SetJSONObject(obj map[string]any) any {
	r.bodyType = JSON
	return r.json.setObject(cloneJSON(obj).(map[string]any))
}

// SetJSONArray stages arr as the JSON body, dropping any staged object, and
// returns the previously staged payload.
func (r *Request) SetJSONArray(arr []any) any {
	r.bodyType = JSON
	return r.json.setArray(cloneJSON(arr).([]any))
}

// AddJSONString parses s as an object, then as an array. On failure nothing
// changes and ErrInvalidJSON is returned.
func (r *Request) AddJSONString(s string) (any, error) {
	if obj, err := parseJSONObject(s); err == nil {
		r.bodyType = JSON
		return r.json.setObject(obj), nil
	}
	if arr, err := parseJSONArray(s); err == nil {
		r.bodyType = JSON
		return r.json.setArray(arr), nil
	}
	return nil, ErrInvalidJSON
}

// JSONPayload returns a copy of the staged object or array, or nil.
func (r *Request) JSONPayload() any {
	return r.json.value()
}

func (r *Request) ClearJSON() any {
	return r.json.clear()
}

// Binary ---------------------------------------------------------------

// AddBinaryData appends b and returns a copy of the whole binary body.
func (r *Request) AddBinaryData(b []byte) []byte {
	r.bodyType = Binary
	r.binary.Write(b)
	return r.BinaryData()
}

func (r *Request) AddBinaryFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return r.BinaryData(), ioFailure("read binary file", err)
	}
	return r.AddBinaryData(data), nil
}

func (r *Request) BinaryData() []byte {
	return append([]byte(nil), r.binary.Bytes()...)
}

func (r *Request) ClearBinaryData() []byte {
	prev := r.BinaryData()
	r.binary.Reset()
	return prev
}

// Body type selection ---------------------------------------------------------------

func (r *Request) UseForm()        { r.bodyType = FormData }
func (r *Request) UseEncodedForm() { r.bodyType = URLEncoded }
func (r *Request) UseRaw()         { r.bodyType = Raw }
func (r *Request) UseJSON()        { r.bodyType = JSON }
func (r *Request) UseBinary()      { r.bodyType = Binary }

func (r *Request) BodyType() BodyType { return r.bodyType }

func (r *Request) String() string {
	return fmt.Sprintf("%s %s (%s)", r.method, r.FullURL(), r.bodyType)
}
