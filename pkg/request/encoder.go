package request

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const headerContentType = "Content-Type"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// defaultContentType returns the Content-Type implied by the active body type.
func (r *Request) defaultContentType() string {
	switch r.bodyType {
	case FormData:
		return "multipart/form-data; boundary=" + r.boundary
	case URLEncoded:
		return "application/x-www-form-urlencoded"
	case JSON:
		return "application/json"
	case Binary:
		return genericBinaryType
	default:
		return "text/plain"
	}
}

// header is one name/value pair in the order it is applied to a connection.
type header struct {
	Key   string
	Value string
}

// effectiveHeaders merges explicit headers with the body default. The default
// Content-Type is only added for methods with a body and only when no explicit
// header carries that name.
func (r *Request) effectiveHeaders(method Method) []header {
	keys := make([]string, 0, len(r.headers))
	for k := range r.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]header, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, header{Key: k, Value: r.headers[k]})
	}
	if method.hasBody() {
		if _, ok := r.headerKey(headerContentType); !ok {
			out = append(out, header{Key: headerContentType, Value: r.defaultContentType()})
		}
	}
	return out
}

// validateBody reports configuration problems in the staged body before any
// connection is opened.
func (r *Request) validateBody() error {
	switch r.bodyType {
	case FormData:
		return r.form.each(func(key string, entry FormEntry) error {
			switch e := entry.(type) {
			case FormField:
				_, err := lookupCharset(e.Charset)
				return err
			case FormRawFile:
				_, err := lookupCharset(e.Charset)
				return err
			case FormBinaryFile:
				return nil
			default:
				return fmt.Errorf("%w: form entry %T for %q", ErrUnsupportedBodyType, entry, key)
			}
		})
	case Raw:
		_, err := lookupCharset(r.charset)
		return err
	case URLEncoded, JSON, Binary:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedBodyType, r.bodyType)
	}
}

// writeBody encodes the active body representation to w.
func (r *Request) writeBody(w io.Writer) error {
	switch r.bodyType {
	case FormData:
		return r.writeMultipart(w)
	case URLEncoded:
		return writeAll(w, []byte(encodePairs(r.encoded)))
	case Raw:
		b, err := encodeText(r.raw.String(), r.charset)
		if err != nil {
			return err
		}
		return writeAll(w, b)
	case JSON:
		b, err := r.json.encode()
		if err != nil {
			return fmt.Errorf("encode json body: %w", err)
		}
		return writeAll(w, b)
	case Binary:
		return writeAll(w, r.binary.Bytes())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedBodyType, r.bodyType)
	}
}

func (r *Request) writeMultipart(w io.Writer) error {
	if r.form.size() == 0 {
		return nil
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(r.boundary); err != nil {
		return fmt.Errorf("multipart boundary: %w", err)
	}

	err := r.form.each(func(key string, entry FormEntry) error {
		h, payload, err := formPart(key, entry)
		if err != nil {
			return err
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			return ioFailure("write body", err)
		}
		return writeAll(part, payload)
	})
	if err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return ioFailure("write body", err)
	}
	return nil
}

// formPart builds the part headers and payload for one form entry.
func formPart(key string, entry FormEntry) (textproto.MIMEHeader, []byte, error) {
	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(key))

	switch e := entry.(type) {
	case FormField:
		payload, err := encodeText(e.Value, e.Charset)
		if err != nil {
			return nil, nil, err
		}
		h.Set("Content-Disposition", disposition)
		h.Set(headerContentType, "text/plain; charset="+canonicalCharset(e.Charset))
		return h, payload, nil
	case FormRawFile:
		payload, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, nil, ioFailure("read form file", err)
		}
		h.Set("Content-Disposition", withFilename(disposition, e.Path))
		h.Set(headerContentType, "text/plain; charset="+canonicalCharset(e.Charset))
		return h, payload, nil
	case FormBinaryFile:
		payload, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, nil, ioFailure("read form file", err)
		}
		h.Set("Content-Disposition", withFilename(disposition, e.Path))
		h.Set(headerContentType, guessContentType(e.Path))
		h.Set("Content-Transfer-Encoding", "binary")
		return h, payload, nil
	default:
		return nil, nil, fmt.Errorf("%w: form entry %T for %q", ErrUnsupportedBodyType, entry, key)
	}
}

func withFilename(disposition, path string) string {
	return fmt.Sprintf(`%s; filename="%s"`, disposition, quoteEscaper.Replace(filepath.Base(path)))
}

func writeAll(w io.Writer, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return ioFailure("write body", err)
	}
	return nil
}
