package request

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is used when no charset is configured.
const DefaultCharset = "utf-8"

func lookupCharset(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCharset
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, name)
	}
	return enc, nil
}

// ValidateCharset reports ErrUnsupportedCharset for names SetCharset would
// reject. An empty name means DefaultCharset.
func ValidateCharset(name string) error {
	_, err := lookupCharset(name)
	return err
}

// canonicalCharset returns the IANA-style name for name, or name unchanged.
func canonicalCharset(name string) string {
	enc, err := lookupCharset(name)
	if err != nil {
		return name
	}
	if n, err := htmlindex.Name(enc); err == nil {
		return n
	}
	return name
}

func encodeText(s, charset string) ([]byte, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode text as %s: %w", charset, err)
	}
	return b, nil
}

// decodeText is best effort: undecodable input falls back to the raw bytes.
func decodeText(raw []byte, charset string) string {
	enc, err := lookupCharset(charset)
	if err != nil {
		return string(raw)
	}
	b, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
