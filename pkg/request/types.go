package request

import (
	"fmt"
	"strings"
)

// BodyType is the encoding family used for the body of the next POST or PUT.
type BodyType int

const (
	FormData BodyType = iota
	URLEncoded
	Raw
	JSON
	Binary
)

func (b BodyType) String() string {
	switch b {
	case FormData:
		return "form-data"
	case URLEncoded:
		return "x-www-form-urlencoded"
	case Raw:
		return "raw"
	case JSON:
		return "json"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("BodyType(%d)", int(b))
	}
}

// ParseBodyType maps a definition-file name onto a BodyType.
func ParseBodyType(s string) (BodyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "form", "form-data", "form_data", "multipart":
		return FormData, nil
	case "urlencoded", "x-www-form-urlencoded", "encoded":
		return URLEncoded, nil
	case "", "raw", "text":
		return Raw, nil
	case "json":
		return JSON, nil
	case "binary", "octet-stream":
		return Binary, nil
	default:
		return Raw, fmt.Errorf("%w: %q", ErrUnsupportedBodyType, s)
	}
}

// Method is an HTTP verb supported by Request.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// hasBody reports whether the verb writes a request body.
func (m Method) hasBody() bool {
	return m == MethodPost || m == MethodPut
}
