package request

import (
	"errors"
	"fmt"
)

// Configuration errors. These are raised before any network I/O and leave the
// Request untouched.
var (
	ErrNoURL               = errors.New("request: no url set")
	ErrInvalidURL          = errors.New("request: invalid url")
	ErrUnsupportedProtocol = errors.New("request: unsupported protocol")
	ErrUnsupportedMethod   = errors.New("request: unsupported method")
	ErrUnsupportedBodyType = errors.New("request: unsupported body type")
	ErrUnsupportedCharset  = errors.New("request: unsupported charset")
)

// ErrInvalidJSON is returned when staged JSON text is neither an object nor an array.
var ErrInvalidJSON = errors.New("request: could not be parsed into a JSON object nor a JSON array")

// IOError reports a failed transport or file operation during a send.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("request: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

func ioFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Err: err}
}
