// Package configfile decodes the YAML/JSON registry files (requests and
// publishers) by extension.
package configfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type decoder struct {
	name string
	exts []string
	fn   func([]byte, any) error
}

var decoders = []decoder{
	{name: "yaml", exts: []string{".yaml", ".yml"}, fn: yaml.Unmarshal},
	{name: "json", exts: []string{".json"}, fn: json.Unmarshal},
}

// Load reads path and decodes it into a T. The extension picks the format;
// a file without a known extension is tried as YAML, then JSON. kind names
// the file in errors ("requests", "publishers").
func Load[T any](path, kind string) (T, error) {
	var zero T
	path = strings.TrimSpace(path)
	if path == "" {
		return zero, fmt.Errorf("%s file path is empty", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s file: %w", kind, err)
	}
	return Decode[T](raw, filepath.Ext(path), kind)
}

// Decode decodes raw using the decoder registered for ext.
func Decode[T any](raw []byte, ext, kind string) (T, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	var errs []error
	for _, d := range decoders {
		if ext != "" && !d.handles(ext) {
			continue
		}
		var out T
		if err := d.fn(raw, &out); err != nil {
			errs = append(errs, fmt.Errorf("decode %s %s: %w", d.name, kind, err))
			continue
		}
		return out, nil
	}

	var zero T
	if len(errs) == 0 {
		return zero, fmt.Errorf("%s file format not recognized (expected YAML or JSON)", kind)
	}
	return zero, errors.Join(errs...)
}

func (d decoder) handles(ext string) bool {
	for _, e := range d.exts {
		if e == ext {
			return true
		}
	}
	return false
}
