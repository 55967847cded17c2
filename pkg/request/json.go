package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

var (
	errNotJSONObject = errors.New("not a json object")
	errNotJSONArray  = errors.New("not a json array")
)

// jsonPayload holds at most one JSON root value: an object or an array.
type jsonPayload struct {
	object map[string]any
	array  []any
}

// value returns a deep copy of the staged root, or nil.
func (p *jsonPayload) value() any {
	switch {
	case p.object != nil:
		return cloneJSON(p.object)
	case p.array != nil:
		return cloneJSON(p.array)
	default:
		return nil
	}
}

func (p *jsonPayload) setObject(obj map[string]any) any {
	prev := p.value()
	if obj == nil {
		obj = map[string]any{}
	}
	p.object, p.array = obj, nil
	return prev
}

func (p *jsonPayload) setArray(arr []any) any {
	prev := p.value()
	if arr == nil {
		arr = []any{}
	}
	p.object, p.array = nil, arr
	return prev
}

func (p *jsonPayload) clear() any {
	prev := p.value()
	p.object, p.array = nil, nil
	return prev
}

// encode serializes the staged root; an empty payload encodes as "".
func (p *jsonPayload) encode() ([]byte, error) {
	switch {
	case p.object != nil:
		return marshalJSON(p.object)
	case p.array != nil:
		return marshalJSON(p.array)
	default:
		return nil, nil
	}
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// parseJSONObject strictly parses text as a single JSON object.
func parseJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errNotJSONObject
	}
	var obj map[string]any
	if err := decodeStrict(trimmed, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseJSONArray strictly parses text as a single JSON array.
func parseJSONArray(text string) ([]any, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errNotJSONArray
	}
	var arr []any
	if err := decodeStrict(trimmed, &arr); err != nil {
		return nil, err
	}
	if arr == nil {
		arr = []any{}
	}
	return arr, nil
}

func decodeStrict(text string, v any) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("json contains trailing data")
	}
	return nil
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneJSON(val)
		}
		return out
	default:
		return v
	}
}
