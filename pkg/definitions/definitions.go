// Package definitions loads named request definitions (YAML/JSON) and turns
// them into ready-to-send requests.
package definitions

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-request/internal/configfile"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

// Definition describes one request the runner executes.
type Definition struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Method         string            `json:"method" yaml:"method"`
	URL            string            `json:"url" yaml:"url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Query          []Pair            `json:"query" yaml:"query"`
	Charset        string            `json:"charset" yaml:"charset"`
	Body           *Body             `json:"body" yaml:"body"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
	ExpectStatus   int               `json:"expect_status" yaml:"expect_status"`
	SaveBody       bool              `json:"save_body" yaml:"save_body"`
	Config         map[string]any    `json:"config" yaml:"config"`
}

// Pair is an ordered key/value entry.
type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Body selects the body type and carries the data staged for it.
type Body struct {
	Type    string     `json:"type" yaml:"type"`
	Raw     string     `json:"raw" yaml:"raw"`
	RawFile string     `json:"raw_file" yaml:"raw_file"`
	JSON    any        `json:"json" yaml:"json"`
	Fields  []Pair     `json:"fields" yaml:"fields"`
	Form    []FormPart `json:"form" yaml:"form"`
	Files   []string   `json:"files" yaml:"files"`
}

// FormPart is one multipart entry: a text field, a text file or a binary file.
type FormPart struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	File    string `json:"file" yaml:"file"`
	Binary  bool   `json:"binary" yaml:"binary"`
	Charset string `json:"charset" yaml:"charset"`
}

type definitionsFile struct {
	Definitions []Definition `json:"requests" yaml:"requests"`
}

const defaultRequestDelayMs = 0

// Registry materializes request definitions loaded from config files.
type Registry struct {
	mu    sync.RWMutex
	defs  []Definition
	index map[string]Definition
}

// LoadRegistry loads the definitions registry from a YAML/JSON file. Relative
// file references inside it resolve against the file's own directory.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	parsed, err := configfile.Load[definitionsFile](path, "requests")
	if err != nil {
		return nil, err
	}
	if len(parsed.Definitions) == 0 {
		return nil, errors.New("requests file contains no requests entries")
	}

	base := filepath.Dir(path)
	reg := &Registry{
		defs:  make([]Definition, len(parsed.Definitions)),
		index: make(map[string]Definition, len(parsed.Definitions)),
	}
	for i := range parsed.Definitions {
		def := sanitizeDefinition(parsed.Definitions[i], base)
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		if _, exists := reg.index[def.ID]; exists {
			return nil, fmt.Errorf("duplicate request id %q", def.ID)
		}
		reg.defs[i] = def
		reg.index[def.ID] = def
	}
	return reg, nil
}

// sanitizeDefinition trims fields and resolves file paths relative to base.
func sanitizeDefinition(d Definition, base string) Definition {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Method = strings.ToUpper(strings.TrimSpace(d.Method))
	if d.Method == "" {
		d.Method = string(request.MethodGet)
	}
	d.URL = strings.TrimSpace(d.URL)
	d.Charset = strings.TrimSpace(d.Charset)
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.Config == nil {
		d.Config = map[string]any{}
	}
	if d.RequestDelayMs < 0 {
		d.RequestDelayMs = defaultRequestDelayMs
	}

	if d.Body != nil {
		b := *d.Body
		b.Type = strings.TrimSpace(b.Type)
		b.RawFile = resolvePath(base, b.RawFile)
		b.Form = append([]FormPart(nil), b.Form...)
		for i := range b.Form {
			b.Form[i].Name = strings.TrimSpace(b.Form[i].Name)
			b.Form[i].File = resolvePath(base, b.Form[i].File)
			b.Form[i].Charset = strings.TrimSpace(b.Form[i].Charset)
		}
		b.Files = append([]string(nil), b.Files...)
		for i := range b.Files {
			b.Files[i] = resolvePath(base, b.Files[i])
		}
		d.Body = &b
	}
	return d
}

func resolvePath(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func validateDefinition(d Definition) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	if d.URL == "" {
		return fmt.Errorf("url is required for request %q", d.ID)
	}
	if _, err := request.ParseMethod(d.Method); err != nil {
		return fmt.Errorf("request %q: %w", d.ID, err)
	}
	if d.Body == nil {
		return nil
	}
	if _, err := request.ParseBodyType(d.Body.Type); err != nil {
		return fmt.Errorf("request %q: %w", d.ID, err)
	}
	for i, part := range d.Body.Form {
		if part.Name == "" {
			return fmt.Errorf("request %q: body.form[%d] needs a name", d.ID, i)
		}
		if part.Binary && part.File == "" {
			return fmt.Errorf("request %q: body.form[%d] is binary but has no file", d.ID, i)
		}
	}
	return nil
}

// RequestDelay returns the pause to take after this definition runs.
func (d Definition) RequestDelay() time.Duration {
	if d.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(d.RequestDelayMs) * time.Millisecond
}

// ByID returns the definition with the given id.
func (r *Registry) ByID(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.index[id]
	return d, ok
}

// All returns all definitions in file order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}
