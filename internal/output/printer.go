package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

// Options controls what a Printer writes.
type Options struct {
	EnableColor  bool
	PrintHeaders bool
}

// Printer writes a Response the way a terminal user expects to read it.
type Printer struct {
	writer        io.Writer
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	opts          Options
}

type HeaderPalette struct {
	Proto          aurora.Color
	Success        aurora.Color
	Redirect       aurora.Color
	Failure        aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Proto:          aurora.BlueFg,
	Success:        aurora.GreenFg | aurora.BoldFm,
	Redirect:       aurora.BrownFg | aurora.BoldFm,
	Failure:        aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.GrayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.GrayFg,
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	return &Printer{
		writer:        w,
		aurora:        aurora.NewAurora(opts.EnableColor),
		headerPalette: &defaultHeaderPalette,
		opts:          opts,
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintResponse writes the status line and headers (when enabled) followed
// by the body.
func (p *Printer) PrintResponse(resp *request.Response) error {
	if p.opts.PrintHeaders {
		if err := p.PrintStatusLine(resp.StatusLine(), resp.StatusCode()); err != nil {
			return err
		}
		if err := p.PrintHeader(resp.Header()); err != nil {
			return err
		}
	}
	return p.PrintBody(resp)
}

func (p *Printer) PrintStatusLine(line string, status int) error {
	if line == "" {
		return nil
	}
	proto, rest, _ := strings.Cut(line, " ")
	color := p.headerPalette.Success
	switch {
	case status >= 400:
		color = p.headerPalette.Failure
	case status >= 300:
		color = p.headerPalette.Redirect
	}
	_, err := fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(rest, color))
	return err
}

// PrintHeader writes header fields sorted by name, skipping the status line entry.
func (p *Printer) PrintHeader(header map[string][]string) error {
	names := make([]string, 0, len(header))
	for name := range header {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range header[name] {
			if _, err := fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(p.writer)
	return err
}

// PrintBody indents JSON bodies and writes every other body as decoded text.
func (p *Printer) PrintBody(resp *request.Response) error {
	var v any
	switch {
	case resp.IsJSONObject():
		v = resp.JSONObject()
	case resp.IsJSONArray():
		v = resp.JSONArray()
	default:
		text := resp.Text()
		if text == "" {
			return nil
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := io.WriteString(p.writer, text)
		return err
	}

	encoder := json.NewEncoder(p.writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// Summary is a one-line description of the exchange: status, size and time.
func Summary(resp *request.Response, elapsed time.Duration) string {
	return fmt.Sprintf("%d %s in %s", resp.StatusCode(), bytefmt.ByteSize(uint64(resp.Size())), elapsed.Round(time.Millisecond))
}
