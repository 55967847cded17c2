package cli

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

var (
	reMethod          = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderFieldName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
)

// ItemKind classifies a positional request item.
type ItemKind int

const (
	unknownItem ItemKind = iota
	HeaderItem           // Name:Value
	QueryItem            // name==value
	FieldItem            // name=value
	FileItem             // name@path
)

// Item is one parsed request item.
type Item struct {
	Kind  ItemKind
	Name  string
	Value string
}

// BodyMode selects how field and file items are encoded.
type BodyMode int

const (
	EncodedBody BodyMode = iota
	MultipartBody
	JSONBody
	RawBody
	BinaryBody
)

// Options are the parsed command-line flags.
type Options struct {
	JSON      bool
	Multipart bool
	Data      string
	Binary    string
	Output    string
	Charset   string
	Verbose   bool
	Timeout   string
}

// Invocation is a fully parsed command line, ready to be built into a Request.
type Invocation struct {
	Method  request.Method
	URL     string
	Items   []Item
	Mode    BodyMode
	Options Options
}

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

// ParseArgs interprets "[METHOD] URL [ITEM...]". Without a METHOD the verb is
// POST when any body is given, GET otherwise.
func ParseArgs(args []string, opts Options) (*Invocation, error) {
	var argMethod, argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	mode, err := determineBodyMode(opts)
	if err != nil {
		return nil, err
	}
	inv := &Invocation{URL: argURL, Mode: mode, Options: opts}

	hasBodyItem := false
	for _, arg := range argItems {
		item, err := parseItem(arg)
		if err != nil {
			return nil, err
		}
		switch item.Kind {
		case FieldItem:
			if mode == RawBody || mode == BinaryBody {
				return nil, errors.Errorf("field item %q cannot be mixed with --data or --binary", arg)
			}
			hasBodyItem = true
		case FileItem:
			if mode != MultipartBody && mode != EncodedBody {
				return nil, errors.Errorf("file item %q needs a multipart body", arg)
			}
			inv.Mode = MultipartBody
			hasBodyItem = true
		}
		inv.Items = append(inv.Items, item)
	}
	if mode == RawBody || mode == BinaryBody {
		hasBodyItem = true
	}

	if argMethod != "" {
		method, err := request.ParseMethod(argMethod)
		if err != nil {
			return nil, errors.Wrap(err, "METHOD")
		}
		inv.Method = method
	} else if hasBodyItem {
		inv.Method = request.MethodPost
	} else {
		inv.Method = request.MethodGet
	}
	return inv, nil
}

func determineBodyMode(opts Options) (BodyMode, error) {
	set := 0
	mode := EncodedBody
	if opts.JSON {
		set++
		mode = JSONBody
	}
	if opts.Multipart {
		set++
		mode = MultipartBody
	}
	if opts.Data != "" {
		set++
		mode = RawBody
	}
	if opts.Binary != "" {
		set++
		mode = BinaryBody
	}
	if set > 1 {
		return EncodedBody, errors.New("only one of --json, --multipart, --data and --binary may be given")
	}
	return mode, nil
}

func parseItem(s string) (Item, error) {
	kind, name, value := splitItem(s)
	switch kind {
	case unknownItem:
		return Item{}, errors.Errorf("unknown request item: %s", s)
	case HeaderItem:
		if !reHeaderFieldName.MatchString(name) {
			return Item{}, errors.Errorf("invalid header field name: %s", name)
		}
	case FileItem:
		if value == "" {
			return Item{}, errors.Errorf("file item needs a path: %s", s)
		}
	}
	if name == "" {
		return Item{}, errors.Errorf("request item has no name: %s", s)
	}
	return Item{Kind: kind, Name: name, Value: value}, nil
}

// splitItem finds the first separator; "==" must be tested before "=".
func splitItem(s string) (ItemKind, string, string) {
	for i, c := range s {
		switch c {
		case ':':
			return HeaderItem, s[:i], strings.TrimSpace(s[i+1:])
		case '=':
			if i+1 < len(s) && s[i+1] == '=' {
				return QueryItem, s[:i], s[i+2:]
			}
			return FieldItem, s[:i], s[i+1:]
		case '@':
			return FileItem, s[:i], s[i+1:]
		}
	}
	return unknownItem, "", ""
}

// Build turns the invocation into a Request using opts for its collaborators.
func (inv *Invocation) Build(opts request.Options) (*request.Request, error) {
	if inv.Options.Charset != "" {
		opts.Charset = inv.Options.Charset
	}
	req, err := request.New(inv.URL, opts)
	if err != nil {
		return nil, err
	}
	if err := req.SetMethod(inv.Method); err != nil {
		return nil, err
	}

	jsonFields := map[string]any{}
	hasFields := false
	for _, item := range inv.Items {
		switch item.Kind {
		case HeaderItem:
			req.SetHeader(item.Name, item.Value)
		case QueryItem:
			req.AddQueryParam(item.Name, item.Value)
		case FieldItem:
			hasFields = true
			switch inv.Mode {
			case MultipartBody:
				req.AddFormField(item.Name, item.Value)
			case JSONBody:
				jsonFields[item.Name] = item.Value
			default:
				req.AddEncodedField(item.Name, item.Value)
			}
		case FileItem:
			req.AddFormBinaryFile(item.Name, item.Value)
		}
	}

	switch inv.Mode {
	case JSONBody:
		if len(jsonFields) == 0 {
			req.UseJSON()
			break
		}
		if err := stageJSON(req, jsonFields); err != nil {
			return nil, err
		}
	case RawBody:
		if path, ok := strings.CutPrefix(inv.Options.Data, "@"); ok {
			if _, err := req.AddRawFile(path); err != nil {
				return nil, err
			}
		} else {
			req.AddRawData(inv.Options.Data)
		}
	case BinaryBody:
		if _, err := req.AddBinaryFile(inv.Options.Binary); err != nil {
			return nil, err
		}
	case MultipartBody:
		req.UseForm()
	case EncodedBody:
		if hasFields {
			req.UseEncodedForm()
		}
	}
	return req, nil
}

func stageJSON(req *request.Request, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encoding JSON fields")
	}
	_, err = req.AddJSONString(string(raw))
	return err
}
