package definitions

import (
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/samvad-request/pkg/request"
)

// Build creates a Request from def. Files named by the body are read when the
// request is built (raw and binary data) or sent (form parts).
func Build(def Definition, opts request.Options) (*request.Request, error) {
	if def.Charset != "" {
		opts.Charset = def.Charset
	}
	req, err := request.New(def.URL, opts)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", def.ID, err)
	}
	if err := req.SetMethod(request.Method(def.Method)); err != nil {
		return nil, fmt.Errorf("request %q: %w", def.ID, err)
	}
	for k, v := range Headers(def) {
		req.SetHeader(k, v)
	}
	for _, p := range def.Query {
		req.AddQueryParam(p.Key, p.Value)
	}

	if def.Body == nil {
		return req, nil
	}
	if err := stageBody(req, def.Body); err != nil {
		return nil, fmt.Errorf("request %q: %w", def.ID, err)
	}
	return req, nil
}

func stageBody(req *request.Request, body *Body) error {
	typ, err := request.ParseBodyType(body.Type)
	if err != nil {
		return err
	}

	switch typ {
	case request.FormData:
		for _, part := range body.Form {
			switch {
			case part.Binary:
				req.AddFormBinaryFile(part.Name, part.File)
			case part.File != "" && part.Charset != "":
				req.AddFormRawFileCharset(part.Name, part.File, part.Charset)
			case part.File != "":
				req.AddFormRawFile(part.Name, part.File)
			case part.Charset != "":
				req.AddFormFieldCharset(part.Name, part.Value, part.Charset)
			default:
				req.AddFormField(part.Name, part.Value)
			}
		}
		req.UseForm()
	case request.URLEncoded:
		for _, f := range body.Fields {
			req.AddEncodedField(f.Key, f.Value)
		}
		req.UseEncodedForm()
	case request.Raw:
		req.AddRawData(body.Raw)
		if body.RawFile != "" {
			if _, err := req.AddRawFile(body.RawFile); err != nil {
				return err
			}
		}
	case request.JSON:
		if err := stageJSON(req, body.JSON); err != nil {
			return err
		}
		req.UseJSON()
	case request.Binary:
		for _, path := range body.Files {
			if _, err := req.AddBinaryFile(path); err != nil {
				return err
			}
		}
		req.UseBinary()
	}
	return nil
}

// stageJSON accepts either JSON text or a decoded YAML/JSON value.
func stageJSON(req *request.Request, v any) error {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		_, err := req.AddJSONString(t)
		return err
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode json body: %w", err)
		}
		_, err = req.AddJSONString(string(raw))
		return err
	}
}
