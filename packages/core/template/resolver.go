package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	gotemplate "text/template"

	"github.com/abdul-hamid-achik/hitchain/packages/builtin"
	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/jsonpath"
	"gopkg.in/yaml.v3"
)

const (
	LeftDelim  = "<$"
	RightDelim = "$>"
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver renders test file templates against the run state.
//
// The functions available to templates are fixed:
//   - Faker "internet.email": fake data from the builtin registry
//   - Env "NAME": process environment value, empty when unset
//   - JsonPath "$.register.token": first match across all recorded responses
//   - ToJSON value: JSON encoding of a value
type Resolver struct {
	fakes     *builtin.Registry
	lookupEnv func(string) (string, bool)
	warnFunc  WarnFunc
}

type Option func(*Resolver)

// WithLookupEnv replaces os.LookupEnv as the source for Env.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = fn
	}
}

// WithWarnFunc sets a function to be called when a lookup comes back empty.
func WithWarnFunc(fn WarnFunc) Option {
	return func(r *Resolver) {
		r.warnFunc = fn
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fakes:     builtin.NewRegistry(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// Render evaluates raw against the state and returns the rendered text.
func (r *Resolver) Render(raw string, st *state.Store) (string, error) {
	tmpl, err := gotemplate.New("file").
		Delims(LeftDelim, RightDelim).
		Option("missingkey=error").
		Funcs(r.funcs(st)).
		Parse(raw)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, st.Scope()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Resolve renders the source of requests[requestName], parses the result as
// YAML and decodes the request. Only that request is rendered, so references
// to responses of later requests in the same file do not fail it. Files whose
// requests cannot be cut out by line are rendered whole.
func (r *Resolver) Resolve(raw, requestName string, st *state.Store) (*parser.RequestSpec, error) {
	src, ok := requestSource(raw, requestName)
	if !ok {
		src = raw
	}

	rendered, err := r.Render(src, st)
	if err != nil {
		return nil, &Error{Request: requestName, Stage: StageRender, Err: err}
	}

	var doc struct {
		Requests map[string]yaml.Node `yaml:"requests"`
	}
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, &Error{Request: requestName, Stage: StageParse, Err: err}
	}

	node, ok := doc.Requests[requestName]
	if !ok {
		return nil, &Error{Request: requestName, Stage: StageLookup, Err: errors.New("request not found in rendered document")}
	}

	spec := &parser.RequestSpec{}
	if err := node.Decode(spec); err != nil {
		return nil, &Error{Request: requestName, Stage: StageParse, Err: err}
	}
	return spec, nil
}

// requestSource cuts the lines of requests[name] out of raw and returns them
// under a bare requests key. ok is false when raw has no block style requests
// mapping holding name on its own lines.
func requestSource(raw, name string) (string, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil || len(doc.Content) == 0 {
		return "", false
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return "", false
	}

	lines := strings.SplitAfter(raw, "\n")
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "requests" {
			continue
		}
		requests := root.Content[i+1]
		if requests.Kind != yaml.MappingNode || requests.Style&yaml.FlowStyle != 0 {
			return "", false
		}

		end := len(lines)
		if i+2 < len(root.Content) {
			end = root.Content[i+2].Line - 1
		}
		for j := 0; j+1 < len(requests.Content); j += 2 {
			key := requests.Content[j]
			if key.Value != name {
				continue
			}
			stop := end
			if j+2 < len(requests.Content) {
				stop = requests.Content[j+2].Line - 1
			}
			start := key.Line - 1
			if start < 0 || stop <= start || stop > len(lines) {
				return "", false
			}
			return "requests:\n" + strings.Join(lines[start:stop], ""), true
		}
		return "", false
	}
	return "", false
}

func (r *Resolver) funcs(st *state.Store) gotemplate.FuncMap {
	return gotemplate.FuncMap{
		"Faker": func(descriptor string) (any, error) {
			return r.fakes.Fake(descriptor)
		},
		"Env": func(name string) string {
			v, ok := r.lookupEnv(name)
			if !ok {
				r.warn("unresolved environment variable: %s", name)
			}
			return v
		},
		"JsonPath": func(path string) (any, error) {
			v, ok, err := jsonpath.Query(st.Responses(), path)
			if err != nil {
				return nil, err
			}
			if !ok {
				r.warn("no response value matches %s", path)
				return "", nil
			}
			return printable(v)
		},
		"ToJSON": func(v any) (string, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

// printable keeps whole numbers from being printed in exponent form and
// writes objects and arrays as JSON.
func printable(v any) (any, error) {
	switch val := v.(type) {
	case float64:
		return json.Number(strconv.FormatFloat(val, 'f', -1, 64)), nil
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v, nil
}

const (
	StageRender = "render"
	StageParse  = "parse"
	StageLookup = "lookup"
)

// Error is returned when a request definition cannot be produced from its
// template. It is never retried.
type Error struct {
	Request string
	Stage   string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("template %s failed for request %q: %v", e.Stage, e.Request, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
