package parser

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxRetries is the attempt budget of a request without validate.max_retries.
const DefaultMaxRetries = 1

// Suite is an ordered list of test files. State accumulates left to right.
type Suite struct {
	Files []*File
}

// File is one test document as loaded from disk, before any rendering.
type File struct {
	Path          string
	Raw           string
	Variables     map[string]any
	AllowInsecure bool
	Requests      []*Plan
}

// Plan is the pre-render view of one request: the settings the runner needs
// before the template can be resolved.
type Plan struct {
	Name       string
	MaxRetries int
	Delay      time.Duration
	Line       int
}

// RequestSpec is a single request definition after the file template has been
// rendered against the current state.
type RequestSpec struct {
	Request  RequestDef `yaml:"request"`
	Auth     *Auth      `yaml:"auth,omitempty"`
	Validate Validation `yaml:"validate,omitempty"`
	Log      Flag       `yaml:"log,omitempty"`
	If       *Condition `yaml:"if,omitempty"`
	Delay    int        `yaml:"delay,omitempty"`
}

type RequestDef struct {
	URL         string            `yaml:"url"`
	Method      string            `yaml:"method"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	QueryString map[string]any    `yaml:"queryString,omitempty"`
	PostData    *PostData         `yaml:"postData,omitempty"`
}

// PostData holds the request body. Params is sent as JSON and wins over Text.
type PostData struct {
	Params any    `yaml:"params,omitempty"`
	Text   string `yaml:"text,omitempty"`
}

type Auth struct {
	Basic *BasicAuth `yaml:"basic,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Condition guards a request: it only runs when Operand equals Equals.
type Condition struct {
	Operand any `yaml:"operand"`
	Equals  any `yaml:"equals"`
}

// Holds reports whether the guard lets the request run. Both sides are
// compared by their printed form, so 1 and "1" are equal.
func (c *Condition) Holds() bool {
	if c == nil {
		return true
	}
	return fmt.Sprintf("%v", c.Operand) == fmt.Sprintf("%v", c.Equals)
}

// Assertion is one declarative check. Expect and Type may both be set.
type Assertion struct {
	JSONPath  string
	Expect    any
	HasExpect bool
	Type      string
}

func (a *Assertion) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if p, ok := raw["jsonpath"]; ok {
		a.JSONPath = fmt.Sprintf("%v", p)
	}
	if e, ok := raw["expect"]; ok {
		a.Expect = e
		a.HasExpect = true
	}
	if t, ok := raw["type"]; ok && t != nil {
		a.Type = fmt.Sprintf("%v", t)
	}
	return nil
}

// Validation is either a plain list of assertions or a mapping carrying
// max_retries and checks.
type Validation struct {
	MaxRetries int
	Assertions []Assertion
}

func (v *Validation) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&v.Assertions)
	case yaml.MappingNode:
		var raw struct {
			MaxRetries int         `yaml:"max_retries"`
			Checks     []Assertion `yaml:"checks"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		v.MaxRetries = raw.MaxRetries
		v.Assertions = raw.Checks
		return nil
	default:
		return fmt.Errorf("line %d: validate must be a list or a mapping", value.Line)
	}
}

// Flag is a boolean that also accepts the strings "true" and "false".
type Flag bool

func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	b, err := strconv.ParseBool(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: expected a boolean, got %q", value.Line, value.Value)
	}
	*f = Flag(b)
	return nil
}

type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
