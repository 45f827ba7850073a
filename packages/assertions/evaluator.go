package assertions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/jsonpath"
	"github.com/google/go-cmp/cmp"
)

// Status is the verdict of a single check.
type Status int

const (
	Passed Status = iota
	Failed
	// Unsupported marks a type check naming an unknown type.
	Unsupported
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// CheckKind tells an equality check from a type check.
type CheckKind string

const (
	KindExpect CheckKind = "expect"
	KindType   CheckKind = "type"
)

// Check records one evaluated check. An assertion carrying both expect and
// type yields two checks.
type Check struct {
	JSONPath string
	Kind     CheckKind
	Expected any
	Actual   any
	Found    bool
	Status   Status
	Message  string
}

func (c *Check) Passed() bool {
	return c.Status == Passed
}

// Result holds the checks evaluated up to and including the first failure.
type Result struct {
	IsError bool
	Message string
	Checks  []*Check
}

// Failure returns the failing check, or nil when every check passed.
func (r *Result) Failure() *Check {
	if len(r.Checks) == 0 {
		return nil
	}
	last := r.Checks[len(r.Checks)-1]
	if last.Passed() {
		return nil
	}
	return last
}

type Evaluator struct {
	snapshot *http.Snapshot
	doc      []byte
	encErr   error
}

func NewEvaluator(snapshot *http.Snapshot) *Evaluator {
	e := &Evaluator{snapshot: snapshot}
	e.doc, e.encErr = json.Marshal(snapshot)
	return e
}

// Evaluate runs the checks of one assertion, equality first. It stops at the
// first check that does not pass.
func (e *Evaluator) Evaluate(a parser.Assertion) []*Check {
	actual, found, err := e.lookup(a.JSONPath)
	if err != nil {
		return []*Check{{
			JSONPath: a.JSONPath,
			Kind:     e.kindOf(a),
			Status:   Failed,
			Message:  validationError("Invalid jsonpath %s: %v", a.JSONPath, err),
		}}
	}

	var checks []*Check
	if a.HasExpect {
		c := e.expect(a, actual, found)
		checks = append(checks, c)
		if !c.Passed() {
			return checks
		}
	}
	if a.Type != "" {
		checks = append(checks, e.typeCheck(a, actual, found))
	}
	return checks
}

func (e *Evaluator) kindOf(a parser.Assertion) CheckKind {
	if a.HasExpect {
		return KindExpect
	}
	return KindType
}

func (e *Evaluator) lookup(path string) (any, bool, error) {
	if e.encErr != nil {
		return nil, false, e.encErr
	}
	return jsonpath.QueryBytes(e.doc, path)
}

func (e *Evaluator) expect(a parser.Assertion, actual any, found bool) *Check {
	c := &Check{
		JSONPath: a.JSONPath,
		Kind:     KindExpect,
		Expected: a.Expect,
		Actual:   actual,
		Found:    found,
	}
	if found && StrictEqual(actual, a.Expect) {
		c.Status = Passed
		c.Message = fmt.Sprintf("jsonpath %s(%s) equals %s", a.JSONPath, display(actual, found), display(a.Expect, true))
		return c
	}
	c.Status = Failed
	c.Message = validationError("The JSON response value should have been %s but instead it was %s",
		display(a.Expect, true), display(actual, found))
	return c
}

func (e *Evaluator) typeCheck(a parser.Assertion, actual any, found bool) *Check {
	c := &Check{
		JSONPath: a.JSONPath,
		Kind:     KindType,
		Expected: a.Type,
		Actual:   actual,
		Found:    found,
	}

	if !IsKnownType(a.Type) {
		c.Status = Unsupported
		c.Message = validationError("Unsupported type %s for jsonpath %s", a.Type, a.JSONPath)
		return c
	}

	if !found {
		c.Status = Failed
		c.Message = validationError("The Type should have been %s but instead it was undefined", a.Type)
		return c
	}

	ok, err := MatchesType(a.Type, actual)
	if err != nil {
		c.Status = Failed
		c.Message = validationError("Type check %s failed: %v", a.Type, err)
		return c
	}
	if !ok {
		c.Status = Failed
		c.Message = validationError("The Type should have been %s but instead it was %s", a.Type, display(actual, found))
		return c
	}

	c.Status = Passed
	c.Message = fmt.Sprintf("jsonpath %s(%s) type equals %s", a.JSONPath, display(actual, found), a.Type)
	return c
}

// Validate evaluates assertions in order against the snapshot and stops at
// the first failing check. On success the message lists every check.
func Validate(snapshot *http.Snapshot, list []parser.Assertion) *Result {
	e := NewEvaluator(snapshot)
	result := &Result{}

	var lines []string
	for _, a := range list {
		checks := e.Evaluate(a)
		result.Checks = append(result.Checks, checks...)
		for _, c := range checks {
			if !c.Passed() {
				result.IsError = true
				result.Message = c.Message
				return result
			}
			lines = append(lines, c.Message)
		}
	}

	if len(lines) > 0 {
		result.Message = strings.Join(lines, "\n") + "\n"
	}
	return result
}

// StrictEqual compares two values by type and value once both are reduced to
// their JSON form, so 200 and 200.0 are equal while "200" and 200 are not.
func StrictEqual(actual, expected any) bool {
	a, aErr := normalize(actual)
	b, bErr := normalize(expected)
	if aErr != nil || bErr != nil {
		return reflect.DeepEqual(actual, expected)
	}
	return cmp.Equal(a, b)
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func display(v any, found bool) string {
	if !found {
		return "undefined"
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func validationError(format string, args ...any) string {
	return "[ Validation ] " + fmt.Sprintf(format, args...)
}
