package runner

import (
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
)

// ErrorKind classifies why an attempt failed.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindTemplate is a render, parse or lookup failure. It is never retried.
	KindTemplate
	// KindTransport is a connection failure or a 5xx response.
	KindTransport
	// KindValidation is a failed or unsupported assertion.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTemplate:
		return "template"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Outcome is the result of one attempt of one request.
type Outcome struct {
	IsError  bool
	Message  string
	Snapshot *http.Snapshot
	ExitCode int
	Kind     ErrorKind
}

func success(message string) Outcome {
	return Outcome{Message: message}
}

func failure(kind ErrorKind, message string) Outcome {
	return Outcome{IsError: true, Message: message, ExitCode: 1, Kind: kind}
}

// Status is the terminal state of a request.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Skip reasons recorded on skipped requests.
const (
	SkipCondition = "condition not met"
	SkipAborted   = "aborted"
)

type RequestResult struct {
	Name        string
	Status      Status
	SkipReason  string
	Attempts    int
	MaxAttempts int
	Duration    time.Duration
	Request     *http.Request
	Outcome     Outcome
	Validation  *assertions.Result
}

func (r *RequestResult) Passed() bool {
	return r.Status == StatusPassed
}

func (r *RequestResult) Skipped() bool {
	return r.Status == StatusSkipped
}

// RunResult is the result of one test file.
type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

func (r *RunResult) add(res *RequestResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

// SuiteResult aggregates every file of a run.
type SuiteResult struct {
	Files    []*RunResult
	Duration time.Duration
	Aborted  bool
	ExitCode int
}

func (s *SuiteResult) Totals() (passed, failed, skipped int) {
	for _, f := range s.Files {
		passed += f.Passed
		failed += f.Failed
		skipped += f.Skipped
	}
	return passed, failed, skipped
}

// Event is emitted after every attempt and every skip.
type Event struct {
	File        string
	Request     string
	Attempt     int
	MaxAttempts int
	// Final is false when the request will be attempted again.
	Final      bool
	Status     Status
	SkipReason string
	Outcome    Outcome
	Duration   time.Duration
}
