package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/runner"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/stats"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary  `json:"summary"`
	Tests    []JSONTest   `json:"tests"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total    int  `json:"total"`
	Passed   int  `json:"passed"`
	Failed   int  `json:"failed"`
	Skipped  int  `json:"skipped"`
	Aborted  bool `json:"aborted"`
	ExitCode int  `json:"exitCode"`
}

// JSONTest represents a single request result
type JSONTest struct {
	Name        string         `json:"name"`
	File        string         `json:"file"`
	Status      string         `json:"status"`
	SkipReason  string         `json:"skipReason,omitempty"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"maxAttempts"`
	Duration    float64        `json:"duration"`
	Kind        string         `json:"kind,omitempty"`
	Message     string         `json:"message,omitempty"`
	Request     *JSONRequest   `json:"request,omitempty"`
	Response    *http.Snapshot `json:"response,omitempty"`
	Checks      []JSONCheck    `json:"checks,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONCheck represents one evaluated assertion
type JSONCheck struct {
	JSONPath string `json:"jsonpath"`
	Kind     string `json:"kind"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual,omitempty"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// JSONLatency is the latency distribution in milliseconds
type JSONLatency struct {
	Attempts int64   `json:"attempts"`
	Errors   int64   `json:"errors"`
	P50      float64 `json:"p50"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
	suite   *runner.SuiteResult
	latency *stats.Summary
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatEvent(ev runner.Event) {
	// Only final results are reported
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		test := JSONTest{
			Name:        r.Name,
			File:        result.File,
			Status:      r.Status.String(),
			SkipReason:  r.SkipReason,
			Attempts:    r.Attempts,
			MaxAttempts: r.MaxAttempts,
			Duration:    ms(r.Duration),
			Message:     r.Outcome.Message,
			Response:    r.Outcome.Snapshot,
		}

		if r.Outcome.IsError {
			test.Kind = r.Outcome.Kind.String()
		}

		if r.Request != nil {
			test.Request = &JSONRequest{
				Method:  r.Request.Method,
				URL:     r.Request.URL,
				Headers: r.Request.Headers,
			}
		}

		if r.Validation != nil {
			for _, c := range r.Validation.Checks {
				check := JSONCheck{
					JSONPath: c.JSONPath,
					Kind:     string(c.Kind),
					Expected: c.Expected,
					Status:   c.Status.String(),
					Message:  c.Message,
				}
				if c.Found {
					check.Actual = c.Actual
				}
				test.Checks = append(test.Checks, check)
			}
		}

		f.results = append(f.results, test)
	}
}

func (f *JSONFormatter) FormatSummary(suite *runner.SuiteResult, latency *stats.Summary) {
	f.suite = suite
	f.latency = latency
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, t := range f.results {
		switch t.Status {
		case runner.StatusSkipped.String():
			summary.Skipped++
		case runner.StatusPassed.String():
			summary.Passed++
		default:
			summary.Failed++
		}
	}
	summary.Total = len(f.results)
	if f.suite != nil {
		summary.Aborted = f.suite.Aborted
		summary.ExitCode = f.suite.ExitCode
	} else if summary.Failed > 0 {
		summary.ExitCode = 1
	}

	output := JSONOutput{
		Summary:  summary,
		Tests:    f.results,
		Duration: ms(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}

	if f.latency != nil && f.latency.Attempts > 0 {
		output.Latency = &JSONLatency{
			Attempts: f.latency.Attempts,
			Errors:   f.latency.Errors,
			P50:      ms(f.latency.P50),
			P95:      ms(f.latency.P95),
			P99:      ms(f.latency.P99),
			Min:      ms(f.latency.Min),
			Max:      ms(f.latency.Max),
			Mean:     ms(f.latency.Mean),
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
