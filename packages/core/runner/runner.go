package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/core/template"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/stats"
	"pkt.systems/pslog"
)

// Runner executes test files strictly in order against one shared state.
// A Runner is single use: its state lives for one run.
type Runner struct {
	config   *Config
	logger   pslog.Base
	store    *state.Store
	resolver *template.Resolver
	client   *http.Client
	latency  *stats.Latency

	insecure bool
	aborted  bool
	failed   bool
}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	// NoAbort keeps executing requests after a terminal failure.
	NoAbort bool
	// Print attaches the response snapshot to every outcome.
	Print bool
	// Insecure disables TLS verification from the start of the run.
	Insecure  bool
	RateLimit float64
	Proxy     string
	Headers   map[string]string
	// Variables seed the run state before the first file.
	Variables map[string]any
	LookupEnv func(string) (string, bool)
	Logger    pslog.Base
	OnOutcome func(Event)
	// OnFile is called by RunSuite after each file completes.
	OnFile func(*RunResult)
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = pslog.New(os.Stderr)
	}

	resolverOpts := []template.Option{
		template.WithWarnFunc(func(format string, args ...any) {
			logger.Warn(fmt.Sprintf(format, args...))
		}),
	}
	if cfg.LookupEnv != nil {
		resolverOpts = append(resolverOpts, template.WithLookupEnv(cfg.LookupEnv))
	}

	r := &Runner{
		config:   cfg,
		logger:   logger,
		store:    state.NewStore(),
		resolver: template.NewResolver(resolverOpts...),
		latency:  stats.NewLatency(),
		insecure: cfg.Insecure,
	}
	r.store.MergeVariables(cfg.Variables)
	r.client = http.NewClient(r.clientOptions()...)
	return r
}

func (r *Runner) clientOptions() []http.ClientOption {
	opts := []http.ClientOption{
		http.WithFollowRedirects(r.config.FollowRedirect),
		http.WithValidateSSL(!r.insecure),
	}
	if r.config.Timeout > 0 {
		opts = append(opts, http.WithTimeout(r.config.Timeout))
	}
	if r.config.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(r.config.MaxRedirects))
	}
	if r.config.RateLimit > 0 {
		opts = append(opts, http.WithRateLimit(r.config.RateLimit))
	}
	if r.config.Proxy != "" {
		opts = append(opts, http.WithProxy(r.config.Proxy))
	}
	if len(r.config.Headers) > 0 {
		opts = append(opts, http.WithDefaultHeaders(r.config.Headers))
	}
	return opts
}

// allowInsecure switches to a client without TLS verification. It cannot
// be undone for the rest of the run.
func (r *Runner) allowInsecure() {
	if r.insecure {
		return
	}
	r.insecure = true
	r.client = http.NewClient(r.clientOptions()...)
	r.logger.Warn("tls verification disabled for the rest of the run")
}

// State exposes the accumulated responses and variables.
func (r *Runner) State() *state.Store {
	return r.store
}

// Latency returns the latency summary of every attempt made so far.
func (r *Runner) Latency() *stats.Summary {
	return r.latency.Summary()
}

func (r *Runner) Insecure() bool {
	return r.insecure
}

func (r *Runner) Aborted() bool {
	return r.aborted
}

// ExitCode is 0 while every executed request has passed, 1 otherwise.
func (r *Runner) ExitCode() int {
	if r.failed {
		return 1
	}
	return 0
}

// RunSuite executes every file in order.
func (r *Runner) RunSuite(ctx context.Context, suite *parser.Suite) *SuiteResult {
	start := time.Now()
	result := &SuiteResult{}

	for _, file := range suite.Files {
		res := r.RunFile(ctx, file)
		result.Files = append(result.Files, res)
		if r.config.OnFile != nil {
			r.config.OnFile(res)
		}
	}

	result.Duration = time.Since(start)
	result.Aborted = r.aborted
	result.ExitCode = r.ExitCode()
	return result
}

// RunFile merges the file's variables into the run state, then executes its
// requests in document order. Once the run is aborted, requests are recorded
// as skipped but variables and allowInsecure still apply.
func (r *Runner) RunFile(ctx context.Context, file *parser.File) *RunResult {
	start := time.Now()
	result := &RunResult{File: file.Path}

	r.store.MergeVariables(file.Variables)
	if file.AllowInsecure {
		r.allowInsecure()
	}

	r.logger.Debug("running file", "file", file.Path, "requests", len(file.Requests))

	for _, plan := range file.Requests {
		if r.aborted {
			res := &RequestResult{
				Name:        plan.Name,
				Status:      StatusSkipped,
				SkipReason:  SkipAborted,
				MaxAttempts: attemptsFor(plan),
			}
			result.add(res)
			r.emit(Event{
				File:        file.Path,
				Request:     plan.Name,
				MaxAttempts: res.MaxAttempts,
				Final:       true,
				Status:      StatusSkipped,
				SkipReason:  SkipAborted,
				Outcome:     success(""),
			})
			continue
		}

		res := r.runRequest(ctx, file, plan)
		result.add(res)

		if res.Status == StatusFailed {
			r.failed = true
			if !r.config.NoAbort {
				r.aborted = true
				r.logger.Error("aborting run", "file", file.Path, "request", plan.Name)
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) emit(ev Event) {
	if r.config.OnOutcome != nil {
		r.config.OnOutcome(ev)
	}
}
