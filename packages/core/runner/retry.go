package runner

import (
	"context"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
)

// attemptState is what a single attempt leaves the controller with.
type attemptState int

const (
	attemptPassed attemptState = iota
	attemptFailed
	// attemptTerminal fails without using the remaining budget.
	attemptTerminal
	attemptSkipped
)

func attemptsFor(plan *parser.Plan) int {
	if plan.MaxRetries < 1 {
		return parser.DefaultMaxRetries
	}
	return plan.MaxRetries
}

// runRequest drives one request through delay, attempt and retry until it
// passes, is skipped or runs out of attempts.
func (r *Runner) runRequest(ctx context.Context, file *parser.File, plan *parser.Plan) *RequestResult {
	start := time.Now()
	result := &RequestResult{
		Name:        plan.Name,
		MaxAttempts: attemptsFor(plan),
	}
	logger := r.logger

	for attempt := 1; attempt <= result.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if plan.Delay > 0 {
			logger.Debug("waiting before attempt", "request", plan.Name, "delay", plan.Delay.String())
			if err := wait(ctx, plan.Delay); err != nil {
				result.Status = StatusFailed
				result.Outcome = failure(KindTransport, err.Error())
				logger.Error("request cancelled", "request", plan.Name, "attempt", attempt, "error", err.Error())
				r.emit(Event{
					File:        file.Path,
					Request:     plan.Name,
					Attempt:     attempt,
					MaxAttempts: result.MaxAttempts,
					Status:      StatusFailed,
					Final:       true,
					Outcome:     result.Outcome,
				})
				break
			}
		}

		attemptStart := time.Now()
		st := r.attempt(ctx, file, plan, result)
		elapsed := time.Since(attemptStart)

		ev := Event{
			File:        file.Path,
			Request:     plan.Name,
			Attempt:     attempt,
			MaxAttempts: result.MaxAttempts,
			Outcome:     result.Outcome,
			Duration:    elapsed,
		}

		switch st {
		case attemptPassed:
			result.Status = StatusPassed
			ev.Status, ev.Final = StatusPassed, true
			logger.Debug("request passed", "request", plan.Name, "attempt", attempt)
		case attemptSkipped:
			result.Status = StatusSkipped
			result.SkipReason = SkipCondition
			ev.Status, ev.Final, ev.SkipReason = StatusSkipped, true, SkipCondition
			logger.Info("request skipped", "request", plan.Name, "reason", SkipCondition)
		case attemptFailed, attemptTerminal:
			result.Status = StatusFailed
			ev.Status = StatusFailed
			ev.Final = st == attemptTerminal || attempt == result.MaxAttempts || ctx.Err() != nil
			if ev.Final {
				logger.Error("request failed", "request", plan.Name, "attempt", attempt,
					"kind", result.Outcome.Kind.String(), "error", result.Outcome.Message)
			} else {
				logger.Warn("request failed, retrying", "request", plan.Name, "attempt", attempt,
					"remaining", result.MaxAttempts-attempt, "kind", result.Outcome.Kind.String())
			}
		}

		r.emit(ev)
		if ev.Final {
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}

// attempt resolves, compiles, sends and validates the request once. The
// outcome is stored on result.
func (r *Runner) attempt(ctx context.Context, file *parser.File, plan *parser.Plan, result *RequestResult) attemptState {
	result.Request, result.Validation = nil, nil

	spec, err := r.resolver.Resolve(file.Raw, plan.Name, r.store)
	if err != nil {
		result.Outcome = failure(KindTemplate, err.Error())
		return attemptTerminal
	}

	if !spec.If.Holds() {
		result.Outcome = success("")
		return attemptSkipped
	}

	req := http.Compile(spec)
	result.Request = req

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		result.Outcome = failure(KindTransport, err.Error())
		var terr *http.TransportError
		if errors.As(err, &terr) && terr.Response != nil {
			result.Outcome.Snapshot = terr.Response.Snapshot()
			r.latency.Record(plan.Name, terr.Response.Duration, true)
		}
		return attemptFailed
	}

	r.store.SetResponse(plan.Name, resp.Data())

	snapshot := resp.Snapshot()
	validation := assertions.Validate(snapshot, spec.Validate.Assertions)
	result.Validation = validation
	r.latency.Record(plan.Name, resp.Duration, validation.IsError)

	if validation.IsError {
		result.Outcome = failure(KindValidation, validation.Message)
		result.Outcome.Snapshot = snapshot
		return attemptFailed
	}

	result.Outcome = success(validation.Message)
	if bool(spec.Log) || r.config.Print {
		result.Outcome.Snapshot = snapshot
	}
	return attemptPassed
}

// wait pauses for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
