package output

import (
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/runner"
	"github.com/abdul-hamid-achik/hitchain/packages/stats"
)

// Formatter is implemented by every output format.
type Formatter interface {
	FormatHeader(version string)
	// FormatEvent is called after every attempt and every skip.
	FormatEvent(ev runner.Event)
	FormatResult(result *runner.RunResult)
	FormatSummary(suite *runner.SuiteResult, latency *stats.Summary)
	FormatError(err error)
}

// Flushable is implemented by formats that accumulate results and write
// them once at the end of a run.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}
