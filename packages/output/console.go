package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/core/runner"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/stats"
	"github.com/fatih/color"
)

// slowestShown is how many requests the latency summary lists.
const slowestShown = 3

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	file    string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatEvent prints one line per attempt. The file banner is printed
// before the first event of every file.
func (f *ConsoleFormatter) FormatEvent(ev runner.Event) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if ev.File != f.file {
		f.file = ev.File
		fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+ev.File))
	}

	switch {
	case ev.Status == runner.StatusSkipped:
		fmt.Fprintf(f.writer, "  %s %s (%s)\n", yellow("-"), ev.Request, ev.SkipReason)
		return
	case ev.Status == runner.StatusPassed:
		fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), ev.Request, cyan(fmt.Sprintf("(%dms)", ev.Duration.Milliseconds())))
		if f.verbose {
			f.printMessage(ev.Outcome.Message, "    ")
		}
	case !ev.Final:
		fmt.Fprintf(f.writer, "  %s %s %s\n", yellow("↻"), ev.Request,
			yellow(fmt.Sprintf("(attempt %d/%d failed, retrying)", ev.Attempt, ev.MaxAttempts)))
		if f.verbose {
			f.printMessage(ev.Outcome.Message, "    ")
		}
		return
	default:
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), ev.Request,
			red(fmt.Sprintf("(%s, attempt %d/%d)", ev.Outcome.Kind, ev.Attempt, ev.MaxAttempts)))
		f.printMessage(ev.Outcome.Message, "    "+red("→")+" ")
	}

	if ev.Outcome.Snapshot != nil {
		f.printSnapshot(ev.Outcome.Snapshot)
	}
}

func (f *ConsoleFormatter) printMessage(message, prefix string) {
	for _, line := range strings.Split(strings.TrimRight(message, "\n"), "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintf(f.writer, "%s%s\n", prefix, line)
	}
}

func (f *ConsoleFormatter) printSnapshot(s *http.Snapshot) {
	data, err := json.MarshalIndent(s, "    ", "  ")
	if err != nil {
		fmt.Fprintf(f.writer, "    (unprintable response: %v)\n", err)
		return
	}
	fmt.Fprintf(f.writer, "    %s\n", data)
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	fmt.Fprintf(f.writer, "\n")
	f.printCounts(result.Passed, result.Failed, result.Skipped)
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
}

func (f *ConsoleFormatter) printCounts(passed, failed, skipped int) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "Tests: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", passed+failed+skipped)
}

// FormatSummary prints the totals of the whole run and its latency
// distribution.
func (f *ConsoleFormatter) FormatSummary(suite *runner.SuiteResult, latency *stats.Summary) {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	passed, failed, skipped := suite.Totals()

	fmt.Fprintf(f.writer, "\n%s\n", bold(fmt.Sprintf("Files: %d", len(suite.Files))))
	f.printCounts(passed, failed, skipped)
	fmt.Fprintf(f.writer, "Time:  %dms\n", suite.Duration.Milliseconds())
	if suite.Aborted {
		fmt.Fprintf(f.writer, "%s\n", red("Run aborted after a failure"))
	}

	if latency == nil || latency.Attempts == 0 {
		fmt.Fprintf(f.writer, "\n")
		return
	}

	fmt.Fprintf(f.writer, "\n%s\n", bold("Latency"))
	fmt.Fprintf(f.writer, "  p50 %s  p95 %s  p99 %s  (min %s, max %s, %d attempts)\n",
		cyan(latency.P50), cyan(latency.P95), cyan(latency.P99),
		latency.Min, latency.Max, latency.Attempts)
	for _, r := range latency.Slowest(slowestShown) {
		fmt.Fprintf(f.writer, "  %-24s p95 %s  mean %s\n", r.Name, r.P95, r.Mean)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitchain"), version)
}
