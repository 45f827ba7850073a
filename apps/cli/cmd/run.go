package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/abdul-hamid-achik/hitchain/packages/core/env"
	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/abdul-hamid-achik/hitchain/packages/core/runner"
	"github.com/abdul-hamid-achik/hitchain/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var errNoTestFiles = errors.New("no .yml or .yaml files found")

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run test files in order",
	Long: `Run the requests defined in YAML test files. Files run in the order
given (directories expand to their files sorted by path) and share one state,
so a request can template values from any earlier response.

Examples:
  hitchain run 01-login.yml 02-orders.yml
  hitchain run ./tests/ --env-file .env
  hitchain run ./tests/ --var baseUrl=http://localhost:3000 --no-abort
  hitchain run ./tests/ -o junit --output-file report.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envFileFlags   []string
	varFlags       []string
	configFlag     string
	noAbortFlag    bool
	printFlag      bool
	verboseFlag    bool
	timeoutFlag    string
	rateFlag       float64
	noColorFlag    bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool
	proxyFlag      string
	insecureFlag   bool
)

func init() {
	// Input flags
	runCmd.Flags().StringArrayVar(&envFileFlags, "env-file", envList("HITCHAIN_ENV_FILE"), "Path to .env file read by the Env template function, repeatable (env: HITCHAIN_ENV_FILE)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Seed variable as name=value, repeatable")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITCHAIN_CONFIG", ""), "Path to config file (env: HITCHAIN_CONFIG)")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITCHAIN_VERBOSE", false), "Print validation details and retries (env: HITCHAIN_VERBOSE)")
	runCmd.Flags().BoolVar(&printFlag, "print", getEnvBool("HITCHAIN_PRINT", false), "Print every response, not only failing ones (env: HITCHAIN_PRINT)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITCHAIN_NO_COLOR", false), "Disable colored output (env: HITCHAIN_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITCHAIN_OUTPUT", ""), "Output format: console, json, junit (env: HITCHAIN_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("HITCHAIN_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITCHAIN_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&noAbortFlag, "no-abort", getEnvBool("HITCHAIN_NO_ABORT", false), "Keep running after a request fails (env: HITCHAIN_NO_ABORT)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITCHAIN_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITCHAIN_TIMEOUT)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("HITCHAIN_RATE", 0), "Maximum requests per second, 0 for unlimited (env: HITCHAIN_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("HITCHAIN_PROXY", ""), "Proxy URL for HTTP requests (env: HITCHAIN_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITCHAIN_INSECURE", false), "Disable SSL certificate validation (env: HITCHAIN_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// envList splits a comma-separated environment variable.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagOverrides turns the run flags into a config that takes precedence over
// the config file. Unset flags leave the file value in place.
func flagOverrides() (*config.Config, error) {
	overrides := &config.Config{
		Proxy:      proxyFlag,
		RateLimit:  rateFlag,
		Output:     outputFlag,
		OutputFile: outputFileFlag,
		EnvFiles:   envFileFlags,
	}

	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		overrides.Timeout = int(timeout.Milliseconds())
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if noAbortFlag {
		overrides.NoAbort = config.BoolPtr(true)
	}
	if printFlag {
		overrides.Print = config.BoolPtr(true)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}

	seeds, err := env.ParseAssignments(varFlags)
	if err != nil {
		return nil, err
	}
	overrides.Variables = seeds

	return overrides, nil
}

// newFormatter creates the formatter named by format, writing to w.
func newFormatter(format string, w io.Writer, verbose, noColor bool) (output.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w)), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verbose),
			output.WithNoColor(noColor),
		), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use console, json or junit)", format)
	}
}

// loadSuite parses and schema-checks every file in order.
func loadSuite(files []string) (*parser.Suite, error) {
	suite, err := parser.LoadSuite(files)
	if err != nil {
		return nil, err
	}
	for _, file := range suite.Files {
		if err := parser.ValidateSchema(file); err != nil {
			return nil, err
		}
	}
	return suite, nil
}

// collectSuite expands args and loads the files found. Each watch rerun
// calls it again so files added to a watched directory are picked up.
func collectSuite(args []string) (*parser.Suite, error) {
	files, err := parser.CollectFiles(args)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errNoTestFiles
	}
	return loadSuite(files)
}

func runCommand(cmd *cobra.Command, args []string) error {
	logger := loggerFromCmd(cmd)

	// Load config from file (if present) and apply CLI overrides
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}
	overrides, err := flagOverrides()
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}
	cfg := fileConfig.Merge(overrides)

	dotenv := map[string]string{}
	if len(cfg.EnvFiles) > 0 {
		dotenv, err = env.LoadDotEnv(cfg.EnvFiles...)
		if err != nil {
			return &exitError{code: ExitConfigError, err: fmt.Errorf("loading env file: %w", err)}
		}
	}

	// Config variables < HITCHAIN_VAR_* < --var
	seeds := env.MergeVariables(fileConfig.Variables, env.LoadSystemEnv(env.VarPrefix), overrides.Variables)

	files, err := parser.CollectFiles(args)
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}
	if len(files) == 0 {
		return &exitError{code: ExitUsageError, err: errNoTestFiles}
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return &exitError{code: ExitConfigError, err: fmt.Errorf("cannot create output file: %w", err)}
		}
		defer f.Close()
		outWriter = f
	}

	formatter, err := newFormatter(cfg.Output, outWriter, verboseFlag, cfg.GetNoColor())
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runnerConfig := runner.Config{
		Timeout:        time.Duration(cfg.Timeout) * time.Millisecond,
		FollowRedirect: cfg.GetFollowRedirects(),
		MaxRedirects:   cfg.MaxRedirects,
		NoAbort:        cfg.GetNoAbort(),
		Print:          cfg.GetPrint(),
		Insecure:       !cfg.GetValidateSSL(),
		RateLimit:      cfg.RateLimit,
		Proxy:          cfg.Proxy,
		Headers:        cfg.Headers,
		Variables:      seeds,
		LookupEnv:      env.Lookup(dotenv),
		Logger:         logger,
	}

	// runOnce reloads the files and executes them with a fresh runner.
	runOnce := func(formatter output.Formatter) int {
		suite, err := collectSuite(args)
		if err != nil {
			formatter.FormatError(err)
			return ExitParseError
		}

		rc := runnerConfig
		rc.OnOutcome = formatter.FormatEvent
		rc.OnFile = formatter.FormatResult
		r := runner.NewRunner(&rc)

		logger.Info("starting run", "files", len(suite.Files))
		result := r.RunSuite(ctx, suite)
		formatter.FormatSummary(result, r.Latency())

		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(result.Duration); err != nil {
				formatter.FormatError(fmt.Errorf("error writing output: %w", err))
			}
		}
		return result.ExitCode
	}

	formatter.FormatHeader(version)
	code := runOnce(formatter)

	if !watchFlag {
		if code != ExitSuccess {
			return &exitError{code: code}
		}
		return nil
	}

	return watch(ctx, cmd, args, files, func() {
		// Accumulating formatters need fresh state for every run
		next, err := newFormatter(cfg.Output, outWriter, verboseFlag, cfg.GetNoColor())
		if err != nil {
			return
		}
		runOnce(next)
	})
}

// watch re-runs rerun whenever a test file under the watched paths is
// written, until ctx ends.
func watch(ctx context.Context, cmd *cobra.Command, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	logger := loggerFromCmd(cmd)

	// Add files and directories to watch
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch directory", "dir", dir, "error", err.Error())
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the directories named on the command line
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce <-chan time.Time
		changed  string
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only react to writes of test files
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && parser.IsTestFile(event.Name) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", changed)
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err.Error())
		}
	}
}
