package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	logLevelFlag   string
	structuredFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "hitchain",
	Short: "Chained YAML API tests.",
	Long: `hitchain runs HTTP requests described in YAML test files, in order,
with later requests templated from the responses of earlier ones.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelSet := cmd.Flags().Lookup("log-level") != nil && cmd.Flags().Lookup("log-level").Changed
		logger, err := newLogger(structuredFlag, logLevelFlag, levelSet, os.Stderr)
		if err != nil {
			return &exitError{code: ExitUsageError, err: err}
		}
		cmd.SetContext(pslog.ContextWithLogger(cmd.Context(), logger))
		return nil
	},
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := ExitUsageError
	if ee, ok := err.(*exitError); ok {
		code = ee.code
		if ee.err == nil {
			return code
		}
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return code
}

// newLogger builds the CLI logger. An explicit --log-level wins over
// LOG_LEVEL, which wins over the flag default.
func newLogger(structured bool, level string, levelSet bool, w io.Writer) (pslog.Logger, error) {
	opts := pslog.Options{}
	if structured {
		opts.Mode = pslog.ModeStructured
	}
	logger := pslog.NewWithOptions(w, opts).LogLevel(pslog.InfoLevel)

	if levelSet {
		lvl, ok := pslog.ParseLevel(level)
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", level)
		}
		return logger.LogLevel(lvl), nil
	}
	if lvl, ok := pslog.LevelFromEnv("LOG_LEVEL"); ok {
		return logger.LogLevel(lvl), nil
	}
	if lvl, ok := pslog.ParseLevel(level); ok {
		return logger.LogLevel(lvl), nil
	}
	return logger, nil
}

func loggerFromCmd(cmd *cobra.Command) pslog.Logger {
	if logger := pslog.LoggerFromContext(cmd.Context()); logger != nil {
		return logger
	}
	return pslog.NewWithOptions(cmd.ErrOrStderr(), pslog.Options{MinLevel: pslog.InfoLevel})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&structuredFlag, "structured", false, "Emit structured JSON logs")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
