package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the requests in test files",
	Long: `List the requests defined in YAML test files in execution order.

Examples:
  hitchain list 01-login.yml
  hitchain list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := parser.CollectFiles(args)
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}

	if len(files) == 0 {
		return &exitError{code: ExitUsageError, err: errNoTestFiles}
	}

	for _, path := range files {
		f, err := parser.ParseFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", path, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", path)
		if f.AllowInsecure {
			fmt.Fprintf(cmd.OutOrStdout(), "  (allowInsecure)\n")
		}
		for _, plan := range f.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", plan.Name)
			if plan.MaxRetries > parser.DefaultMaxRetries {
				fmt.Fprintf(cmd.OutOrStdout(), "    max_retries: %d\n", plan.MaxRetries)
			}
			if plan.Delay > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    delay: %s\n", plan.Delay)
			}
		}
	}

	return nil
}
