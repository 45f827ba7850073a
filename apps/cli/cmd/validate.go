package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitchain/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate test files without executing them",
	Long: `Validate the structure of YAML test files without executing them.

Templates are not rendered, so only the document shape is checked.

Examples:
  hitchain validate 01-login.yml
  hitchain validate ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := parser.CollectFiles(args)
	if err != nil {
		return &exitError{code: ExitUsageError, err: err}
	}

	if len(files) == 0 {
		return &exitError{code: ExitUsageError, err: errNoTestFiles}
	}

	hasErrors := false
	for _, path := range files {
		file, err := parser.ParseFile(path)
		if err == nil {
			err = parser.ValidateSchema(file)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", path, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", path)
		}
	}

	if hasErrors {
		return &exitError{code: ExitParseError, err: fmt.Errorf("validation failed")}
	}

	return nil
}
