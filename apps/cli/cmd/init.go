package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitchain project",
	Long: `Initialize a new hitchain project in the current directory.

This creates:
  - .hitchain.config.json  - Configuration file
  - example.yml            - Example test file

Examples:
  hitchain init
  hitchain init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleTestFile = `variables:
  baseUrl: https://jsonplaceholder.typicode.com

requests:
  createPost:
    request:
      url: <$ .baseUrl $>/posts
      method: POST
      headers:
        Content-Type: application/json
      postData:
        params:
          title: <$ Faker "lorem.sentence" $>
          userId: 1
    validate:
      - jsonpath: $.status
        expect: 201
      - jsonpath: $.content.id
        type: number

  getUser:
    request:
      url: <$ .baseUrl $>/users/<$ .createPost.userId $>
      method: GET
    validate:
      max_retries: 3
      checks:
        - jsonpath: $.status
          expect: 200
        - jsonpath: $.content.email
          type: string.email
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.yml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return &exitError{code: ExitUsageError, err: fmt.Errorf("file already exists: %s (use --force to overwrite)", f)}
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "hitchain/" + version,
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleTestFile), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitchain project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitchain run example.yml' to execute the example tests.\n")

	return nil
}
