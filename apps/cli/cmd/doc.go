// Package cmd implements the hitchain CLI commands using Cobra.
//
// Available commands:
//   - run: Execute test files in order against one shared state
//   - validate: Check test file structure without executing
//   - list: Display the requests defined in files
//   - init: Create an example test file
//   - version: Show hitchain version information
package cmd
