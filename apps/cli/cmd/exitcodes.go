package cmd

// Exit codes for hitchain CLI
const (
	// ExitSuccess indicates all requests passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more requests failed
	ExitTestFailure = 1

	// ExitParseError indicates a test file could not be loaded
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
