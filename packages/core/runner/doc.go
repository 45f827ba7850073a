// Package runner executes test files against one shared run state.
//
// Files run in order, and requests run in document order within a file.
// For each request the runner:
//   - waits for the configured delay
//   - resolves the request template against the accumulated state
//   - skips it when its if condition does not hold
//   - sends it and stores the response body under the request name
//   - validates the response and retries within the max_retries budget
//
// A terminal failure aborts the remaining requests unless NoAbort is set.
package runner
