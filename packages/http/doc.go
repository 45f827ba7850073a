// Package http compiles resolved request definitions and executes them.
//
// It wraps the standard library's http package with additional features:
//   - Request compilation from a resolved request definition
//   - Configurable timeouts and redirect handling
//   - Optional TLS verification bypass for self-signed servers
//   - Client-side rate limiting
//   - Response snapshots for assertions and logging
package http
