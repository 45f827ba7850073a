// Package parser loads hitchain test files.
//
// A test file is a YAML document that is also a template. Before rendering,
// the parser reads only what the runner needs up front:
//   - variables, merged into the run state before the file's requests run
//   - allowInsecure, which disables TLS verification for the rest of the run
//   - the request names in document order, with their delay and
//     validate.max_retries settings
//
// The request bodies themselves are decoded into RequestSpec after the
// template has been rendered against the current state.
package parser
