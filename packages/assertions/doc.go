// Package assertions validates response snapshots against declarative checks.
//
// Each assertion selects a value with a JSONPath query over the snapshot
// ({status, statusText, headers, content}) and applies:
//   - an equality check (expect: 200), compared by JSON type and value
//   - a type check (type: string.email), evaluated as a JSON Schema predicate
//
// Validation stops at the first failing check.
package assertions
