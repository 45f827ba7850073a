// Package env loads environment input for a run.
//
// It reads .env files, exposes an environment accessor for the Env template
// function, and collects seed variables from HITCHAIN_VAR_* environment
// entries and --var flags.
package env
