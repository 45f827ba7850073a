// Package config handles configuration loading and management for hitchain.
//
// It provides functionality for:
//   - Loading configuration from .hitchain.config.json and related files
//   - Default configuration values
//   - Merging a file configuration with command line overrides
package config
