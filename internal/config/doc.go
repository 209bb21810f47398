// Package config defines configuration for the ctump CLI.
//
// Configuration can be provided via:
//   - YAML config file
//   - Environment variables (CTUMP_ prefix)
//   - Command-line flags (merged by the caller)
//
// Later sources override earlier ones; zero values never override.
package config
