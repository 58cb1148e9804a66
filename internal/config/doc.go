// Package config loads pfr-stats settings.
//
// Settings come from built-in defaults, then an optional YAML file, then
// PFR_STATS_* environment variables. Command-line flags are applied last by
// the cli package.
package config
