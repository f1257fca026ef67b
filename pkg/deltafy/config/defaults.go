// Package config loads deltafy settings from a YAML file, DELTAFY_*
// environment variables and command-line flags, in increasing precedence.
package config

import "time"

// Default configuration values.
const (
	// DefaultBackend is the store implementation used when none is configured.
	DefaultBackend = "sqlite"

	// DefaultInterval is the pause between scans in watch mode.
	DefaultInterval = time.Second

	// DefaultOutput is the default output format.
	DefaultOutput = "plain"

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the log rotation threshold.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is how many rotated log files are kept.
	DefaultLogMaxBackups = 5

	// EnvPrefix prefixes every environment override, e.g. DELTAFY_STORE_BACKEND.
	EnvPrefix = "DELTAFY"
)
