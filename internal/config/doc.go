// Package config provides configuration structures and utilities for estatewatch.
// It defines the listing source, cycle schedule, storage backend, notification
// and report options, and loads them from defaults, a YAML file and the
// environment, in that order of precedence.
package config
