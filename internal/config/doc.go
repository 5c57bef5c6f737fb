// Package config loads and validates the marketd YAML configuration.
//
// Files may reference environment variables with ${VAR} syntax; they are
// expanded before parsing, which keeps credentials out of the file
// itself.
package config
