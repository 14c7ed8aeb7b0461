// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// clinvault application. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Storage holds filesystem settings for the vault database.
	Storage Storage `envPrefix:"STORAGE_" json:"storage"`

	// Clipboard holds the secure clipboard policy.
	Clipboard Clipboard `envPrefix:"CLIPBOARD_" json:"clipboard"`

	// Workers holds configuration for background workers.
	Workers Workers `envPrefix:"WORKERS_" json:"workers"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// Storage holds filesystem settings for the vault database.
type Storage struct {
	// DataDir is the directory containing vault.db. The single encrypted
	// database file is the only PHI-bearing artifact on disk.
	// Env: STORAGE_DATA_DIR
	DataDir string `env:"DATA_DIR" json:"data_dir"`
}

// Clipboard holds the secure clipboard policy.
type Clipboard struct {
	// AutoClearSeconds clears the clipboard this many seconds after a copy.
	// Zero disables auto-clear.
	// Env: CLIPBOARD_AUTO_CLEAR_SECONDS
	AutoClearSeconds int `env:"AUTO_CLEAR_SECONDS" json:"auto_clear_seconds"`

	// MaxContentLength rejects copies longer than this. Zero means no
	// limit.
	// Env: CLIPBOARD_MAX_CONTENT_LENGTH
	MaxContentLength int `env:"MAX_CONTENT_LENGTH" json:"max_content_length"`
}

// Workers holds configuration for background workers.
type Workers struct {
	// ChainVerifyInterval is how often the audit chain verifier runs while
	// the vault is unlocked (e.g. "10m").
	// Env: WORKERS_CHAIN_VERIFY_INTERVAL
	ChainVerifyInterval time.Duration `env:"CHAIN_VERIFY_INTERVAL" json:"chain_verify_interval"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (earlier sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
