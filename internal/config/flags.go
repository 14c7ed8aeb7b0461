package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags reads command-line flags into a partial [StructuredConfig].
//
// Flags:
//
//	-d / -data-dir   vault data directory
//	-c / -config     JSON config file path
//
// Flag parsing never fails: a parse error such as an unknown flag is printed
// by the flag package and otherwise ignored; parsing stops at that flag and
// the values read before it are kept.
func ParseFlags() *StructuredConfig {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	var cfg StructuredConfig
	fs.StringVar(&cfg.Storage.DataDir, "d", "", "vault data directory")
	fs.StringVar(&cfg.Storage.DataDir, "data-dir", "", "vault data directory")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path")
	fs.IntVar(&cfg.Clipboard.AutoClearSeconds, "clipboard-clear", 0, "clipboard auto-clear seconds (0 disables)")
	fs.DurationVar(&cfg.Workers.ChainVerifyInterval, "chain-verify-interval", 0*time.Second, "audit chain verification interval")

	// Ignore parse errors for unknown flags so the binary stays usable with
	// partial flag sets in tests.
	_ = fs.Parse(os.Args[1:])
	return &cfg
}
