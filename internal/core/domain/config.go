package domain

import (
	"runtime"
	"time"
)

// LogFormat selects the logger output.
type LogFormat string

// Log formats.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Config is the resolved configuration after file, dotenv and environment layers.
type Config struct {
	Lockfile         string
	Git              string
	DefaultHost      string
	URLTemplate      string
	Jobs             int
	Timeout          time.Duration
	BlobCacheEntries int
	ScratchDir       string
	LogFormat        LogFormat
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Lockfile:         DefaultLockfileName,
		Git:              "git",
		DefaultHost:      DefaultHost,
		URLTemplate:      DefaultURLTemplate,
		Jobs:             runtime.NumCPU(),
		BlobCacheEntries: DefaultBlobCacheEntries,
		LogFormat:        LogFormatPretty,
	}
}
