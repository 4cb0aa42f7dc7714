package config

// File is the structure of .gridlock.yaml / .gridlock.toml. Unset keys keep
// their defaults.
type File struct {
	Lockfile         string `yaml:"lockfile" toml:"lockfile"`
	Git              string `yaml:"git" toml:"git"`
	DefaultHost      string `yaml:"default_host" toml:"default_host"`
	URLTemplate      string `yaml:"url_template" toml:"url_template"`
	Jobs             *int   `yaml:"jobs" toml:"jobs"`
	Timeout          string `yaml:"timeout" toml:"timeout"`
	BlobCacheEntries *int   `yaml:"blob_cache_entries" toml:"blob_cache_entries"`
	ScratchDir       string `yaml:"scratch_dir" toml:"scratch_dir"`
	LogFormat        string `yaml:"log_format" toml:"log_format"`
}
