// Package config provides the configuration loader for gridlock.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Candidate config file names, in lookup order.
var configNames = []string{
	domain.ConfigFileBase + ".yaml",
	domain.ConfigFileBase + ".yml",
	domain.ConfigFileBase + ".toml",
}

// Environment variable suffixes after domain.EnvPrefix.
const (
	envLockfile         = "LOCKFILE"
	envGit              = "GIT"
	envDefaultHost      = "DEFAULT_HOST"
	envURLTemplate      = "URL_TEMPLATE"
	envJobs             = "JOBS"
	envTimeout          = "TIMEOUT"
	envBlobCacheEntries = "BLOB_CACHE_ENTRIES"
	envScratchDir       = "SCRATCH_DIR"
	envLogFormat        = "LOG_FORMAT"
)

// Loader implements ports.ConfigLoader. Layers, lowest first: built-in
// defaults, the nearest config file, .env in the working directory, then the
// process environment.
type Loader struct {
	Logger    ports.Logger
	FS        FileSystem
	LookupEnv func(key string) (string, bool)
}

// NewLoader creates a new Loader reading the real file system and environment.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS(), LookupEnv: os.LookupEnv}
}

// Load resolves the configuration for cwd.
func (l *Loader) Load(cwd string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return domain.Config{}, err
	}
	if configPath != "" {
		file, err := l.readFile(configPath)
		if err != nil {
			return domain.Config{}, zerr.With(err, "path", configPath)
		}
		if err := applyFile(&cfg, file, filepath.Dir(configPath)); err != nil {
			return domain.Config{}, zerr.With(err, "path", configPath)
		}
	}

	dotenv, err := l.readDotenv(cwd)
	if err != nil {
		return domain.Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := l.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return domain.Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// findConfiguration returns the nearest config file at or above cwd, or "".
func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		var found []string
		for _, name := range configNames {
			candidate := filepath.Join(currentDir, name)
			if _, err := l.FS.Stat(candidate); err == nil {
				found = append(found, candidate)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", zerr.With(domain.Classify(domain.ErrConfigReadFailed, err), "path", candidate)
			}
		}

		if len(found) > 0 {
			if len(found) > 1 && l.Logger != nil {
				l.Logger.Warn(fmt.Sprintf("multiple config files in %s, using %s", currentDir, filepath.Base(found[0])))
			}
			return found[0], nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", nil
		}
		currentDir = parentDir
	}
}

func (l *Loader) readFile(path string) (File, error) {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return File{}, domain.Classify(domain.ErrConfigReadFailed, err)
	}

	var file File
	if strings.HasSuffix(path, ".toml") {
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return File{}, domain.Classify(domain.ErrConfigParseFailed, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return File{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unknown key"), "key", undecoded[0].String())
		}
		return file, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, domain.Classify(domain.ErrConfigParseFailed, err)
	}
	return file, nil
}

// readDotenv parses cwd/.env if present.
func (l *Loader) readDotenv(cwd string) (map[string]string, error) {
	path := filepath.Join(cwd, domain.EnvFileName)
	data, err := l.FS.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(domain.Classify(domain.ErrConfigReadFailed, err), "path", path)
	}

	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrConfigParseFailed, err), "path", path)
	}
	return values, nil
}

// applyFile overlays the config file. Relative paths resolve against the
// file's directory.
func applyFile(cfg *domain.Config, file File, baseDir string) error {
	if file.Lockfile != "" {
		cfg.Lockfile = resolvePath(baseDir, file.Lockfile)
	}
	if file.Git != "" {
		cfg.Git = file.Git
	}
	if file.DefaultHost != "" {
		cfg.DefaultHost = file.DefaultHost
	}
	if file.URLTemplate != "" {
		cfg.URLTemplate = file.URLTemplate
	}
	if file.Jobs != nil {
		cfg.Jobs = *file.Jobs
	}
	if file.Timeout != "" {
		timeout, err := parseTimeout("timeout", file.Timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = timeout
	}
	if file.BlobCacheEntries != nil {
		cfg.BlobCacheEntries = *file.BlobCacheEntries
	}
	if file.ScratchDir != "" {
		cfg.ScratchDir = resolvePath(baseDir, file.ScratchDir)
	}
	if file.LogFormat != "" {
		cfg.LogFormat = domain.LogFormat(file.LogFormat)
	}
	return nil
}

func applyEnv(cfg *domain.Config, lookup func(string) (string, bool)) error {
	get := func(suffix string) (string, bool) {
		v, ok := lookup(domain.EnvPrefix + suffix)
		return v, ok && v != ""
	}

	if v, ok := get(envLockfile); ok {
		cfg.Lockfile = v
	}
	if v, ok := get(envGit); ok {
		cfg.Git = v
	}
	if v, ok := get(envDefaultHost); ok {
		cfg.DefaultHost = v
	}
	if v, ok := get(envURLTemplate); ok {
		cfg.URLTemplate = v
	}
	if v, ok := get(envJobs); ok {
		jobs, err := parseInt(domain.EnvPrefix+envJobs, v)
		if err != nil {
			return err
		}
		cfg.Jobs = jobs
	}
	if v, ok := get(envTimeout); ok {
		timeout, err := parseTimeout(domain.EnvPrefix+envTimeout, v)
		if err != nil {
			return err
		}
		cfg.Timeout = timeout
	}
	if v, ok := get(envBlobCacheEntries); ok {
		entries, err := parseInt(domain.EnvPrefix+envBlobCacheEntries, v)
		if err != nil {
			return err
		}
		cfg.BlobCacheEntries = entries
	}
	if v, ok := get(envScratchDir); ok {
		cfg.ScratchDir = v
	}
	if v, ok := get(envLogFormat); ok {
		cfg.LogFormat = domain.LogFormat(v)
	}
	return nil
}

// Validate rejects out-of-range values.
func Validate(cfg domain.Config) error {
	switch {
	case cfg.Lockfile == "":
		return invalid("lockfile", cfg.Lockfile)
	case cfg.Git == "":
		return invalid("git", cfg.Git)
	case cfg.DefaultHost == "":
		return invalid("default_host", cfg.DefaultHost)
	case !strings.Contains(cfg.URLTemplate, "{repo}"):
		return invalid("url_template", cfg.URLTemplate)
	case cfg.Jobs < 1:
		return invalid("jobs", cfg.Jobs)
	case cfg.Timeout < 0:
		return invalid("timeout", cfg.Timeout.String())
	case cfg.BlobCacheEntries < 0:
		return invalid("blob_cache_entries", cfg.BlobCacheEntries)
	case cfg.LogFormat != domain.LogFormatPretty && cfg.LogFormat != domain.LogFormatJSON:
		return invalid("log_format", string(cfg.LogFormat))
	}
	return nil
}

func invalid(key string, value any) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid value"), "key", key), "value", value)
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, zerr.With(domain.Classify(domain.ErrInvalidConfig, err), "key", key)
	}
	return n, nil
}

func parseTimeout(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, zerr.With(domain.Classify(domain.ErrInvalidConfig, err), "key", key)
	}
	return d, nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
