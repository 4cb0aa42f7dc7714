package domain

const (
	// DefaultLockfileName is the conventional lockfile path relative to the working directory.
	DefaultLockfileName = "gridlock.json"

	// ConfigFileBase is the config file name without extension.
	ConfigFileBase = ".gridlock"

	// EnvFileName is the optional dotenv file read during config loading.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment variable the tool reads.
	EnvPrefix = "GRIDLOCK_"

	// DefaultHost is the host assumed when a remote locator names only owner/repo.
	DefaultHost = "github.com"

	// DefaultURLTemplate builds the clone URL for a remote.
	DefaultURLTemplate = "https://{host}/{owner}/{repo}.git"

	// DefaultBlobCacheEntries bounds the in-process blob cache.
	DefaultBlobCacheEntries = 4096

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)
