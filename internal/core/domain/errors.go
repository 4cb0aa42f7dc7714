package domain

import "go.trai.ch/zerr"

// Classification sentinels. Callers test for them with errors.Is; every
// failure surfaced by the core carries exactly one of them.
var (
	// ErrUsage is returned when the command line is malformed.
	ErrUsage = zerr.New("usage error")

	// ErrUnknownRef is returned when a ref is not advertised by the remote.
	ErrUnknownRef = zerr.New("unknown ref")

	// ErrRemoteUnavailable is returned when the remote cannot be reached or the
	// version-control process fails.
	ErrRemoteUnavailable = zerr.New("remote unavailable")

	// ErrIncompleteExport is returned when a resolved commit's tree cannot be
	// fully materialized.
	ErrIncompleteExport = zerr.New("incomplete tree export")

	// ErrIO is returned when a local file cannot be read or written.
	ErrIO = zerr.New("i/o failure")

	// ErrParse is returned when an existing lockfile is malformed.
	ErrParse = zerr.New("malformed lockfile")

	// ErrAlreadyExists is returned by init when a lockfile is already present.
	ErrAlreadyExists = zerr.New("lockfile already exists")

	// ErrNotFound is returned when a lockfile or a named entry does not exist.
	ErrNotFound = zerr.New("not found")
)

var (
	// ErrInvalidRemote is returned when a remote locator cannot be parsed.
	ErrInvalidRemote = zerr.New("remote must be formatted like [host/]owner/repo[@ref]")

	// ErrInvalidDigest is returned when a digest string cannot be decoded.
	ErrInvalidDigest = zerr.New("invalid content digest")

	// ErrUnsupportedArchiveVersion is returned when an encoder is requested for an unknown format version.
	ErrUnsupportedArchiveVersion = zerr.New("unsupported archive version")

	// ErrNotADirectory is returned when a child is inserted below a non-directory node.
	ErrNotADirectory = zerr.New("attempt to insert into a non-directory")

	// ErrInvalidName is returned when a tree entry name is empty, ".", "..", or contains a slash or NUL.
	ErrInvalidName = zerr.New("invalid tree entry name")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")
)

// Classify attaches a classification sentinel to cause while keeping cause's
// message chain intact. A nil cause yields nil.
func Classify(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return &classified{sentinel: sentinel, cause: cause}
}

type classified struct {
	sentinel error
	cause    error
}

func (c *classified) Error() string {
	return c.sentinel.Error() + ": " + c.cause.Error()
}

// Message reports only the sentinel so chain renderers print the cause on its own line.
func (c *classified) Message() string {
	return c.sentinel.Error()
}

func (c *classified) Unwrap() []error {
	return []error{c.sentinel, c.cause}
}
