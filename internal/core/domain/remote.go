package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Remote locates a hosted repository.
type Remote struct {
	Host  string
	Owner string
	Repo  string
}

// ParseRemote parses "[host/]owner/repo[@ref]". The host defaults to
// defaultHost and the returned ref is empty when none was given.
func ParseRemote(s, defaultHost string) (Remote, string, error) {
	locator, ref, _ := strings.Cut(s, "@")
	locator = strings.TrimSuffix(strings.TrimSuffix(locator, "/"), ".git")

	parts := strings.Split(locator, "/")
	var r Remote
	switch len(parts) {
	case 2:
		r = Remote{Host: defaultHost, Owner: parts[0], Repo: parts[1]}
	case 3:
		r = Remote{Host: parts[0], Owner: parts[1], Repo: parts[2]}
	default:
		return Remote{}, "", zerr.With(zerr.Wrap(ErrInvalidRemote, "parse remote"), "remote", s)
	}

	if r.Host == "" || r.Owner == "" || r.Repo == "" || strings.Contains(s, " ") {
		return Remote{}, "", zerr.With(zerr.Wrap(ErrInvalidRemote, "parse remote"), "remote", s)
	}
	if strings.Contains(s, "@") && ref == "" {
		return Remote{}, "", zerr.With(zerr.Wrap(ErrInvalidRemote, "empty ref"), "remote", s)
	}
	return r, ref, nil
}

// String renders "host/owner/repo".
func (r Remote) String() string {
	return r.Host + "/" + r.Owner + "/" + r.Repo
}

// CloneURL expands a template containing {host}, {owner} and {repo}.
func (r Remote) CloneURL(template string) string {
	return strings.NewReplacer(
		"{host}", r.Host,
		"{owner}", r.Owner,
		"{repo}", r.Repo,
	).Replace(template)
}

// WebLink is the browsable tree view of rev.
func (r Remote) WebLink(rev string) string {
	return "https://" + r.Host + "/" + r.Owner + "/" + r.Repo + "/tree/" + rev
}

// ArchiveURL is the tarball location a fixed-output fetch downloads for rev.
func (r Remote) ArchiveURL(rev string) string {
	return "https://" + r.Host + "/" + r.Owner + "/" + r.Repo + "/archive/" + rev + ".tar.gz"
}
