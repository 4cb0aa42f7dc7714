// Package resolver turns a remote and a ref into a pinned lock entry.
package resolver

import (
	"bytes"
	"context"
	"time"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Resolver resolves refs through a RemoteGit and pins the resulting trees.
// It holds no lockfile state, so concurrent calls for different
// dependencies are independent.
type Resolver struct {
	git         ports.RemoteGit
	archiver    ports.Archiver
	digester    ports.Digester
	telemetry   ports.Telemetry
	urlTemplate string
	now         func() time.Time

	pins singleflight.Group
}

// New creates a Resolver. Clone URLs are built from urlTemplate.
func New(
	git ports.RemoteGit,
	archiver ports.Archiver,
	digester ports.Digester,
	telemetry ports.Telemetry,
	urlTemplate string,
) *Resolver {
	return &Resolver{
		git:         git,
		archiver:    archiver,
		digester:    digester,
		telemetry:   telemetry,
		urlTemplate: urlTemplate,
		now:         time.Now,
	}
}

// CloneURL returns the URL the version-control client is pointed at.
func (r *Resolver) CloneURL(remote domain.Remote) string {
	return remote.CloneURL(r.urlTemplate)
}

// Resolve lists the refs of remote and maps ref to a commit. An empty ref
// selects the remote's default branch.
func (r *Resolver) Resolve(ctx context.Context, remote domain.Remote, ref string) (domain.RevisionInfo, error) {
	url := r.CloneURL(remote)
	refs, err := r.git.ListRefs(ctx, url)
	if err != nil {
		return domain.RevisionInfo{}, zerr.With(err, "remote", remote.String())
	}

	resolved, err := refs.Resolve(ref)
	if err != nil {
		return domain.RevisionInfo{}, zerr.With(err, "remote", remote.String())
	}

	return domain.RevisionInfo{
		Remote:     remote,
		Ref:        resolved.Name,
		Commit:     resolved.Commit,
		ResolvedAt: r.now().UTC().Truncate(time.Second),
	}, nil
}

// Pin exports the tree of info.Commit, encodes and digests it, and returns
// the entry to store under name. Identical (url, commit) pins running at the
// same time share one export.
func (r *Resolver) Pin(ctx context.Context, name string, info domain.RevisionInfo) (entry domain.LockEntry, err error) {
	ctx, vertex := r.telemetry.Record(ctx, "pin "+name+" "+shortRev(info.Commit))

	url := r.CloneURL(info.Remote)
	key := url + "\x00" + info.Commit
	value, err, shared := r.pins.Do(key, func() (any, error) {
		return r.digestCommit(ctx, url, info.Commit)
	})
	if err != nil {
		vertex.Complete(err)
		return domain.LockEntry{}, zerr.With(zerr.With(err, "remote", info.Remote.String()), "commit", info.Commit)
	}
	if shared {
		vertex.Cached()
	} else {
		vertex.Complete(nil)
	}

	digest, ok := value.(domain.ContentDigest)
	if !ok {
		return domain.LockEntry{}, zerr.New("unexpected pin result")
	}

	return domain.LockEntry{
		Name:        name,
		Remote:      info.Remote,
		Branch:      info.Ref,
		Rev:         info.Commit,
		Digest:      digest,
		URL:         info.Remote.ArchiveURL(info.Commit),
		LastUpdated: info.ResolvedAt,
	}, nil
}

// Lock resolves ref and pins the result under name.
func (r *Resolver) Lock(ctx context.Context, name string, remote domain.Remote, ref string) (domain.LockEntry, error) {
	info, err := r.Resolve(ctx, remote, ref)
	if err != nil {
		return domain.LockEntry{}, err
	}
	return r.Pin(ctx, name, info)
}

func (r *Resolver) digestCommit(ctx context.Context, url, commit string) (domain.ContentDigest, error) {
	tree, err := r.git.FetchTree(ctx, url, commit)
	if err != nil {
		return domain.ContentDigest{}, err
	}

	archive, err := r.archiver.Encode(tree)
	if err != nil {
		return domain.ContentDigest{}, domain.Classify(domain.ErrIncompleteExport, err)
	}

	if v, ok := ports.VertexFromContext(ctx); ok {
		_, _ = v.Stdout().Write([]byte("archive " + formatSize(len(archive)) + "\n"))
	}

	return r.digester.Digest(bytes.NewReader(archive))
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
