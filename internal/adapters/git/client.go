// Package git implements the version-control collaborator on top of the git
// executable: reference listing and shallow single-commit tree export.
package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/gridlock/internal/adapters/shell"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RemoteGit = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// Program is the git executable, resolved against PATH.
	Program string
	// ScratchDir keeps one bare repository per remote URL. Empty means a
	// fresh temporary repository per fetch.
	ScratchDir string
	// BlobCacheEntries bounds the in-process blob cache. Zero disables it.
	BlobCacheEntries int
}

// Client talks to remotes through the git executable.
type Client struct {
	runner     *shell.Runner
	scratchDir string
	blobs      *lru.Cache[string, []byte]
	locks      sync.Map
}

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	program := opts.Program
	if program == "" {
		program = "git"
	}

	c := &Client{
		runner: shell.NewRunner(program, map[string]string{
			"GIT_TERMINAL_PROMPT": "0",
			"LC_ALL":              "C",
		}),
		scratchDir: opts.ScratchDir,
	}

	if opts.BlobCacheEntries > 0 {
		cache, err := lru.New[string, []byte](opts.BlobCacheEntries)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create blob cache"), "entries", opts.BlobCacheEntries)
		}
		c.blobs = cache
	}

	return c, nil
}

// ListRefs runs "git ls-remote --symref" against url.
func (c *Client) ListRefs(ctx context.Context, url string) (domain.RemoteRefs, error) {
	var out bytes.Buffer
	if err := c.runner.Run(ctx, "", nil, &out, "ls-remote", "--symref", url); err != nil {
		return domain.RemoteRefs{}, zerr.With(domain.Classify(domain.ErrRemoteUnavailable, err), "url", url)
	}

	refs, err := ParseLsRemote(out.Bytes())
	if err != nil {
		return domain.RemoteRefs{}, zerr.With(err, "url", url)
	}
	return refs, nil
}

// FetchTree fetches commit from url at depth 1 into a scratch bare repository
// and exports its root tree. Modes come from the git objects, never from the
// local file system.
func (c *Client) FetchTree(ctx context.Context, url, commit string) (*domain.Directory, error) {
	repo, release, err := c.scratch(url)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.runner.Run(ctx, "", nil, nil, "init", "--bare", "-q", repo); err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrIO, err), "path", repo)
	}

	gitDir := "--git-dir=" + repo
	if err := c.runner.Run(ctx, "", nil, nil, gitDir, "fetch", "--depth", "1", "--no-tags", "-q", url, commit); err != nil {
		return nil, c.fetchError(domain.ErrRemoteUnavailable, err, url, commit)
	}

	var listing bytes.Buffer
	if err := c.runner.Run(ctx, "", nil, &listing, gitDir, "ls-tree", "-r", "-t", "-z", "--full-tree", commit); err != nil {
		return nil, c.fetchError(domain.ErrIncompleteExport, err, url, commit)
	}

	entries, err := parseTreeListing(listing.Bytes())
	if err != nil {
		return nil, c.fetchError(domain.ErrIncompleteExport, err, url, commit)
	}

	tree, err := c.buildTree(ctx, gitDir, entries)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "url", url), "commit", commit)
	}
	return tree, nil
}

func (c *Client) fetchError(sentinel, err error, url, commit string) error {
	return zerr.With(zerr.With(domain.Classify(sentinel, err), "url", url), "commit", commit)
}

func (c *Client) buildTree(ctx context.Context, gitDir string, entries []treeEntry) (tree *domain.Directory, err error) {
	tree = domain.NewDirectory()

	var batch *catFile
	defer func() {
		if batch == nil {
			return
		}
		if err != nil {
			batch.abort()
			return
		}
		err = batch.close()
		if err != nil {
			tree = nil
		}
	}()

	blob := func(oid string) ([]byte, error) {
		if c.blobs != nil {
			if data, ok := c.blobs.Get(oid); ok {
				return data, nil
			}
		}
		if batch == nil {
			opened, err := c.openCatFile(ctx, gitDir)
			if err != nil {
				return nil, err
			}
			batch = opened
		}
		data, err := batch.read(oid)
		if err != nil {
			return nil, err
		}
		if c.blobs != nil {
			c.blobs.Add(oid, data)
		}
		return data, nil
	}

	for _, e := range entries {
		var node domain.FileTreeNode
		switch e.mode {
		case modeTree:
			node = domain.NewDirectory()
		case modeGitlink:
			// Submodules are not part of the exported tree.
			continue
		case modeFile, modeExecutable, modeSymlink:
			data, err := blob(e.oid)
			if err != nil {
				return nil, zerr.With(err, "path", e.path)
			}
			if e.mode == modeSymlink {
				node = &domain.Symlink{Target: string(data)}
			} else {
				node = &domain.Regular{Contents: data, Executable: e.mode == modeExecutable}
			}
		default:
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrIncompleteExport, "unsupported object mode"), "mode", e.mode), "path", e.path)
		}

		if err := tree.Insert(e.path, node); err != nil {
			return nil, domain.Classify(domain.ErrIncompleteExport, err)
		}
	}

	return tree, nil
}

func (c *Client) openCatFile(ctx context.Context, gitDir string) (*catFile, error) {
	args := []string{gitDir, "cat-file", "--batch"}
	cmd := c.runner.Command(ctx, "", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to open cat-file stdin"))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to open cat-file stdout"))
	}
	tail := shell.NewTail()
	cmd.Stderr = shell.StderrFor(ctx, tail)

	if err := cmd.Start(); err != nil {
		return nil, domain.Classify(domain.ErrIncompleteExport, shell.CommandError(err, args, ""))
	}

	return &catFile{
		cmd:    cmd,
		args:   args,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: tail,
	}, nil
}

// scratch returns the bare repository directory for url and a release func.
// Persistent repositories are keyed by a hash of the URL and serialized per
// key.
func (c *Client) scratch(url string) (string, func(), error) {
	if c.scratchDir == "" {
		dir, err := os.MkdirTemp("", "gridlock-git-*")
		if err != nil {
			return "", nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to create scratch repository"))
		}
		return dir, func() { _ = os.RemoveAll(dir) }, nil
	}

	dir := filepath.Join(c.scratchDir, "git", fmt.Sprintf("%016x", xxhash.Sum64String(url)))
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", nil, zerr.With(domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to create scratch repository")), "path", dir)
	}

	mu, _ := c.locks.LoadOrStore(dir, &sync.Mutex{})
	lock := mu.(*sync.Mutex) //nolint:errcheck,forcetypeassert // Only mutexes are stored
	lock.Lock()
	return dir, lock.Unlock, nil
}
