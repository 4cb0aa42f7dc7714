// Package app implements the application layer for gridlock.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/gridlock/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App wires the lockfile store, the resolver and the local archivers to the
// CLI verbs.
type App struct {
	store    ports.LockfileStore
	resolver *resolver.Resolver
	importer ports.TreeImporter
	archiver ports.Archiver
	digester ports.Digester
	logger   ports.Logger
	config   domain.Config
}

// New creates a new App instance.
func New(
	store ports.LockfileStore,
	res *resolver.Resolver,
	importer ports.TreeImporter,
	archiver ports.Archiver,
	digester ports.Digester,
	log ports.Logger,
	cfg domain.Config,
) *App {
	return &App{
		store:    store,
		resolver: res,
		importer: importer,
		archiver: archiver,
		digester: digester,
		logger:   log,
		config:   cfg,
	}
}

// Config returns the configuration the App was built with.
func (a *App) Config() domain.Config {
	return a.config
}

func (a *App) lockfilePath(override string) string {
	if override != "" {
		return override
	}
	return a.config.Lockfile
}

func (a *App) jobs(override int) int {
	if override > 0 {
		return override
	}
	return a.config.Jobs
}

// withTimeout bounds ctx by the configured overall timeout, if any.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout > 0 {
		return context.WithTimeout(ctx, a.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// Init creates an empty lockfile and returns its path.
func (a *App) Init(_ context.Context, lockfile string) (string, error) {
	path := a.lockfilePath(lockfile)
	if err := a.store.Init(path); err != nil {
		return "", err
	}
	a.logger.Info(fmt.Sprintf("created %s", path))
	return path, nil
}

// AddOptions configures Add.
type AddOptions struct {
	Lockfile string
	// Source is "[host/]owner/repo[@ref]".
	Source string
	// Name defaults to the repository name.
	Name string
}

// Add resolves, pins and stores one dependency. The lockfile is written only
// after the entry is complete.
func (a *App) Add(ctx context.Context, opts AddOptions) (domain.LockEntry, error) {
	remote, ref, err := domain.ParseRemote(opts.Source, a.config.DefaultHost)
	if err != nil {
		return domain.LockEntry{}, domain.Classify(domain.ErrUsage, err)
	}

	name := opts.Name
	if name == "" {
		name = remote.Repo
	}
	if strings.TrimSpace(name) == "" {
		return domain.LockEntry{}, zerr.Wrap(domain.ErrUsage, "dependency name must not be empty")
	}

	path := a.lockfilePath(opts.Lockfile)
	lf, err := a.store.Load(path)
	if err != nil {
		return domain.LockEntry{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	entry, err := a.resolver.Lock(ctx, name, remote, ref)
	if err != nil {
		return domain.LockEntry{}, zerr.With(err, "name", name)
	}

	if err := a.store.Save(path, lf.Upsert(entry)); err != nil {
		return domain.LockEntry{}, err
	}
	return entry, nil
}

// ShowOptions configures Show.
type ShowOptions struct {
	Lockfile string
	// Names restricts the output; empty means every entry.
	Names []string
}

// Show returns the selected entries in lockfile order.
func (a *App) Show(_ context.Context, opts ShowOptions) ([]domain.LockEntry, error) {
	lf, err := a.store.Load(a.lockfilePath(opts.Lockfile))
	if err != nil {
		return nil, err
	}
	return selectEntries(lf, opts.Names)
}

// selectEntries returns the named entries in lockfile order, or all of them
// when names is empty. An unknown name is ErrNotFound.
func selectEntries(lf *domain.Lockfile, names []string) ([]domain.LockEntry, error) {
	if len(names) == 0 {
		return lf.Entries(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := lf.Get(name); !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "no such dependency"), "name", name)
		}
		wanted[name] = true
	}

	var out []domain.LockEntry
	for _, entry := range lf.Entries() {
		if wanted[entry.Name] {
			out = append(out, entry)
		}
	}
	return out, nil
}
