package app

import (
	"context"
	"fmt"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// UpdateOptions configures Update and PlanUpdate.
type UpdateOptions struct {
	Lockfile string
	// Names restricts the update; empty means every entry.
	Names  []string
	DryRun bool
	// Jobs overrides the configured concurrency when positive.
	Jobs int
}

// UpdateResult reports what Update did.
type UpdateResult struct {
	Changes []domain.LockfileChange
	// Saved is true when the lockfile was rewritten.
	Saved bool
}

type plannedPin struct {
	change   domain.LockfileChange
	info     domain.RevisionInfo
	previous domain.LockEntry
}

// PlanUpdate compares each selected entry's recorded ref tip with its locked
// revision and returns the entries that moved, in lockfile order.
func (a *App) PlanUpdate(ctx context.Context, opts UpdateOptions) ([]domain.LockfileChange, error) {
	lf, err := a.store.Load(a.lockfilePath(opts.Lockfile))
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	plan, err := a.plan(ctx, lf, opts.Names, a.jobs(opts.Jobs))
	if err != nil {
		return nil, err
	}
	return changesOf(plan), nil
}

// Update plans, then pins every changed entry concurrently and saves the
// lockfile once. Any failure leaves the file untouched. A dry run stops
// after planning.
func (a *App) Update(ctx context.Context, opts UpdateOptions) (UpdateResult, error) {
	if opts.DryRun {
		changes, err := a.PlanUpdate(ctx, opts)
		if err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{Changes: changes}, nil
	}

	path := a.lockfilePath(opts.Lockfile)
	lf, err := a.store.Load(path)
	if err != nil {
		return UpdateResult{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	jobs := a.jobs(opts.Jobs)
	plan, err := a.plan(ctx, lf, opts.Names, jobs)
	if err != nil {
		return UpdateResult{}, err
	}

	result := UpdateResult{Changes: changesOf(plan)}
	if len(plan) == 0 {
		return result, nil
	}

	next, err := a.apply(ctx, lf, plan, jobs)
	if err != nil {
		return UpdateResult{}, err
	}
	if err := a.store.Save(path, next); err != nil {
		return UpdateResult{}, err
	}

	a.logger.Info(fmt.Sprintf("updated %d of %d entries", len(plan), lf.Len()))
	result.Saved = true
	return result, nil
}

func (a *App) plan(ctx context.Context, lf *domain.Lockfile, names []string, jobs int) ([]plannedPin, error) {
	entries, err := selectEntries(lf, names)
	if err != nil {
		return nil, err
	}

	slots := make([]*plannedPin, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, entry := range entries {
		g.Go(func() error {
			info, err := a.resolver.Resolve(gctx, entry.Remote, entry.Branch)
			if err != nil {
				return zerr.With(err, "name", entry.Name)
			}
			if info.Commit == entry.Rev {
				return nil
			}
			slots[i] = &plannedPin{
				change:   domain.LockfileChange{Name: entry.Name, From: entry.Rev, To: info.Commit},
				info:     info,
				previous: entry,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var plan []plannedPin
	for _, slot := range slots {
		if slot != nil {
			plan = append(plan, *slot)
		}
	}
	return plan, nil
}

// apply pins the plan with at most jobs workers. Results funnel through a
// single writer; the returned lockfile is nil on any failure.
func (a *App) apply(ctx context.Context, lf *domain.Lockfile, plan []plannedPin, jobs int) (*domain.Lockfile, error) {
	pinned := make(chan domain.LockEntry)
	next := lf
	written := make(chan struct{})
	go func() {
		defer close(written)
		for entry := range pinned {
			next = next.Upsert(entry)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, p := range plan {
		g.Go(func() error {
			entry, err := a.resolver.Pin(gctx, p.change.Name, p.info)
			if err != nil {
				return zerr.With(err, "name", p.change.Name)
			}
			entry.Extra = p.previous.Extra
			select {
			case pinned <- entry:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(pinned)
	<-written
	if err != nil {
		return nil, err
	}
	return next, nil
}

func changesOf(plan []plannedPin) []domain.LockfileChange {
	changes := make([]domain.LockfileChange, 0, len(plan))
	for _, p := range plan {
		changes = append(changes, p.change)
	}
	return changes
}
