package domain

import (
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Ref name prefixes advertised by a remote.
const (
	HeadsPrefix = "refs/heads/"
	TagsPrefix  = "refs/tags/"
	HeadRef     = "HEAD"
)

// RefKind tells a branch from a tag.
type RefKind int

// Ref kinds.
const (
	RefBranch RefKind = iota
	RefTag
	RefOther
)

func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefTag:
		return "tag"
	default:
		return "ref"
	}
}

// RemoteRefs is what a remote advertises: full ref names mapped to the commit
// they point at (tags already peeled), plus the HEAD symref target if any.
type RemoteRefs struct {
	Head string
	Refs map[string]string
}

// ResolvedRef is the outcome of matching a requested ref against RemoteRefs.
type ResolvedRef struct {
	// Name is the short branch or tag name recorded in the lockfile.
	Name   string
	Kind   RefKind
	Commit string
}

// DefaultBranch returns the short name of the branch HEAD points at.
func (r RemoteRefs) DefaultBranch() (string, bool) {
	if !strings.HasPrefix(r.Head, HeadsPrefix) {
		return "", false
	}
	return strings.TrimPrefix(r.Head, HeadsPrefix), true
}

// Resolve maps ref to a commit. An empty ref means the default branch. A
// short name matching both a branch and a tag resolves to the branch.
func (r RemoteRefs) Resolve(ref string) (ResolvedRef, error) {
	if ref == "" || ref == HeadRef {
		branch, ok := r.DefaultBranch()
		if !ok {
			return ResolvedRef{}, zerr.With(zerr.Wrap(ErrUnknownRef, "remote has no default branch"), "ref", HeadRef)
		}
		ref = branch
	}

	if strings.HasPrefix(ref, "refs/") {
		commit, ok := r.Refs[ref]
		if !ok {
			return ResolvedRef{}, zerr.With(zerr.Wrap(ErrUnknownRef, "resolve ref"), "ref", ref)
		}
		kind := RefOther
		name := ref
		switch {
		case strings.HasPrefix(ref, HeadsPrefix):
			kind, name = RefBranch, strings.TrimPrefix(ref, HeadsPrefix)
		case strings.HasPrefix(ref, TagsPrefix):
			kind, name = RefTag, strings.TrimPrefix(ref, TagsPrefix)
		}
		return ResolvedRef{Name: name, Kind: kind, Commit: commit}, nil
	}

	if commit, ok := r.Refs[HeadsPrefix+ref]; ok {
		return ResolvedRef{Name: ref, Kind: RefBranch, Commit: commit}, nil
	}
	if commit, ok := r.Refs[TagsPrefix+ref]; ok {
		return ResolvedRef{Name: ref, Kind: RefTag, Commit: commit}, nil
	}
	return ResolvedRef{}, zerr.With(zerr.Wrap(ErrUnknownRef, "resolve ref"), "ref", ref)
}

// RevisionInfo is an immutable record of one resolution.
type RevisionInfo struct {
	Remote     Remote
	Ref        string
	Commit     string
	ResolvedAt time.Time
}
