package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// LockfileVersion is the schema version written by this tool.
const LockfileVersion = 1

// LockEntry pins one dependency. Entries are replaced wholesale, never edited
// field by field.
type LockEntry struct {
	Name        string
	Remote      Remote
	Branch      string
	Rev         string
	Digest      ContentDigest
	URL         string
	LastUpdated time.Time

	// Extra holds fields this version does not understand, kept verbatim.
	Extra map[string]json.RawMessage
}

// WebLink is derived from the remote and revision.
func (e LockEntry) WebLink() string {
	return e.Remote.WebLink(e.Rev)
}

// Lockfile maps dependency names to entries, preserving insertion order.
type Lockfile struct {
	Version int

	// Extra holds unknown top-level fields, kept verbatim.
	Extra map[string]json.RawMessage

	names   []string
	entries map[string]LockEntry
}

// NewLockfile returns a lockfile at the current schema version holding
// entries in the given order. A repeated name replaces the earlier entry in place.
func NewLockfile(entries ...LockEntry) *Lockfile {
	l := &Lockfile{
		Version: LockfileVersion,
		names:   make([]string, 0, len(entries)),
		entries: make(map[string]LockEntry, len(entries)),
	}
	for _, e := range entries {
		if _, ok := l.entries[e.Name]; !ok {
			l.names = append(l.names, e.Name)
		}
		l.entries[e.Name] = e
	}
	return l
}

// Len reports the number of entries.
func (l *Lockfile) Len() int {
	return len(l.names)
}

// Names returns entry names in insertion order.
func (l *Lockfile) Names() []string {
	return slices.Clone(l.names)
}

// Get looks up an entry by name.
func (l *Lockfile) Get(name string) (LockEntry, bool) {
	e, ok := l.entries[name]
	return e, ok
}

// Entries returns all entries in insertion order.
func (l *Lockfile) Entries() []LockEntry {
	out := make([]LockEntry, 0, len(l.names))
	for _, name := range l.names {
		out = append(out, l.entries[name])
	}
	return out
}

// Upsert returns a copy of l with entry stored under entry.Name. An existing
// key keeps its position; a new key is appended. l itself is not modified.
func (l *Lockfile) Upsert(entry LockEntry) *Lockfile {
	next := l.Clone()
	if _, ok := next.entries[entry.Name]; !ok {
		next.names = append(next.names, entry.Name)
	}
	next.entries[entry.Name] = entry
	return next
}

// Clone returns a copy that shares no maps or slices with l.
func (l *Lockfile) Clone() *Lockfile {
	next := &Lockfile{
		Version: l.Version,
		names:   slices.Clone(l.names),
		entries: make(map[string]LockEntry, len(l.entries)),
	}
	maps.Copy(next.entries, l.entries)
	if l.Extra != nil {
		next.Extra = maps.Clone(l.Extra)
	}
	return next
}

// LockfileChange is one step of an update plan.
type LockfileChange struct {
	Name string
	From string
	To   string
}
