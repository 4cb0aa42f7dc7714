package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// FileTreeNode is one node of a file-tree snapshot. The set of implementations
// is closed: *Regular, *Symlink and *Directory.
type FileTreeNode interface {
	isFileTreeNode()
}

// Regular is a regular file.
type Regular struct {
	Contents   []byte
	Executable bool
}

// Symlink is a symbolic link. Target is kept verbatim.
type Symlink struct {
	Target string
}

// Directory owns its children, keyed by entry name.
type Directory struct {
	entries map[string]FileTreeNode
}

func (*Regular) isFileTreeNode()   {}
func (*Symlink) isFileTreeNode()   {}
func (*Directory) isFileTreeNode() {}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]FileTreeNode)}
}

// Put adds or replaces the child called name.
func (d *Directory) Put(name string, child FileTreeNode) error {
	if err := ValidateEntryName(name); err != nil {
		return err
	}
	if d.entries == nil {
		d.entries = make(map[string]FileTreeNode)
	}
	d.entries[name] = child
	return nil
}

// Get returns the child called name.
func (d *Directory) Get(name string) (FileTreeNode, bool) {
	child, ok := d.entries[name]
	return child, ok
}

// Len reports the number of direct children.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Names returns the child names in strictly increasing byte order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	// Go string comparison is bytewise, which is the order the archive format requires.
	slices.Sort(names)
	return names
}

// Insert places child at the slash-separated path below d, creating
// intermediate directories. An existing directory at the final component is
// kept when child is also a directory so that entries seen before their parent
// header survive.
func (d *Directory) Insert(path string, child FileTreeNode) error {
	parts := SplitTreePath(path)
	if len(parts) == 0 {
		return zerr.With(zerr.Wrap(ErrInvalidName, "empty path"), "path", path)
	}

	cur := d
	for i, part := range parts[:len(parts)-1] {
		next, ok := cur.entries[part]
		if !ok {
			dir := NewDirectory()
			if err := cur.Put(part, dir); err != nil {
				return zerr.With(err, "path", path)
			}
			cur = dir
			continue
		}
		dir, isDir := next.(*Directory)
		if !isDir {
			return zerr.With(zerr.Wrap(ErrNotADirectory, "insert"), "path", strings.Join(parts[:i+1], "/"))
		}
		cur = dir
	}

	last := parts[len(parts)-1]
	if _, isDir := child.(*Directory); isDir {
		if _, ok := cur.entries[last].(*Directory); ok {
			return nil
		}
	}
	if err := cur.Put(last, child); err != nil {
		return zerr.With(err, "path", path)
	}
	return nil
}

// Lookup returns the node at the slash-separated path below d.
func (d *Directory) Lookup(path string) (FileTreeNode, bool) {
	parts := SplitTreePath(path)
	if len(parts) == 0 {
		return d, true
	}
	cur := d
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur.entries[part].(*Directory)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur.Get(parts[len(parts)-1])
}

// ImportOptions controls how a local source becomes a file tree.
type ImportOptions struct {
	// StripComponents drops that many leading path components from archive members.
	StripComponents int
	// IncludeVCS keeps .git and .jj directories when importing a directory.
	IncludeVCS bool
}

// SplitTreePath splits p on '/' and drops empty and "." components.
func SplitTreePath(p string) []string {
	raw := strings.Split(p, "/")
	parts := raw[:0]
	for _, part := range raw {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// ValidateEntryName rejects names that cannot appear in a directory entry.
func ValidateEntryName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return zerr.With(zerr.Wrap(ErrInvalidName, "validate name"), "name", name)
	}
	return nil
}
