// Package nar implements the canonical archive encoder used for content hashing.
package nar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Archiver = (*Encoder)(nil)

// Version selects the archive grammar.
type Version int

// Version1 is "nix-archive-1", the only revision of the format in use.
const Version1 Version = 1

// alignment is the framing boundary every string is padded to.
const alignment = 8

var magic = map[Version]string{
	Version1: "nix-archive-1",
}

// Encoder serializes file trees. It holds no mutable state and is safe for
// concurrent use.
type Encoder struct {
	magic string
}

// New returns an encoder for Version1.
func New() *Encoder {
	return &Encoder{magic: magic[Version1]}
}

// NewEncoder returns an encoder for the given format version.
func NewEncoder(v Version) (*Encoder, error) {
	m, ok := magic[v]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedArchiveVersion, "new encoder"), "version", int(v))
	}
	return &Encoder{magic: m}, nil
}

// Encode returns the complete archive for root. Nothing is returned unless the
// whole tree encodes.
func (e *Encoder) Encode(root domain.FileTreeNode) ([]byte, error) {
	w := &framer{}
	w.str(e.magic)
	if err := w.wrapped(root, ""); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// EncodeTo writes the archive for root to dst. The archive is built in memory
// first so dst never receives a partial archive.
func (e *Encoder) EncodeTo(dst io.Writer, root domain.FileTreeNode) (int64, error) {
	data, err := e.Encode(root)
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(data)
	if err != nil {
		return int64(n), domain.Classify(domain.ErrIO, zerr.Wrap(err, "write archive"))
	}
	return int64(n), nil
}

type framer struct {
	buf bytes.Buffer
}

var zeroPad [alignment]byte

func (w *framer) str(s string) {
	w.length(len(s))
	w.buf.WriteString(s)
	w.pad(len(s))
}

func (w *framer) blob(b []byte) {
	w.length(len(b))
	w.buf.Write(b)
	w.pad(len(b))
}

func (w *framer) length(n int) {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(n))
	w.buf.Write(hdr[:])
}

func (w *framer) pad(n int) {
	if rem := n % alignment; rem != 0 {
		w.buf.Write(zeroPad[:alignment-rem])
	}
}

func (w *framer) wrapped(n domain.FileTreeNode, path string) error {
	w.str("(")
	if err := w.node(n, path); err != nil {
		return err
	}
	w.str(")")
	return nil
}

func (w *framer) node(n domain.FileTreeNode, path string) error {
	switch n := n.(type) {
	case *domain.Regular:
		if n == nil {
			return badNode(n, path)
		}
		w.str("type")
		w.str("regular")
		if n.Executable {
			w.str("executable")
			w.str("")
		}
		w.str("contents")
		w.blob(n.Contents)
	case *domain.Symlink:
		if n == nil {
			return badNode(n, path)
		}
		w.str("type")
		w.str("symlink")
		w.str("target")
		w.str(n.Target)
	case *domain.Directory:
		if n == nil {
			return badNode(n, path)
		}
		w.str("type")
		w.str("directory")
		for _, name := range n.Names() {
			child, _ := n.Get(name)
			w.str("entry")
			w.str("(")
			w.str("name")
			w.str(name)
			w.str("node")
			if err := w.wrapped(child, path+"/"+name); err != nil {
				return err
			}
			w.str(")")
		}
	default:
		return badNode(n, path)
	}
	return nil
}

func badNode(n domain.FileTreeNode, path string) error {
	err := zerr.With(zerr.New("unsupported tree node"), "path", displayPath(path))
	return zerr.With(err, "type", fmt.Sprintf("%T", n))
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
