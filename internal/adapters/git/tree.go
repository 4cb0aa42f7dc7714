package git

import (
	"bufio"
	"bytes"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.trai.ch/gridlock/internal/adapters/shell"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// Object modes reported by ls-tree.
const (
	modeTree       = "040000"
	modeFile       = "100644"
	modeExecutable = "100755"
	modeSymlink    = "120000"
	modeGitlink    = "160000"
)

// treeEntry is one record of "git ls-tree -r -t -z".
type treeEntry struct {
	mode string
	kind string
	oid  string
	path string
}

// parseTreeListing splits NUL-terminated "<mode> <type> <oid>\t<path>" records.
func parseTreeListing(out []byte) ([]treeEntry, error) {
	var entries []treeEntry
	for _, record := range bytes.Split(out, []byte{0}) {
		if len(record) == 0 {
			continue
		}

		meta, path, ok := strings.Cut(string(record), "\t")
		fields := strings.Fields(meta)
		if !ok || path == "" || len(fields) != 3 || !isObjectID(fields[2]) {
			return nil, zerr.With(zerr.Wrap(domain.ErrIncompleteExport, "malformed ls-tree record"), "record", string(record))
		}
		entries = append(entries, treeEntry{mode: fields[0], kind: fields[1], oid: fields[2], path: path})
	}
	return entries, nil
}

// catFile streams blob contents through one "git cat-file --batch" process.
type catFile struct {
	cmd    *exec.Cmd
	args   []string
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *shell.Tail
}

func (b *catFile) read(oid string) ([]byte, error) {
	if _, err := io.WriteString(b.stdin, oid+"\n"); err != nil {
		return nil, b.fail(zerr.Wrap(err, "failed to request object"), oid)
	}

	header, err := b.stdout.ReadString('\n')
	if err != nil {
		return nil, b.fail(zerr.Wrap(err, "failed to read object header"), oid)
	}

	fields := strings.Fields(header)
	if len(fields) == 2 && fields[1] == "missing" {
		return nil, b.fail(zerr.New("object missing"), oid)
	}
	if len(fields) != 3 || fields[0] != oid {
		return nil, b.fail(zerr.With(zerr.New("unexpected object header"), "header", strings.TrimSpace(header)), oid)
	}
	if fields[1] != "blob" {
		return nil, b.fail(zerr.With(zerr.New("object is not a blob"), "type", fields[1]), oid)
	}

	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || size < 0 {
		return nil, b.fail(zerr.With(zerr.New("invalid object size"), "size", fields[2]), oid)
	}

	// Contents are followed by a single LF.
	buf := make([]byte, size+1)
	if _, err := io.ReadFull(b.stdout, buf); err != nil {
		return nil, b.fail(zerr.Wrap(err, "short object read"), oid)
	}
	if buf[size] != '\n' {
		return nil, b.fail(zerr.New("object not terminated"), oid)
	}
	return buf[:size], nil
}

func (b *catFile) fail(err error, oid string) error {
	err = zerr.With(err, "object", oid)
	if s := strings.TrimSpace(b.stderr.String()); s != "" {
		err = zerr.With(err, "stderr", s)
	}
	return domain.Classify(domain.ErrIncompleteExport, err)
}

// close ends the batch and waits for the process.
func (b *catFile) close() error {
	_ = b.stdin.Close()
	if err := b.cmd.Wait(); err != nil {
		return domain.Classify(domain.ErrIncompleteExport, shell.CommandError(err, b.args, b.stderr.String()))
	}
	return nil
}

// abort kills the process without draining its output.
func (b *catFile) abort() {
	_ = b.stdin.Close()
	if b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
	_ = b.cmd.Wait()
}
