// Package shell runs external commands with a merged environment, captured
// stderr and progress mirroring.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

// stderrLimit bounds the stderr tail kept for error metadata.
const stderrLimit = 4 << 10

// Runner executes one program with a fixed environment overlay.
type Runner struct {
	program string
	env     []string
}

// NewRunner creates a Runner for program. overrides are layered on top of
// os.Environ().
func NewRunner(program string, overrides map[string]string) *Runner {
	env := resolveEnvironment(os.Environ(), overrides)

	// Resolve the executable against the merged PATH.
	executable := program
	if !filepath.IsAbs(program) && !strings.ContainsRune(program, os.PathSeparator) {
		if lp, err := lookPath(program, env); err == nil {
			executable = lp
		}
	}

	return &Runner{program: executable, env: env}
}

// Program returns the resolved executable.
func (r *Runner) Program() string {
	return r.program
}

// Command returns an *exec.Cmd without starting it. Stderr is left unset.
func (r *Runner) Command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.program, args...) //nolint:gosec // Program comes from configuration
	cmd.Dir = dir
	cmd.Env = r.env
	return cmd
}

// Run executes the program in dir. stdin and stdout may be nil. Stderr is
// captured for the returned error and mirrored to the vertex carried by ctx.
func (r *Runner) Run(ctx context.Context, dir string, stdin io.Reader, stdout io.Writer, args ...string) error {
	cmd := r.Command(ctx, dir, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	stderr := NewTail()
	cmd.Stderr = StderrFor(ctx, stderr)

	if err := cmd.Run(); err != nil {
		return CommandError(err, args, stderr.String())
	}
	return nil
}

// StderrFor tees w into the stderr of the vertex carried by ctx, if any.
func StderrFor(ctx context.Context, w io.Writer) io.Writer {
	if v, ok := ports.VertexFromContext(ctx); ok {
		return io.MultiWriter(w, v.Stderr())
	}
	return w
}

// CommandError decorates a process failure with its arguments, exit code and
// stderr tail.
func CommandError(err error, args []string, stderr string) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	wrapped := zerr.With(zerr.Wrap(err, "command failed"), "args", strings.Join(args, " "))
	wrapped = zerr.With(wrapped, "exit_code", exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		wrapped = zerr.With(wrapped, "stderr", s)
	}
	return wrapped
}

// Tail keeps the last bytes written to it.
type Tail struct {
	limit int
	buf   bytes.Buffer
}

// NewTail returns a Tail bounded to the stderr limit.
func NewTail() *Tail {
	return &Tail{limit: stderrLimit}
}

func (t *Tail) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) > t.limit {
		p = p[len(p)-t.limit:]
	}
	if over := t.buf.Len() + len(p) - t.limit; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *Tail) String() string {
	return t.buf.String()
}

// resolveEnvironment applies overrides to the system environment. Later keys
// win; the result is sorted for stable child environments.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
