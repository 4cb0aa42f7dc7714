package shell_test

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/adapters/shell"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/gridlock/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunner_Run_Stdout(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var out bytes.Buffer
	runner := shell.NewRunner("sh", map[string]string{"GRIDLOCK_TEST_VALUE": "from-overlay"})
	err := runner.Run(context.Background(), t.TempDir(), nil, &out, "-c", "echo $GRIDLOCK_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "from-overlay\n", out.String())
}

func TestRunner_Run_Stdin(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var out bytes.Buffer
	runner := shell.NewRunner("sh", nil)
	err := runner.Run(context.Background(), "", strings.NewReader("piped"), &out, "-c", "cat")
	require.NoError(t, err)
	assert.Equal(t, "piped", out.String())
}

func TestRunner_Run_FailureCarriesStderr(t *testing.T) {
	t.Parallel()
	requireShell(t)

	runner := shell.NewRunner("sh", nil)
	err := runner.Run(context.Background(), "", nil, io.Discard, "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	meta := zErr.Metadata()
	assert.Equal(t, 3, meta["exit_code"])
	assert.Equal(t, "boom", meta["stderr"])
}

func TestRunner_Run_MirrorsStderrToVertex(t *testing.T) {
	t.Parallel()
	requireShell(t)

	ctrl := gomock.NewController(t)
	vertex := mocks.NewMockVertex(ctrl)
	var mirrored bytes.Buffer
	vertex.EXPECT().Stderr().Return(&mirrored)

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	runner := shell.NewRunner("sh", nil)
	require.NoError(t, runner.Run(ctx, "", nil, io.Discard, "-c", "echo progress >&2"))
	assert.Equal(t, "progress\n", mirrored.String())
}

func TestRunner_Run_MissingProgram(t *testing.T) {
	t.Parallel()

	runner := shell.NewRunner("gridlock-no-such-program", nil)
	err := runner.Run(context.Background(), "", nil, io.Discard)
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, -1, zErr.Metadata()["exit_code"])
}
