package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/gridlock/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newComponents(t *testing.T, store ports.LockfileStore, log ports.Logger) *app.Components {
	t.Helper()
	cfg := domain.DefaultConfig()
	ctrl := gomock.NewController(t)
	application := app.New(
		store,
		nil,
		mocks.NewMockTreeImporter(ctrl),
		mocks.NewMockArchiver(ctrl),
		mocks.NewMockDigester(ctrl),
		log,
		cfg,
	)
	return app.NewComponents(application, log, cfg)
}

func providerFor(c *app.Components) ComponentProvider {
	return func(context.Context) (*app.Components, func(), error) {
		return c, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	components := newComponents(t, mocks.NewMockLockfileStore(ctrl), mockLogger)

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stdout, io.Discard, providerFor(components))
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "gridlock version")
}

// TestRun_InitializationError verifies that a failing component graph is reported on stderr.
func TestRun_InitializationError(t *testing.T) {
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, io.Discard, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_InvalidConfig(t *testing.T) {
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "jobs must be positive"), "jobs", 0)
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"show"}, io.Discard, stderr, provider)
	assert.Equal(t, 2, exitCode)
}

// TestRun_ExecutionError verifies that command failures are logged and mapped to an exit code.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockLockfileStore(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	mockStore.EXPECT().Init(domain.DefaultLockfileName).Return(domain.ErrAlreadyExists)
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	components := newComponents(t, mockStore, mockLogger)
	exitCode := run(context.Background(), []string{"init"}, io.Discard, io.Discard, providerFor(components))
	assert.Equal(t, 4, exitCode)
}

func TestRun_UsageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	components := newComponents(t, mocks.NewMockLockfileStore(ctrl), mockLogger)
	exitCode := run(context.Background(), []string{"add"}, io.Discard, io.Discard, providerFor(components))
	assert.Equal(t, 2, exitCode)
}

type switchingLogger struct {
	ports.Logger
	json []bool
}

func (l *switchingLogger) SetJSON(enabled bool) {
	l.json = append(l.json, enabled)
}

func TestRun_LogFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := &switchingLogger{Logger: mocks.NewMockLogger(ctrl)}
	components := newComponents(t, mocks.NewMockLockfileStore(ctrl), log)
	components.Config.LogFormat = domain.LogFormatJSON

	exitCode := run(context.Background(), []string{"version", "--log-format", "pretty"}, io.Discard, io.Discard, providerFor(components))
	require.Equal(t, 0, exitCode)
	assert.Equal(t, []bool{true, false}, log.json)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{context.Canceled, 1},
		{zerr.Wrap(domain.ErrUsage, "bad flag"), 2},
		{zerr.Wrap(domain.ErrConfigParseFailed, "yaml"), 2},
		{domain.Classify(domain.ErrUnknownRef, errors.New("no such ref")), 3},
		{zerr.With(zerr.Wrap(domain.ErrRemoteUnavailable, "git fetch failed"), "remote", "github.com/o/r"), 3},
		{domain.ErrIncompleteExport, 3},
		{domain.Classify(domain.ErrIO, errors.New("disk full")), 4},
		{domain.ErrParse, 4},
		{domain.ErrAlreadyExists, 4},
		{zerr.Wrap(domain.ErrNotFound, "no such dependency"), 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}
