// Package main is the entry point for gridlock.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/cmd/gridlock/commands"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/core/domain"
	_ "go.trai.ch/gridlock/internal/wiring"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitResolution = 3
	exitLockfile   = 4
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

// jsonSwitcher is implemented by loggers that can change output format.
type jsonSwitcher interface {
	SetJSON(enabled bool)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	provider ComponentProvider,
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return exitCode(err)
	}
	defer cleanup()

	setLogFormat(components, components.Config.LogFormat)

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)
	cli.OnLogFormat(func(f domain.LogFormat) {
		setLogFormat(components, f)
	})

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return exitCode(err)
	}
	return exitOK
}

func setLogFormat(components *app.Components, format domain.LogFormat) {
	if l, ok := components.Logger.(jsonSwitcher); ok {
		l.SetJSON(format == domain.LogFormatJSON)
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case isAny(err, domain.ErrUsage, domain.ErrInvalidConfig, domain.ErrConfigParseFailed):
		return exitUsage
	case isAny(err, domain.ErrUnknownRef, domain.ErrRemoteUnavailable, domain.ErrIncompleteExport):
		return exitResolution
	case isAny(err, domain.ErrIO, domain.ErrParse, domain.ErrAlreadyExists, domain.ErrNotFound, domain.ErrConfigReadFailed):
		return exitLockfile
	default:
		return exitFailure
	}
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
