// Package commands implements the CLI commands for gridlock.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/build"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for gridlock.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	location    *time.Location
	onLogFormat func(domain.LogFormat)
	started     bool
}

// Application represents the application logic interface.
type Application interface {
	Init(ctx context.Context, lockfile string) (string, error)
	Add(ctx context.Context, opts app.AddOptions) (domain.LockEntry, error)
	Show(ctx context.Context, opts app.ShowOptions) ([]domain.LockEntry, error)
	Update(ctx context.Context, opts app.UpdateOptions) (app.UpdateResult, error)
	Nar(ctx context.Context, opts app.NarOptions, stdout io.Writer) (app.NarResult, error)
	Hash(ctx context.Context, opts app.ArchiveOptions) (domain.ContentDigest, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "gridlock",
		Short:         "Pin git dependencies to content-addressed archive hashes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("lockfile", "l", "", "Path to the lockfile (default from config, else gridlock.json)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: pretty or json")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.Classify(domain.ErrUsage, err)
	})

	c := &CLI{
		app:      a,
		rootCmd:  rootCmd,
		location: time.Local,
	}

	rootCmd.PersistentPreRunE = c.preRun

	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newNarCmd())
	rootCmd.AddCommand(c.newHashCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// preRun runs once flags and arguments have been accepted.
func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	c.started = true

	format, _ := cmd.Flags().GetString("log-format")
	switch domain.LogFormat(format) {
	case "":
		return nil
	case domain.LogFormatPretty, domain.LogFormatJSON:
		if c.onLogFormat != nil {
			c.onLogFormat(domain.LogFormat(format))
		}
		return nil
	default:
		return zerr.With(zerr.Wrap(domain.ErrUsage, "unknown log format"), "log_format", format)
	}
}

// Execute runs the root command with the given context. Errors raised before
// a command starts (unknown commands, bad flags, wrong argument counts) are
// classified as usage errors.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if err != nil && !c.started && !errors.Is(err, domain.ErrUsage) {
		return domain.Classify(domain.ErrUsage, err)
	}
	return err
}

// OnLogFormat registers fn to be called when --log-format is given.
func (c *CLI) OnLogFormat(fn func(domain.LogFormat)) {
	c.onLogFormat = fn
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetLocation sets the time zone used to print timestamps. Used for testing.
func (c *CLI) SetLocation(loc *time.Location) {
	c.location = loc
}

func (c *CLI) lockfile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("lockfile")
	return path
}
