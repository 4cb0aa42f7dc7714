package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/gridlock/internal/adapters/lockfile" //nolint:depguard // Shares the on-disk entry encoding
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/ui/output"
	"go.trai.ch/gridlock/internal/ui/style"
)

// timeLayout is how last-updated timestamps are shown.
const timeLayout = "2006-01-02 15:04:05"

// labelWidth aligns the values of the show listing.
const labelWidth = len("Last updated:") + 1

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [name...]",
		Short: "Print locked dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			entries, err := c.app.Show(cmd.Context(), app.ShowOptions{
				Lockfile: c.lockfile(cmd),
				Names:    args,
			})
			if err != nil {
				return err
			}

			if asJSON {
				data, err := lockfile.EncodeEntries(entries)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			c.renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print entries as JSON")

	return cmd
}

func (c *CLI) renderEntries(w io.Writer, entries []domain.LockEntry) {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile())

	title := r.NewStyle().Bold(true).Foreground(style.Iris)
	label := r.NewStyle().Bold(true)

	field := func(name, value string) {
		pad := labelWidth - len(name) - 1
		_, _ = fmt.Fprintf(w, "  %s%s%s\n", label.Render(name+":"), strings.Repeat(" ", pad), value)
	}

	for i, e := range entries {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, title.Render(e.Name))
		field("Branch", e.Branch)
		field("Rev", e.Rev)
		field("Hash", e.Digest.String())
		field("Last updated", c.formatTime(e.LastUpdated))
		field("Web link", e.WebLink())
	}
}

func (c *CLI) formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.In(c.location).Format(timeLayout)
}
