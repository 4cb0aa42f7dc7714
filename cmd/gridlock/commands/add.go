package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/gridlock/internal/app"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <[host/]owner/repo[@ref]>",
		Short: "Pin a repository at a branch or tag and record it in the lockfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")

			entry, err := c.app.Add(cmd.Context(), app.AddOptions{
				Lockfile: c.lockfile(cmd),
				Source:   args[0],
				Name:     name,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) at %s\n", entry.Name, entry.Branch, entry.Rev)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Dependency name (defaults to the repository name)")

	return cmd
}
