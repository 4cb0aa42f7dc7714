package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/ui/style"
)

// shortRev is how many characters of a commit id the update listing shows.
const shortRev = 12

func (c *CLI) newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [name...]",
		Short: "Re-pin dependencies whose branch or tag has moved",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			jobs, _ := cmd.Flags().GetInt("jobs")

			result, err := c.app.Update(cmd.Context(), app.UpdateOptions{
				Lockfile: c.lockfile(cmd),
				Names:    args,
				DryRun:   dryRun,
				Jobs:     jobs,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Changes) == 0 {
				_, _ = fmt.Fprintln(out, "up to date")
				return nil
			}
			for _, ch := range result.Changes {
				_, _ = fmt.Fprintf(out, "%s %s %s %s\n", ch.Name, short(ch.From), style.Arrow, short(ch.To))
			}
			if !result.Saved {
				_, _ = fmt.Fprintln(out, "dry run, lockfile not written")
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Print the plan without pinning or saving")
	cmd.Flags().IntP("jobs", "j", 0, "Concurrent pins (default from config)")

	return cmd
}

func short(rev string) string {
	if len(rev) > shortRev {
		return rev[:shortRev]
	}
	return rev
}
