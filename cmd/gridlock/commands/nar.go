package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/core/domain"
)

func archiveFlags(cmd *cobra.Command) {
	cmd.Flags().Int("strip-components", 0, "Drop leading path components from tar members")
	cmd.Flags().Bool("include-vcs", false, "Keep .git and .jj directories when archiving a directory")
}

func archiveOptions(cmd *cobra.Command, source string) app.ArchiveOptions {
	strip, _ := cmd.Flags().GetInt("strip-components")
	includeVCS, _ := cmd.Flags().GetBool("include-vcs")
	return app.ArchiveOptions{
		Source: source,
		ImportOptions: domain.ImportOptions{
			StripComponents: strip,
			IncludeVCS:      includeVCS,
		},
	}
}

func (c *CLI) newNarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nar <path>",
		Short: "Write the archive of a directory, file or tarball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")

			res, err := c.app.Nar(cmd.Context(), app.NarOptions{
				ArchiveOptions: archiveOptions(cmd, args[0]),
				Output:         out,
			}, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if out != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", out, res.Digest)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file; .zst or .gz compresses (default stdout)")
	archiveFlags(cmd)

	return cmd
}

func (c *CLI) newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <path>",
		Short: "Print the archive hash of a directory, file or tarball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := c.app.Hash(cmd.Context(), archiveOptions(cmd, args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, digest.String())
			_, _ = fmt.Fprintln(out, digest.SRI())
			return nil
		},
	}

	archiveFlags(cmd)

	return cmd
}
