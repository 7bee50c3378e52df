package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/somafm/internal/version"
)

func (a *app) newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit, and build date of somafm.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if asJSON {
				fmt.Fprintln(a.stdout, version.JSON())
				return nil
			}
			fmt.Fprintln(a.stdout, version.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}
