package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/somafm/internal/browser"
)

func (a *app) newInfoCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "info <channel>",
		Short: "Show everything known about one channel",
		Long: `Show a channel's id, description, genre, DJ, listener count and every
playlist with its format and quality. The local channel snapshot is used,
and downloaded first if it does not exist yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.newFetcher()
			if err != nil {
				return err
			}
			dir, err := a.channelsFrom(cmd.Context(), f, refresh)
			if err != nil {
				return err
			}
			ch, err := dir.Find(args[0])
			if err != nil {
				return err
			}
			if err := browser.ShowChannel(a.stdout, ch); err != nil {
				return err
			}
			if !dir.FetchedAt.IsZero() {
				fmt.Fprintf(a.stdout, "\nChannel list fetched %s\n", dir.FetchedAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(a.stdout, "Snapshot %s\n", f.SnapshotPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "download a fresh channel list first")
	return cmd
}
