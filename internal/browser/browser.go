// Package browser renders the read-only channel views: the listing and
// the listener leaderboard.
package browser

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/termui"
)

const totalLabel = "Total Listeners"

// ListChannels prints every channel in feed order as
// "<title right-aligned to 22> : <description>".
func ListChannels(w io.Writer, dir *channel.Directory) error {
	styles := termui.NewStyles(w)

	if _, err := fmt.Fprintln(w, styles.Separator.Render(termui.Separator)); err != nil {
		return err
	}
	for _, ch := range dir.Channels {
		title := termui.AlignRight(styles.Title, ch.Title, 22)
		if _, err := fmt.Fprintf(w, "%s : %s\n", title, ch.Description); err != nil {
			return err
		}
	}
	return nil
}

// Ranked returns the channels ordered by listener count, highest first.
// Channels with equal counts keep their feed order.
func Ranked(dir *channel.Directory) []channel.Channel {
	ranked := slices.Clone(dir.Channels)
	slices.SortStableFunc(ranked, func(a, b channel.Channel) int {
		return cmp.Compare(b.Listeners, a.Listeners)
	})
	return ranked
}

// ShowStats prints the leaderboard as "<count right-aligned to 4> : <title>"
// followed by the total across all channels.
func ShowStats(w io.Writer, dir *channel.Directory) error {
	styles := termui.NewStyles(w)

	if _, err := fmt.Fprintln(w, styles.Separator.Render(termui.Separator)); err != nil {
		return err
	}
	for _, ch := range Ranked(dir) {
		count := termui.AlignRight(styles.Count, strconv.Itoa(int(ch.Listeners)), 4)
		if _, err := fmt.Fprintf(w, "%s : %s\n", count, ch.Title); err != nil {
			return err
		}
	}

	total := termui.AlignRight(styles.Count, strconv.Itoa(dir.TotalListeners()), 4)
	_, err := fmt.Fprintf(w, "%s : %s\n", total, styles.Label.Render(totalLabel))
	return err
}

// ShowChannel prints one channel's full metadata.
func ShowChannel(w io.Writer, ch *channel.Channel) error {
	styles := termui.NewStyles(w)

	field := func(label, value string) error {
		if value == "" {
			value = "-"
		}
		_, err := fmt.Fprintf(w, "%s %s\n", termui.AlignLeft(styles.Label, label+":", 12), value)
		return err
	}

	if _, err := fmt.Fprintln(w, styles.Title.Render(ch.Title)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, styles.Separator.Render(termui.Separator)); err != nil {
		return err
	}
	for _, f := range [][2]string{
		{"ID", ch.ID},
		{"Description", ch.Description},
		{"Genre", ch.Genre},
		{"DJ", ch.DJ},
		{"Listeners", strconv.Itoa(int(ch.Listeners))},
	} {
		if err := field(f[0], f[1]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, styles.Label.Render("Playlists:")); err != nil {
		return err
	}
	for i, pl := range ch.Playlists {
		if _, err := fmt.Fprintf(w, "  [%d] %-6s %-8s %s\n", i, pl.Format, pl.Quality, pl.URL); err != nil {
			return err
		}
	}
	return nil
}
