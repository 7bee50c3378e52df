package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/directory"
	"github.com/jmylchreest/somafm/internal/player"
	"github.com/jmylchreest/somafm/internal/snapshot"
	"github.com/jmylchreest/somafm/internal/termui"
	"github.com/jmylchreest/somafm/internal/util"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitUsage            = 1
	ExitTimeout          = 10
	ExitNetwork          = 11
	ExitUnknownFetch     = 12
	ExitCorruptResponse  = 13
	ExitCorruptSnapshot  = 14
	ExitWrite            = 15
	ExitChannelNotFound  = 20
	ExitPlaylistIndex    = 21
	ExitPlayerNotFound   = 30
	ExitPlayerStartError = 31
)

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		timeoutErr  *directory.TimeoutError
		networkErr  *directory.NetworkError
		unknownErr  *directory.UnknownFetchError
		corruptResp *directory.CorruptResponseError
		corruptSnap *snapshot.CorruptSnapshotError
		writeErr    *snapshot.WriteError
		notFoundErr *channel.ChannelNotFoundError
		indexErr    *channel.PlaylistIndexError
		noPlayerErr *player.NotFoundError
		playerStart *player.StartError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return ExitTimeout
	case errors.As(err, &networkErr):
		return ExitNetwork
	case errors.As(err, &unknownErr):
		return ExitUnknownFetch
	case errors.As(err, &corruptResp):
		return ExitCorruptResponse
	case errors.As(err, &corruptSnap):
		return ExitCorruptSnapshot
	case errors.As(err, &writeErr):
		return ExitWrite
	case errors.As(err, &notFoundErr):
		return ExitChannelNotFound
	case errors.As(err, &indexErr):
		return ExitPlaylistIndex
	case errors.As(err, &noPlayerErr):
		return ExitPlayerNotFound
	case errors.As(err, &playerStart):
		return ExitPlayerStartError
	default:
		return ExitUsage
	}
}

// progressFailure is the word that completes an interrupted progress line.
func progressFailure(err error) string {
	switch ExitCode(err) {
	case ExitTimeout:
		return "Timeout!"
	case ExitNetwork:
		return "Network Error!"
	case ExitCorruptResponse:
		return "Invalid Data!"
	case ExitWrite:
		return "Write Error!"
	default:
		return "Unknown Error!"
	}
}

// reportError prints the diagnostic for err, plus guidance for the
// mistakes a user can fix.
func reportError(w io.Writer, err error) {
	styles := termui.NewStyles(w)
	fmt.Fprintln(w, styles.Error.Render("Error: "+err.Error()))

	var (
		notFoundErr *channel.ChannelNotFoundError
		indexErr    *channel.PlaylistIndexError
		noPlayerErr *player.NotFoundError
	)
	switch {
	case errors.As(err, &notFoundErr):
		fmt.Fprintln(w, "Double check the name of the channel and try again.")
		fmt.Fprintln(w, `Channel names must be entered EXACTLY as they are seen in "somafm --list".`)
	case errors.As(err, &indexErr):
		if indexErr.Available == 0 {
			fmt.Fprintf(w, "%q has no playlists.\n", indexErr.Channel)
			break
		}
		fmt.Fprintf(w, "%q has %d playlists; use --quality 0 to %d.\n",
			indexErr.Channel, indexErr.Available, indexErr.Available-1)
	case errors.As(err, &noPlayerErr):
		fmt.Fprintf(w, "%s is required to play streams. Install it, or set player.binary or %s.\n",
			filepath.Base(noPlayerErr.Binary), util.PlayerPathEnv)
	}
}
