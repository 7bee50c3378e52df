package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmylchreest/somafm/internal/browser"
	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/directory"
	"github.com/jmylchreest/somafm/internal/nowplaying"
	"github.com/jmylchreest/somafm/internal/observability"
	"github.com/jmylchreest/somafm/internal/player"
	"github.com/jmylchreest/somafm/internal/snapshot"
	"github.com/jmylchreest/somafm/internal/startup"
	"github.com/jmylchreest/somafm/internal/termui"
)

// shutdownGrace is how long an interrupted session may take to wind down
// before the process exits regardless.
const shutdownGrace = 2 * time.Second

func (a *app) newFetcher() (*directory.Fetcher, error) {
	if a.cfg.Snapshot.Driver == "file" {
		if _, err := startup.CleanupOrphanedTempFiles(a.logger, a.cfg.Snapshot.Path, startup.DefaultCleanupAge); err != nil {
			a.logger.Debug("snapshot temp cleanup failed", slog.String("error", err.Error()))
		}
	}

	store, err := snapshot.New(a.cfg.Snapshot, a.logger)
	if err != nil {
		return nil, err
	}
	return directory.NewFetcher(a.cfg.Directory, store, a.logger), nil
}

// download fetches the directory, framing it with the progress message.
func (a *app) download(ctx context.Context, f *directory.Fetcher) (*channel.Directory, error) {
	fmt.Fprint(a.stdout, "Downloading channel list...")
	dir, err := f.Fetch(ctx)
	if err != nil {
		fmt.Fprintln(a.stdout, progressFailure(err))
		return nil, err
	}
	fmt.Fprintln(a.stdout, "OK")
	return dir, nil
}

// channels returns the snapshot, downloading it first when needed.
func (a *app) channels(ctx context.Context, refresh bool) (*channel.Directory, error) {
	f, err := a.newFetcher()
	if err != nil {
		return nil, err
	}
	return a.channelsFrom(ctx, f, refresh)
}

func (a *app) channelsFrom(ctx context.Context, f *directory.Fetcher, refresh bool) (*channel.Directory, error) {
	if f.NeedsFetch(refresh) {
		return a.download(ctx, f)
	}
	return f.Current(ctx, false)
}

func (a *app) runList(ctx context.Context) error {
	f, err := a.newFetcher()
	if err != nil {
		return err
	}
	dir, err := a.download(ctx, f)
	if err != nil {
		return err
	}
	return browser.ListChannels(a.stdout, dir)
}

func (a *app) runStats(ctx context.Context) error {
	f, err := a.newFetcher()
	if err != nil {
		return err
	}
	dir, err := a.download(ctx, f)
	if err != nil {
		return err
	}
	return browser.ShowStats(a.stdout, dir)
}

func (a *app) runPlay(ctx context.Context, name string, quality int) error {
	logger := observability.LoggerFromContext(ctx)
	if !a.noClear {
		termui.ClearScreen(a.stdout)
	}

	opts := append([]player.Option{player.WithLogger(logger)}, a.playerOpts...)
	session, err := player.New(a.cfg.Player, opts...)
	if err != nil {
		return err
	}

	dir, err := a.channels(ctx, a.refresh)
	if err != nil {
		return err
	}

	streamURL, err := dir.Resolve(name, quality)
	if err != nil {
		return err
	}

	styles := termui.NewStyles(a.stdout)
	fmt.Fprint(a.stdout, "Loading stream...")
	if err := session.Start(ctx, streamURL); err != nil {
		fmt.Fprintln(a.stdout, "FAILED")
		return err
	}
	fmt.Fprintln(a.stdout, "OK")
	fmt.Fprintln(a.stdout, styles.Separator.Render(termui.StreamSeparator))

	logger.Info("playback started",
		slog.String("channel", name),
		slog.Int("quality", quality),
		slog.String("player", session.Binary()),
		slog.String("session_id", session.ID()),
		slog.Int("pid", session.PID()),
	)

	intr := a.handleInterrupts(ctx, logger, session)
	defer intr.stop()

	printer := nowplaying.NewPrinter(a.stdout)
	for ev := range nowplaying.Events(session.Lines(), time.Now) {
		if err := printer.Print(ev); err != nil {
			logger.Debug("writing now-playing line failed", slog.String("error", err.Error()))
		}
	}

	// An interrupt ends the output too; let its handler finish the shutdown.
	intr.stop()
	if intr.interrupted() {
		return nil
	}
	if err := session.Wait(); err != nil {
		logger.Debug("player exited with error", slog.String("error", err.Error()))
	}
	fmt.Fprintln(a.stdout, styles.Status.Render("Playback stopped."))
	return nil
}

// interrupts watches for SIGINT and SIGTERM during playback.
type interrupts struct {
	signals  chan os.Signal
	done     chan struct{}
	exited   chan struct{}
	fired    chan struct{}
	stopOnce sync.Once
}

// stop stops listening and waits for an in-flight interrupt to be handled.
func (i *interrupts) stop() {
	i.stopOnce.Do(func() {
		signal.Stop(i.signals)
		close(i.done)
	})
	<-i.exited
}

func (i *interrupts) interrupted() bool {
	select {
	case <-i.fired:
		return true
	default:
		return false
	}
}

// handleInterrupts shuts the session down on the first SIGINT or SIGTERM
// and then exits with status 0. Later signals are ignored.
func (a *app) handleInterrupts(ctx context.Context, logger *slog.Logger, session *player.Session) *interrupts {
	i := &interrupts{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		fired:   make(chan struct{}),
	}
	notify := a.notify
	if notify == nil {
		notify = signal.Notify
	}
	notify(i.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(i.exited)
		for {
			select {
			case <-i.done:
				return
			case sig := <-i.signals:
				if i.interrupted() {
					logger.Debug("interrupt ignored, already shutting down", slog.String("signal", sig.String()))
					continue
				}
				close(i.fired)
				logger.Debug("interrupt received", slog.String("signal", sig.String()))
				styles := termui.NewStyles(a.stdout)
				fmt.Fprintln(a.stdout, styles.Error.Render("Force closing..."))

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
				if err := session.Shutdown(shutdownCtx); err != nil {
					logger.Debug("shutdown incomplete", slog.String("error", err.Error()))
				}
				cancel()
				a.exit(0)
			}
		}
	}()

	return i
}
