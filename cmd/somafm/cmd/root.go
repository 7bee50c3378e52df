// Package cmd implements the CLI commands for somafm.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/somafm/internal/config"
	"github.com/jmylchreest/somafm/internal/observability"
	"github.com/jmylchreest/somafm/internal/player"
	"github.com/jmylchreest/somafm/internal/version"
)

// errUsage marks command line misuse that cobra does not catch itself.
var errUsage = errors.New("usage error")

// app carries the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile   string
	logLevel  string
	logFormat string

	list    bool
	stats   bool
	refresh bool
	noClear bool
	quality int

	cfg    *config.Config
	logger *slog.Logger

	// exit ends the process after an interrupt.
	exit func(int)
	// notify subscribes to signals; nil means signal.Notify.
	notify func(chan<- os.Signal, ...os.Signal)
	// playerOpts are appended to every playback session's options.
	playerOpts []player.Option
}

// Execute runs the root command against the process's stdio and prints
// a diagnostic for any error it returns.
func Execute() error {
	a := &app{stdout: os.Stdout, stderr: os.Stderr, exit: os.Exit}
	err := a.newRootCmd().Execute()
	if err != nil {
		reportError(a.stderr, err)
	}
	return err
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "somafm [channel]",
		Short:   "Terminal player for SomaFM internet radio",
		Version: version.Version,
		Long: fmt.Sprintf(`somafm %s plays SomaFM channels through an external media player
and prints the channel, genre, bitrate and each track as it changes.

With no arguments the default channel (Groove Salad) is played. Channel
names must be given exactly as they appear in "somafm --list".`, version.Version),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
		RunE: a.runRoot,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetGlobalNormalizationFunc(normalizeFlagName)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./.somafm.yaml or $HOME/.somafm.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format (text, json)")

	f := root.Flags()
	f.BoolVarP(&a.list, "list", "l", false, "download and display the list of channels")
	f.BoolVarP(&a.stats, "stats", "s", false, "download and display current listener stats")
	f.IntVarP(&a.quality, "quality", "q", config.DefaultQuality, "playlist index to stream (0 is the first listed)")
	f.BoolVar(&a.refresh, "refresh", false, "download a fresh channel list before playing")
	f.BoolVar(&a.noClear, "no-clear", false, "do not clear the screen before playing")
	root.MarkFlagsMutuallyExclusive("list", "stats")

	root.AddCommand(a.newInfoCmd(), a.newVersionCmd(), a.newConfigCmd())
	return root
}

func (a *app) runRoot(cmd *cobra.Command, args []string) error {
	if (a.list || a.stats) && len(args) > 0 {
		return fmt.Errorf("%w: a channel cannot be combined with --list or --stats", errUsage)
	}

	switch {
	case a.list:
		return a.runList(cmd.Context())
	case a.stats:
		return a.runStats(cmd.Context())
	}

	name := a.cfg.Playback.DefaultChannel
	if len(args) == 1 {
		name = args[0]
	}
	quality := a.cfg.Playback.Quality
	if cmd.Flags().Changed("quality") {
		quality = a.quality
	}
	return a.runPlay(cmd.Context(), name, quality)
}

// normalizeFlagName lets underscores stand in for dashes, matching the
// config key spelling (--no_clear is --no-clear).
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// initConfig loads configuration and installs the logger.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format), only if explicitly provided
//  2. Environment variables (SOMAFM_LOGGING_LEVEL, SOMAFM_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (warn, text)
func (a *app) initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(a.logLevel)
		if cfg.Logging.Level == "warning" {
			cfg.Logging.Level = "warn"
		}
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = strings.ToLower(a.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	logger := observability.NewLoggerWithWriter(cfg.Logging, a.stderr)
	logger = observability.WithApp(logger, version.ApplicationName)
	observability.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	cmd.SetContext(observability.ContextWithLogger(cmd.Context(), logger))
	logger.Debug("configuration loaded",
		slog.String("directory_url", cfg.Directory.URL),
		slog.String("snapshot_driver", cfg.Snapshot.Driver),
		slog.String("snapshot_path", cfg.Snapshot.Path),
		slog.String("player", cfg.Player.Binary),
	)
	return nil
}
