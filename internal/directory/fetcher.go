// Package directory fetches the SomaFM channel list and keeps the local
// snapshot in step with it.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/config"
	"github.com/jmylchreest/somafm/internal/httpclient"
	"github.com/jmylchreest/somafm/internal/observability"
	"github.com/jmylchreest/somafm/internal/snapshot"
)

// Fetcher downloads the channel directory and saves each successful fetch
// to the snapshot store.
type Fetcher struct {
	client  *httpclient.Client
	url     string
	timeout time.Duration
	store   snapshot.Store
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient overrides the HTTP client.
func WithClient(client *httpclient.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithClock overrides the clock used to stamp FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher for cfg.URL that persists to store.
func NewFetcher(cfg config.DirectoryConfig, store snapshot.Store, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = observability.WithComponent(logger, "directory")

	f := &Fetcher{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.Timeout
		httpCfg.Logger = logger
		f.client = httpclient.New(httpCfg)
	}
	return f
}

// Fetch downloads and decodes the directory, then saves it to the snapshot.
// Exactly one request is made; there are no retries.
func (f *Fetcher) Fetch(ctx context.Context) (dir *channel.Directory, err error) {
	done := observability.TimedOperationWithError(ctx, f.logger, "fetch_directory", &err)
	defer done()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, err := f.client.GetBody(ctx, f.url)
	if err != nil {
		return nil, classify(f.url, f.timeout, err)
	}

	dir, err = channel.Decode(body, f.now().UTC())
	if err != nil {
		return nil, &CorruptResponseError{URL: f.url, Err: err}
	}

	f.logger.DebugContext(ctx, "channel directory fetched",
		slog.Int("channels", dir.Len()),
		slog.Int("bytes", len(body)),
	)

	if err := f.store.Save(ctx, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

// Current returns the snapshot when one exists and refresh is false,
// and fetches a fresh directory otherwise.
func (f *Fetcher) Current(ctx context.Context, refresh bool) (*channel.Directory, error) {
	if !refresh && f.store.Exists() {
		dir, err := f.store.Load(ctx)
		if err == nil {
			f.logger.DebugContext(ctx, "using channel snapshot",
				slog.Int("channels", dir.Len()),
				slog.Time("fetched_at", dir.FetchedAt),
			)
			return dir, nil
		}
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil, err
		}
	}
	return f.Fetch(ctx)
}

// SnapshotPath is where fetched directories are saved.
func (f *Fetcher) SnapshotPath() string {
	return f.store.Path()
}

// NeedsFetch reports whether Current would go to the network.
func (f *Fetcher) NeedsFetch(refresh bool) bool {
	return refresh || !f.store.Exists()
}
