package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/config"
	"github.com/jmylchreest/somafm/internal/httpclient"
	"github.com/jmylchreest/somafm/internal/snapshot"
	"github.com/jmylchreest/somafm/internal/testutil"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestFetcher(t *testing.T, url string, timeout time.Duration) (*Fetcher, *snapshot.FileStore) {
	t.Helper()
	store, err := snapshot.NewFileStore(filepath.Join(t.TempDir(), "soma_channels"))
	require.NoError(t, err)

	f := NewFetcher(
		config.DirectoryConfig{URL: url, Timeout: timeout},
		store,
		nil,
		WithClock(func() time.Time { return fixedNow }),
	)
	return f, store
}

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_SuccessSavesSnapshot(t *testing.T) {
	server := feedServer(t, http.StatusOK, testutil.SampleFeedJSON)
	f, store := newTestFetcher(t, server.URL, 5*time.Second)

	dir, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, dir.Len())
	assert.Equal(t, "Groove Salad", dir.Channels[0].Title)
	assert.Equal(t, fixedNow, dir.FetchedAt)

	require.True(t, store.Exists())
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir.Channels, loaded.Channels)
	assert.True(t, dir.FetchedAt.Equal(loaded.FetchedAt))
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	f, store := newTestFetcher(t, server.URL, 50*time.Millisecond)

	_, err := f.Fetch(context.Background())
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.False(t, store.Exists())
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	f, store := newTestFetcher(t, url, 5*time.Second)

	_, err := f.Fetch(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, url, netErr.URL)
	assert.False(t, store.Exists())
}

func TestFetch_StatusIsUnknownFetchError(t *testing.T) {
	server := feedServer(t, http.StatusInternalServerError, "oops")
	f, _ := newTestFetcher(t, server.URL, 5*time.Second)

	_, err := f.Fetch(context.Background())
	var unknown *UnknownFetchError
	require.ErrorAs(t, err, &unknown)

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestFetch_CorruptResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>maintenance</html>"},
		{"missing channels", `{"stations": []}`},
		{"null channels", `{"channels": null}`},
		{"bad listeners", `{"channels": [{"title": "A", "description": "", "listeners": "lots", "playlists": []}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := feedServer(t, http.StatusOK, tt.body)
			f, store := newTestFetcher(t, server.URL, 5*time.Second)

			_, err := f.Fetch(context.Background())
			var corrupt *CorruptResponseError
			require.ErrorAs(t, err, &corrupt)
			assert.False(t, store.Exists(), "a corrupt response must not replace the snapshot")
		})
	}
}

func TestFetch_WriteErrorPropagates(t *testing.T) {
	server := feedServer(t, http.StatusOK, testutil.SampleFeedJSON)
	f := NewFetcher(config.DirectoryConfig{URL: server.URL, Timeout: 5 * time.Second}, failingStore{}, nil)

	_, err := f.Fetch(context.Background())
	var writeErr *snapshot.WriteError
	require.ErrorAs(t, err, &writeErr)
}

func TestSnapshotPath(t *testing.T) {
	f := NewFetcher(config.DirectoryConfig{URL: "http://example.invalid", Timeout: time.Second}, failingStore{}, nil)
	assert.Equal(t, "/nowhere", f.SnapshotPath())
}

func TestCurrent(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(testutil.SampleFeedJSON))
	}))
	t.Cleanup(server.Close)

	f, _ := newTestFetcher(t, server.URL, 5*time.Second)
	ctx := context.Background()

	assert.True(t, f.NeedsFetch(false))
	dir, err := f.Current(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, dir.Len())
	assert.Equal(t, int32(1), requests.Load())

	assert.False(t, f.NeedsFetch(false))
	_, err = f.Current(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load(), "existing snapshot is reused")

	assert.True(t, f.NeedsFetch(true))
	_, err = f.Current(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
}

func TestClassify(t *testing.T) {
	assert.IsType(t, &TimeoutError{}, classify("u", time.Second, context.DeadlineExceeded))
	assert.IsType(t, &UnknownFetchError{}, classify("u", time.Second, errors.New("boom")))
	assert.IsType(t, &UnknownFetchError{}, classify("u", time.Second, &httpclient.StatusError{StatusCode: 404}))
}

type failingStore struct{}

func (failingStore) Save(context.Context, *channel.Directory) error {
	return &snapshot.WriteError{Path: "/nowhere", Err: errors.New("read-only file system")}
}

func (failingStore) Exists() bool { return false }

func (failingStore) Path() string { return "/nowhere" }

func (failingStore) Load(context.Context) (*channel.Directory, error) {
	return nil, snapshot.ErrNoSnapshot
}
