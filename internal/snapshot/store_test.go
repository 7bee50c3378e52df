package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/config"
	"github.com/jmylchreest/somafm/internal/testutil"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "soma_channels"))
	require.NoError(t, err)

	return map[string]Store{
		"file":   fileStore,
		"sqlite": NewSQLiteStore(filepath.Join(dir, "soma_channels.db"), nil),
	}
}

func assertSameDirectory(t *testing.T, want, got *channel.Directory) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.FetchedAt.Equal(got.FetchedAt), "fetched_at: want %v, got %v", want.FetchedAt, got.FetchedAt)
	assert.Equal(t, want.Channels, got.Channels)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := testutil.SampleDirectory()

			assert.False(t, store.Exists())
			require.NoError(t, store.Save(ctx, want))
			assert.True(t, store.Exists())

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assertSameDirectory(t, want, got)
		})
	}
}

func TestStore_GeneratedDirectories(t *testing.T) {
	ctx := context.Background()
	gen := testutil.NewSampleDataGeneratorWithSeed(42)

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, count := range []int{1, 17, 250} {
				want := gen.GenerateDirectory(count)
				require.NoError(t, store.Save(ctx, want))

				got, err := store.Load(ctx)
				require.NoError(t, err)
				assertSameDirectory(t, want, got)
			}
		})
	}
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, testutil.SampleDirectory()))

			smaller := testutil.NewSampleDataGeneratorWithSeed(7).GenerateDirectory(1)
			require.NoError(t, store.Save(ctx, smaller))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assertSameDirectory(t, smaller, got)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(context.Background())
			assert.ErrorIs(t, err, ErrNoSnapshot)
		})
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not json at all"},
		{"truncated", `{"channels": [{"title": "Groove`},
		{"no channels", `{"fetched_at": "2026-01-02T03:04:05Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "soma_channels")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			store, err := NewFileStore(path)
			require.NoError(t, err)

			_, err = store.Load(context.Background())
			var corrupt *CorruptSnapshotError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, store.Path(), corrupt.Path)
		})
	}
}

func TestSQLiteStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soma_channels.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database file, only text"), 0o644))

	_, err := NewSQLiteStore(path, nil).Load(context.Background())
	var corrupt *CorruptSnapshotError
	assert.ErrorAs(t, err, &corrupt)
}

func TestFileStore_SaveToUnwritableLocation(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The parent of the snapshot path is a regular file.
	_, err := NewFileStore(filepath.Join(blocker, "soma_channels"))
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	store, err := New(config.SnapshotConfig{Driver: "file", Path: filepath.Join(dir, "a")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = New(config.SnapshotConfig{Driver: "sqlite", Path: filepath.Join(dir, "b.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	_, err = New(config.SnapshotConfig{Driver: "redis", Path: filepath.Join(dir, "c")}, nil)
	assert.Error(t, err)
}
