// Package snapshot persists the most recently fetched channel directory so
// play mode can start without a network round trip.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/config"
)

// ErrNoSnapshot is returned by Load when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no channel snapshot")

// Store saves and loads a whole channel directory.
type Store interface {
	// Save replaces any prior snapshot with dir.
	Save(ctx context.Context, dir *channel.Directory) error
	// Exists reports whether a snapshot is present.
	Exists() bool
	// Load returns the saved directory.
	Load(ctx context.Context) (*channel.Directory, error)
	// Path is where the snapshot lives.
	Path() string
}

// WriteError reports a failure to persist the snapshot.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing channel snapshot %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CorruptSnapshotError reports a snapshot whose contents cannot be decoded.
type CorruptSnapshotError struct {
	Path string
	Err  error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("channel snapshot %s is unreadable: %v", e.Path, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// New returns the Store selected by cfg.Driver.
func New(cfg config.SnapshotConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path, logger), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot driver: %s", cfg.Driver)
	}
}
