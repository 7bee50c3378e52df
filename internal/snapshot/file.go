package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/storage"
)

// FileStore keeps the snapshot as a single JSON document, replaced atomically on save.
type FileStore struct {
	path    string
	name    string
	sandbox *storage.Sandbox
}

// NewFileStore creates a FileStore for the snapshot at path.
func NewFileStore(path string) (*FileStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving snapshot path: %w", err)
	}

	sb, err := storage.NewSandbox(filepath.Dir(absPath))
	if err != nil {
		return nil, &WriteError{Path: absPath, Err: err}
	}

	return &FileStore{
		path:    absPath,
		name:    filepath.Base(absPath),
		sandbox: sb,
	}, nil
}

// Path returns the absolute snapshot path.
func (s *FileStore) Path() string {
	return s.path
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, dir *channel.Directory) error {
	data, err := json.Marshal(dir)
	if err != nil {
		return &WriteError{Path: s.path, Err: fmt.Errorf("encoding directory: %w", err)}
	}

	if err := s.sandbox.AtomicWrite(s.name, data); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

// Exists implements Store.
func (s *FileStore) Exists() bool {
	ok, err := s.sandbox.Exists(s.name)
	return err == nil && ok
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (*channel.Directory, error) {
	if !s.Exists() {
		return nil, ErrNoSnapshot
	}

	data, err := s.sandbox.ReadFile(s.name)
	if err != nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}

	var dir channel.Directory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: err}
	}
	if dir.Channels == nil {
		return nil, &CorruptSnapshotError{Path: s.path, Err: fmt.Errorf("missing channels")}
	}

	return &dir, nil
}
