// Package storage provides sandboxed file operations for somafm.
// All file operations are restricted to a base directory to prevent
// path traversal, and writes are atomic so readers never observe a
// partially written file.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox provides sandboxed file operations within a base directory.
type Sandbox struct {
	baseDir string
}

// NewSandbox creates a new Sandbox rooted at the given base directory.
// The base directory is created if it doesn't exist.
func NewSandbox(baseDir string) (*Sandbox, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0750); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	return &Sandbox{baseDir: absPath}, nil
}

// BaseDir returns the absolute path to the sandbox base directory.
func (s *Sandbox) BaseDir() string {
	return s.baseDir
}

// ResolvePath resolves a relative path within the sandbox.
// Returns an error if the path would escape the sandbox or is an absolute path.
func (s *Sandbox) ResolvePath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("path escapes sandbox: %s (absolute paths not allowed)", relativePath)
	}

	fullPath := filepath.Join(s.baseDir, filepath.Clean(relativePath))

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", fmt.Errorf("path escapes sandbox: %s", relativePath)
	}

	return absPath, nil
}

// Exists checks if a path exists within the sandbox.
func (s *Sandbox) Exists(relativePath string) (bool, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking path: %w", err)
	}
	return true, nil
}

// ReadFile reads a file from within the sandbox.
func (s *Sandbox) ReadFile(relativePath string) ([]byte, error) {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Remove removes a file within the sandbox.
func (s *Sandbox) Remove(relativePath string) error {
	path, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing path: %w", err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically within the sandbox.
// It writes to a temporary file first, then renames it to the target.
func (s *Sandbox) AtomicWrite(relativePath string, data []byte) error {
	targetPath, err := s.ResolvePath(relativePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tempName := fmt.Sprintf(".%s.%s.tmp", filepath.Base(relativePath), randomHex(8))
	tempPath := filepath.Join(dir, tempName)

	if err := os.WriteFile(tempPath, data, 0640); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}

	// Rename to target (atomic on most filesystems)
	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming to target: %w", err)
	}

	return nil
}

// randomHex generates a random hex string of the specified length.
func randomHex(n int) string {
	bytes := make([]byte, n/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(bytes)[:n]
}
