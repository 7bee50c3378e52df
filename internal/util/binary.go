// Package util provides shared utility functions.
package util

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PlayerPathEnv overrides where the media player binary is looked up.
const PlayerPathEnv = "SOMAFM_PLAYER_PATH"

// ErrBinaryNotFound is wrapped by FindBinary when no candidate is executable.
var ErrBinaryNotFound = errors.New("binary not found")

// FindBinary resolves an executable by name.
//
// A name containing a path separator is used as given. Otherwise the
// search order is:
//  1. the path in envVar, when envVar is non-empty and set
//  2. ./name
//  3. name on PATH
func FindBinary(name string, envVar string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrBinaryNotFound)
	}

	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
	}

	if envVar != "" {
		if envPath := os.Getenv(envVar); envPath != "" && isExecutable(envPath) {
			return envPath, nil
		}
	}

	localPath := "./" + name
	if isExecutable(localPath) {
		return localPath, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
}

// isExecutable reports whether path is a regular file with any execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
