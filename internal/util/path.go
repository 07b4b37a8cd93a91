package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when a path that must name a directory does not.
var ErrNotDirectory = errors.New("not a directory or does not exist")

// CheckDirectory reports whether path exists and whether it is a directory.
// A missing path is not an error.
func CheckDirectory(path string) (exists bool, isDir bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

// ResolveDir joins p onto base (unless p is absolute) and requires the
// result to be an existing directory.
func ResolveDir(base, p string) (string, error) {
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(base, p)
	}
	exists, isDir, err := CheckDirectory(full)
	if err != nil {
		return "", err
	}
	if !exists || !isDir {
		return "", fmt.Errorf("%s: %w", full, ErrNotDirectory)
	}
	return full, nil
}

// EnsureDir creates path and its parents when missing.
func EnsureDir(path string) error {
	exists, isDir, err := CheckDirectory(path)
	if err != nil {
		return err
	}
	if exists {
		if !isDir {
			return fmt.Errorf("%s: %w", path, ErrNotDirectory)
		}
		return nil
	}
	return os.MkdirAll(path, 0o755)
}
