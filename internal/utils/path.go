package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrPathEscapes   = errors.New("path escapes root")
	ErrAbsoluteEntry = errors.New("path must be relative")
)

func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	// Expand `~` to the user's home directory
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("failed to retrieve home directory")
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// Resolve relative paths (.., .) and return an absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(absPath), nil
}

// NormPath converts a relative path of either separator style into the
// canonical forward-slash form used as a manifest key.
func NormPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))
	path = strings.TrimLeft(path, "/")
	if path == "." {
		return ""
	}
	return path
}

// CheckRelPath reports whether a normalized path is safe to join under a root.
func CheckRelPath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(path) || filepath.VolumeName(filepath.FromSlash(path)) != "" {
		return ErrAbsoluteEntry
	}
	if path == ".." || strings.HasPrefix(path, "../") {
		return ErrPathEscapes
	}
	return nil
}

func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	return EnsureDir(dir)
}

func EnsureDir(path string) error {
	// already exists
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// MkdirAll is a no-op when a concurrent caller created the directory first
	return os.MkdirAll(path, 0o755)
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
