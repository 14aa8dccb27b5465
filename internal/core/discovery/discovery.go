// Package discovery locates the .qp root directory for a working directory.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the qp root directory.
const DirName = ".qp"

// ErrNoRoot is returned when no .qp directory is found.
var ErrNoRoot = errors.New("no .qp directory found (run 'qp init')")

// FindRoot walks up from start to the nearest directory containing a .qp
// directory and returns the .qp path. The walk stops after the first
// directory that contains .git, so a repository never picks up a .qp from
// outside it.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, DirName)
		if isDir(candidate) {
			return candidate, nil
		}

		if exists(filepath.Join(dir, ".git")) {
			return "", ErrNoRoot
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRoot
		}
		dir = parent
	}
}

// Resolve returns explicit when set, otherwise the result of FindRoot(start).
// An explicit root must be an existing directory.
func Resolve(explicit, start string) (string, error) {
	if explicit == "" {
		return FindRoot(start)
	}

	abs, err := filepath.Abs(explicit)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", explicit, err)
	}
	if !isDir(abs) {
		return "", fmt.Errorf("root %s is not a directory: %w", abs, ErrNoRoot)
	}
	return abs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
