//go:build unix

package planfs

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// acquireLock takes an exclusive advisory flock on path, creating the file if
// needed. With block false it returns ErrLocked instead of waiting.
func acquireLock(path string, block bool) (release func(), err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	how := syscall.LOCK_EX
	if !block {
		how |= syscall.LOCK_NB
	}

	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
