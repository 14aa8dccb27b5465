//go:build !unix

package planfs

// acquireLock is a no-op where flock is unavailable. The store mutex still
// serializes access within one process.
func acquireLock(path string, block bool) (release func(), err error) {
	return func() {}, nil
}
