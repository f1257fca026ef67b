//go:build !unix

package store

import "os"

// acquireLock is a no-op on platforms without flock.
func acquireLock(_ string) (*os.File, error) {
	return nil, nil
}

// releaseLock is a no-op on platforms without flock.
func releaseLock(_ *os.File) error {
	return nil
}
