// Package store provides the durable path to modification-time mapping that
// deltafy classifies against. Two backends are available: a single-file SQLite
// database (the default) and a Badger directory.
//
// Every mutation is committed on its own before the call returns, so a crash
// can lose at most the mutation in flight and never corrupts older records.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// ErrStorage is wrapped by every error returned from a Store.
var ErrStorage = errors.New("storage error")

// ErrLocked is returned when another process holds the store.
var ErrLocked = errors.New("store is locked by another process")

// ErrUnknownBackend is returned for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is the TimestampStore consumed by the scanner.
type Store interface {
	// Get returns the stored modification time for path, or false if absent.
	Get(ctx context.Context, path string) (time.Time, bool, error)

	// Upsert records modified for path, inserting or overwriting.
	Upsert(ctx context.Context, path string, modified time.Time) error

	// Remove deletes the record for path. Removing an absent path is a no-op.
	Remove(ctx context.Context, path string) error

	// ListPaths returns every stored path in lexical byte order.
	ListPaths(ctx context.Context) ([]string, error)

	// Close releases the backing medium.
	Close() error
}

// Backend names a store implementation.
type Backend string

// Supported backends.
const (
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
)

// ParseBackend parses a backend name (case-insensitive). Empty means sqlite.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackendSQLite):
		return BackendSQLite, nil
	case string(BackendBadger):
		return BackendBadger, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Config selects and locates a store.
type Config struct {
	// Backend is the implementation to open. Empty means sqlite.
	Backend Backend

	// Path is the database file (sqlite) or directory (badger).
	// Empty uses DefaultPath(Backend).
	Path string
}

// Open opens or creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	backend, err := ParseBackend(string(cfg.Backend))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath(backend)
	}

	switch backend {
	case BackendBadger:
		return OpenBadger(path)
	default:
		return OpenSQLite(path)
	}
}

// DataDir returns $XDG_DATA_HOME/deltafy/.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "deltafy")
}

// DefaultPath returns the default location of the given backend's store.
func DefaultPath(backend Backend) string {
	if backend == BackendBadger {
		return filepath.Join(DataDir(), "deltas.badger")
	}
	return filepath.Join(DataDir(), "deltas.db")
}

// IsPathUnderRoot checks if path is root or lies beneath it.
// Containment is by whole path components, so /a/bc is not under /a/b.
func IsPathUnderRoot(path, root string) bool {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(path)
	if cleanPath == cleanRoot {
		return true
	}
	if strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		return strings.HasPrefix(cleanPath, cleanRoot)
	}
	return strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator))
}

// storageErr wraps err so that errors.Is(err, ErrStorage) holds.
func storageErr(op, path string, err error) error {
	if path == "" {
		return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrStorage, op, path, err)
}
