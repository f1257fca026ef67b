package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver with database/sql
)

// schema is applied on every open; it is idempotent.
// Times are split into Unix seconds and nanoseconds so that every mtime a
// filesystem can hold survives the round trip, not only the UnixNano range.
const schema = `
CREATE TABLE IF NOT EXISTS timestamps (
        path          TEXT PRIMARY KEY,
        modified_sec  INTEGER NOT NULL,
        modified_nsec INTEGER NOT NULL
);
`

// SQLiteStore keeps timestamps in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	lock *os.File
	path string
}

// OpenSQLite opens or creates the database at path, creating parent directories.
// The file is locked for exclusive use by this process until Close.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, storageErr("open", "", errors.New("database path cannot be empty"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("create database directory", path, err)
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, storageErr("lock", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = releaseLock(lock)
		return nil, storageErr("open", path, err)
	}

	// One writer; serialising through a single connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	// FULL makes every commit durable before Exec returns.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = releaseLock(lock)
			return nil, storageErr(fmt.Sprintf("apply pragma %q", pragma), path, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = releaseLock(lock)
		return nil, storageErr("initialize schema", path, err)
	}

	return &SQLiteStore{db: db, lock: lock, path: path}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database and the process lock.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if lockErr := releaseLock(s.lock); err == nil {
		err = lockErr
	}
	if err != nil {
		return storageErr("close", s.path, err)
	}
	return nil
}

// Get returns the stored modification time for path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (time.Time, bool, error) {
	var sec, nsec int64
	err := s.db.QueryRowContext(ctx,
		`SELECT modified_sec, modified_nsec FROM timestamps WHERE path = ?`, path,
	).Scan(&sec, &nsec)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, storageErr("get", path, err)
	}
	return time.Unix(sec, nsec), true, nil
}

// Upsert inserts or overwrites the record for path.
func (s *SQLiteStore) Upsert(ctx context.Context, path string, modified time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO timestamps(path, modified_sec, modified_nsec)
VALUES(?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
        modified_sec=excluded.modified_sec,
        modified_nsec=excluded.modified_nsec
`, path, modified.Unix(), int64(modified.Nanosecond()))
	if err != nil {
		return storageErr("upsert", path, err)
	}
	return nil
}

// Remove deletes the record for path if present.
func (s *SQLiteStore) Remove(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM timestamps WHERE path = ?`, path); err != nil {
		return storageErr("remove", path, err)
	}
	return nil
}

// ListPaths returns every stored path ordered by path.
func (s *SQLiteStore) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM timestamps ORDER BY path`)
	if err != nil {
		return nil, storageErr("list paths", "", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if scanErr := rows.Scan(&path); scanErr != nil {
			return nil, storageErr("scan path", "", scanErr)
		}
		paths = append(paths, path)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate paths", "", err)
	}
	return paths, nil
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
