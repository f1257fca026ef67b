package store_test

import (
	"context"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
)

// backends opens one fresh store per backend inside t.TempDir().
func backends(t *testing.T) map[string]store.Store {
	t.Helper()

	sqliteStore, err := store.OpenSQLite(filepath.Join(t.TempDir(), "nested", "deltas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	badgerStore, err := store.OpenBadger(filepath.Join(t.TempDir(), "deltas.badger"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	return map[string]store.Store{
		"sqlite": sqliteStore,
		"badger": badgerStore,
	}
}

func TestStore_GetAbsent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, ok, err := s.Get(context.Background(), "/no/such/path")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.True(t, got.IsZero())
		})
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	first := time.Unix(1700000000, 123456789)
	second := first.Add(3 * time.Second)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Upsert(ctx, "/data/a.txt", first))

			got, ok, err := s.Get(ctx, "/data/a.txt")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, got.Equal(first), "nanoseconds must round-trip")

			require.NoError(t, s.Upsert(ctx, "/data/a.txt", second))
			got, ok, err = s.Get(ctx, "/data/a.txt")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, got.Equal(second))

			paths, err := s.ListPaths(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"/data/a.txt"}, paths)
		})
	}
}

func TestStore_TimesOutsideUnixNanoRange(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		when time.Time
	}{
		{name: "year 1600", when: time.Date(1600, time.January, 1, 0, 0, 0, 1, time.UTC)},
		{name: "year 1970", when: time.Unix(0, 0)},
		{name: "before epoch", when: time.Unix(-1, 999999999)},
		{name: "year 2300", when: time.Date(2300, time.January, 1, 12, 30, 0, 987654321, time.UTC)},
	}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					path := "/data/" + tt.name
					require.NoError(t, s.Upsert(ctx, path, tt.when))

					got, ok, err := s.Get(ctx, path)
					require.NoError(t, err)
					require.True(t, ok)
					assert.True(t, got.Equal(tt.when), "want %s, got %s", tt.when, got)
				})
			}
		})
	}
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Upsert(ctx, "/data/a.txt", now))
			require.NoError(t, s.Remove(ctx, "/data/a.txt"))

			_, ok, err := s.Get(ctx, "/data/a.txt")
			require.NoError(t, err)
			assert.False(t, ok)

			// absent path is a no-op
			require.NoError(t, s.Remove(ctx, "/data/a.txt"))
		})
	}
}

func TestStore_ListPathsOrdered(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	inserted := []string{"/b/z.txt", "/a/file.txt", "/b/a.txt", "/a/dir/x.txt"}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			paths, err := s.ListPaths(ctx)
			require.NoError(t, err)
			assert.Empty(t, paths)

			for _, p := range inserted {
				require.NoError(t, s.Upsert(ctx, p, now))
			}

			paths, err = s.ListPaths(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"/a/dir/x.txt", "/a/file.txt", "/b/a.txt", "/b/z.txt"}, paths)
		})
	}
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 42)

	tests := []struct {
		backend store.Backend
		path    string
	}{
		{backend: store.BackendSQLite, path: filepath.Join(t.TempDir(), "deltas.db")},
		{backend: store.BackendBadger, path: filepath.Join(t.TempDir(), "deltas.badger")},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			s, err := store.Open(store.Config{Backend: tt.backend, Path: tt.path})
			require.NoError(t, err)
			require.NoError(t, s.Upsert(ctx, "/data/kept.txt", now))
			require.NoError(t, s.Close())

			reopened, err := store.Open(store.Config{Backend: tt.backend, Path: tt.path})
			require.NoError(t, err)
			defer reopened.Close()

			got, ok, err := reopened.Get(ctx, "/data/kept.txt")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, got.Equal(now))
		})
	}
}

func TestStore_CancelledContextIsStorageError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Upsert(ctx, "/data/a.txt", time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, store.ErrStorage))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(store.Config{Backend: "leveldb", Path: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.ErrorIs(t, err, store.ErrUnknownBackend)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := store.OpenSQLite("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
}

func TestOpenSQLite_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deltas.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a database "), 512), 0o644))

	s, err := store.OpenSQLite(path)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, store.ErrStorage)

	// the lock must be released so a repaired file can be opened
	require.NoError(t, os.Remove(path))
	s, err = store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpenSQLite_UnwritableParent(t *testing.T) {
	// a regular file where a directory is expected fails even for root
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := store.OpenSQLite(filepath.Join(blocker, "sub", "deltas.db"))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, store.ErrStorage)
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    store.Backend
		wantErr bool
	}{
		{in: "", want: store.BackendSQLite},
		{in: "sqlite", want: store.BackendSQLite},
		{in: " Badger ", want: store.BackendBadger},
		{in: "bolt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := store.ParseBackend(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "deltas.db", filepath.Base(store.DefaultPath(store.BackendSQLite)))
	assert.Equal(t, "deltas.badger", filepath.Base(store.DefaultPath(store.BackendBadger)))
	assert.Equal(t, "deltafy", filepath.Base(filepath.Dir(store.DefaultPath(store.BackendSQLite))))
}

func TestIsPathUnderRoot(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want bool
	}{
		{name: "root itself", path: "/data", root: "/data", want: true},
		{name: "direct child", path: "/data/a.txt", root: "/data", want: true},
		{name: "nested", path: "/data/x/y/z.txt", root: "/data/", want: true},
		{name: "sibling prefix", path: "/data2/a.txt", root: "/data", want: false},
		{name: "parent", path: "/", root: "/data", want: false},
		{name: "filesystem root", path: "/etc/hosts", root: "/", want: true},
		{name: "unclean", path: "/data/./x/../a.txt", root: "/data", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.IsPathUnderRoot(tt.path, tt.root))
		})
	}
}
