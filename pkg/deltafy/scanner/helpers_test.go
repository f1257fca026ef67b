package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// baseTime is a fixed mtime so tests never depend on the wall clock.
var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixture is a watched root plus the store scans run against.
type fixture struct {
	t     *testing.T
	root  string
	store store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, os.MkdirAll(root, 0o755))

	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "deltas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return &fixture{t: t, root: root, store: s}
}

// path returns the absolute path of rel under the root.
func (f *fixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// write creates or overwrites rel with an explicit mtime.
func (f *fixture) write(rel string, mtime time.Time) {
	f.t.Helper()
	p := f.path(rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(rel), 0o644))
	f.touch(rel, mtime)
}

// touch sets the mtime of rel.
func (f *fixture) touch(rel string, mtime time.Time) {
	f.t.Helper()
	require.NoError(f.t, os.Chtimes(f.path(rel), mtime, mtime))
}

func (f *fixture) remove(rel string) {
	f.t.Helper()
	require.NoError(f.t, os.RemoveAll(f.path(rel)))
}

func (f *fixture) scanner(opts Options) *Scanner {
	f.t.Helper()
	opts.Root = f.root
	if opts.Store == nil {
		opts.Store = f.store
	}
	s, err := New(opts)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) scan(s *Scanner) *types.DeltaList {
	f.t.Helper()
	list, err := s.Scan(context.Background())
	require.NoError(f.t, err)
	require.NotNil(f.t, list)
	return list
}

// stored returns the stored mtime for rel.
func (f *fixture) stored(rel string) (time.Time, bool) {
	f.t.Helper()
	ts, ok, err := f.store.Get(context.Background(), f.path(rel))
	require.NoError(f.t, err)
	return ts, ok
}

// relPaths returns the delta paths relative to the root, slash-separated.
func (f *fixture) relPaths(list *types.DeltaList) []string {
	f.t.Helper()
	out := make([]string, 0, list.Len())
	for _, d := range list.Deltas() {
		rel, err := filepath.Rel(f.root, d.Path)
		require.NoError(f.t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func statuses(list *types.DeltaList) []types.Status {
	out := make([]types.Status, 0, list.Len())
	for _, d := range list.Deltas() {
		out = append(out, d.Status)
	}
	return out
}

var errInjected = errors.New("injected failure")

// memStore is an in-memory store whose operations can be made to fail.
type memStore struct {
	mu        sync.Mutex
	records   map[string]time.Time
	failGet   bool
	failWrite bool
	failList  bool
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]time.Time)}
}

func (m *memStore) Get(_ context.Context, path string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return time.Time{}, false, errors.Join(store.ErrStorage, errInjected)
	}
	ts, ok := m.records[path]
	return ts, ok, nil
}

func (m *memStore) Upsert(_ context.Context, path string, modified time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.Join(store.ErrStorage, errInjected)
	}
	m.upserts++
	m.records[path] = modified
	return nil
}

func (m *memStore) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.Join(store.ErrStorage, errInjected)
	}
	delete(m.records, path)
	return nil
}

func (m *memStore) ListPaths(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errors.Join(store.ErrStorage, errInjected)
	}
	paths := make([]string, 0, len(m.records))
	for p := range m.records {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

func (m *memStore) Close() error { return nil }
