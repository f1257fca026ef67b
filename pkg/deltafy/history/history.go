// Package history keeps a journal of scans that reported changes, one JSON
// file per epoch, so past deltas can be reviewed after the fact.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history entry not found")

// Summary counts deltas per status.
type Summary struct {
	Created  int `json:"created"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// Total returns the number of deltas.
func (s Summary) Total() int {
	return s.Created + s.Modified + s.Deleted
}

// Entry is one journaled epoch.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Root      string          `json:"root"`
	Summary   Summary         `json:"summary"`
	Stats     types.ScanStats `json:"stats"`
	Deltas    []types.Delta   `json:"deltas"`
}

// Journal reads and writes entries in a directory.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New returns a journal rooted at dir. The directory is created on first write.
func New(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Journal{dir: dir, now: time.Now}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Record journals a scan. Empty epochs are not recorded and return nil.
func (j *Journal) Record(root string, list *types.DeltaList, stats types.ScanStats) (*Entry, error) {
	if list.Len() == 0 {
		return nil, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: j.now().UTC(),
		Root:      root,
		Summary: Summary{
			Created:  list.Count(types.StatusCreated),
			Modified: list.Count(types.StatusModified),
			Deleted:  list.Count(types.StatusDeleted),
		},
		Stats:  stats,
		Deltas: list.Deltas(),
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := j.write(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

// write stores entry atomically via a temp file and rename.
func (j *Journal) write(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	path := filepath.Join(j.dir, fileName(entry))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// fileName sorts lexically by time: 20240301T120000.000000000Z-<id>.json.
func fileName(entry *Entry) string {
	return entry.Timestamp.Format("20060102T150405.000000000Z") + "-" + entry.ID + ".json"
}

// List returns entries newest first. limit <= 0 returns all of them.
// Unreadable files are skipped.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (j *Journal) Get(id string) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Prune deletes entries older than retentionDays and returns how many went.
// retentionDays <= 0 keeps everything.
func (j *Journal) Prune(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	names, err := j.entryFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		entry, err := j.readFile(name)
		if err != nil || !entry.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove history entry %s: %w", entry.ID, err)
		}
		removed++
	}
	return removed, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	names, err := j.entryFiles()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entry, err := j.readFile(name)
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (j *Journal) entryFiles() ([]string, error) {
	files, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		names = append(names, f.Name())
	}
	return names, nil
}

func (j *Journal) readFile(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, name))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
