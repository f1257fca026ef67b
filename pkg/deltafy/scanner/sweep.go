package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// sweep reports every tracked file under the root that no longer exists,
// removing its record. It runs after the walk, so a rename shows up as a
// CREATED for the new path followed by a DELETED for the old one.
func (r *run) sweep() error {
	paths, err := r.store.ListPaths(r.ctx)
	if err != nil {
		return err
	}

	for _, path := range paths {
		gone, ok := r.sweepCandidate(path)
		if !ok || !gone {
			continue
		}
		if err := r.store.Remove(r.ctx, path); err != nil {
			return err
		}
		r.deltas.Append(newDelta(path, time.Time{}, types.StatusDeleted))
	}
	return nil
}

// sweepCandidate reports whether path is in scope for this root and, if so,
// whether it has vanished. A path that cannot be checked counts as present.
func (r *run) sweepCandidate(path string) (gone, inScope bool) {
	if !r.tracked(path) {
		return false, false
	}

	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, true
	case errors.Is(err, fs.ErrNotExist):
		return true, true
	default:
		r.skip(path, "lstat", err)
		return false, true
	}
}

// tracked reports whether a stored path belongs to this scanner: it lies
// under the root, passes the predicate as a file, and no directory between it
// and the root is excluded.
func (s *Scanner) tracked(path string) bool {
	if path == s.root || !store.IsPathUnderRoot(path, s.root) {
		return false
	}
	if !s.include.Include(path, true) {
		return false
	}
	for dir := filepath.Dir(path); dir != s.root && len(dir) > len(s.root); dir = filepath.Dir(dir) {
		if !s.include.Include(dir, false) {
			return false
		}
	}
	return true
}
