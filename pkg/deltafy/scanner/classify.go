package scanner

import (
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// FuzzThreshold is the smallest mtime difference treated as a modification.
// Filesystems with coarse or drifting clocks report jitter below it.
const FuzzThreshold = time.Second

// Classify decides what, if anything, changed for a file whose current
// modification time is current. stored and found come from the store.
//
// A missing record is CREATED. A record differing by at least FuzzThreshold in
// either direction is MODIFIED. Anything closer is unchanged and reports false.
func Classify(stored time.Time, found bool, current time.Time) (types.Status, bool) {
	if !found {
		return types.StatusCreated, true
	}

	diff := current.Sub(stored)
	if diff < 0 {
		diff = -diff
	}
	if diff >= FuzzThreshold {
		return types.StatusModified, true
	}
	return 0, false
}

// ComparePaths orders two files by modification time, following symlinks.
// It returns -1 if a is older than b, 1 if a is newer, and 0 if the times are
// identical. No fuzz is applied.
func ComparePaths(a, b string) (int, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return 0, fmt.Errorf("compare %q: %w", a, err)
	}
	ib, err := os.Stat(b)
	if err != nil {
		return 0, fmt.Errorf("compare %q: %w", b, err)
	}
	return ia.ModTime().Compare(ib.ModTime()), nil
}

func newDelta(path string, ts time.Time, status types.Status) types.Delta {
	return types.Delta{Path: path, Timestamp: ts, Status: status}
}
