// Package types provides core data types for the deltafy change detector.
// It includes the delta model reported by each scan, the ordered delta list,
// and the bookkeeping structures describing a scan's statistics and skipped entries.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status classifies a single reported change.
type Status int

// Delta statuses. The numeric values are stable and appear in persisted history.
const (
	// StatusCreated marks a path observed for the first time.
	StatusCreated Status = iota
	// StatusModified marks a path whose modification time moved by at least the fuzz threshold.
	StatusModified
	// StatusDeleted marks a tracked path that no longer exists.
	StatusDeleted
)

// Status string constants.
const (
	statusCreated  = "CREATED"
	statusModified = "MODIFIED"
	statusDeleted  = "DELETED"
)

// String returns the upper-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return statusCreated
	case StatusModified:
		return statusModified
	default:
		return statusDeleted
	}
}

// ErrInvalidStatus indicates that a status string could not be parsed.
var ErrInvalidStatus = errors.New("invalid status")

// ParseStatus parses a status name (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case statusCreated:
		return StatusCreated, nil
	case statusModified:
		return StatusModified, nil
	case statusDeleted:
		return StatusDeleted, nil
	default:
		return StatusCreated, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Delta is a single change reported by one scan.
// Deltas are plain values; DELETED deltas carry the zero time as their timestamp
// because the last modification time of a vanished file cannot be observed.
type Delta struct {
	// Path is the absolute path of the changed file.
	Path string `json:"path"`

	// Timestamp is the modification time observed for CREATED and MODIFIED.
	Timestamp time.Time `json:"timestamp"`

	// Status is the kind of change.
	Status Status `json:"status"`
}

// HasTimestamp reports whether the delta carries an observed modification time.
func (d Delta) HasTimestamp() bool {
	return !d.Timestamp.IsZero()
}

// IsUpdate reports whether the delta is a CREATED or MODIFIED change.
func (d Delta) IsUpdate() bool {
	return d.Status == StatusCreated || d.Status == StatusModified
}

// String returns "STATUS [path]".
func (d Delta) String() string {
	return fmt.Sprintf("%s [%s]", d.Status, d.Path)
}

// DeltaList is the ordered result of one scan.
// Order is discovery order: tree-walk deltas first, then deletion-sweep deltas.
// The list only grows; it offers no removal or reordering.
type DeltaList struct {
	deltas []Delta
}

// NewDeltaList creates an empty list.
func NewDeltaList() *DeltaList {
	return &DeltaList{deltas: make([]Delta, 0)}
}

// Append adds a delta to the end of the list.
func (l *DeltaList) Append(d Delta) {
	l.deltas = append(l.deltas, d)
}

// Len returns the number of deltas.
func (l *DeltaList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.deltas)
}

// At returns the delta at index i. It panics if i is out of range.
func (l *DeltaList) At(i int) Delta {
	return l.deltas[i]
}

// Deltas returns a copy of the deltas in discovery order.
func (l *DeltaList) Deltas() []Delta {
	if l == nil {
		return nil
	}
	out := make([]Delta, len(l.deltas))
	copy(out, l.deltas)
	return out
}

// HasPath reports whether any delta in the list refers to path.
func (l *DeltaList) HasPath(path string) bool {
	if l == nil {
		return false
	}
	for _, d := range l.deltas {
		if d.Path == path {
			return true
		}
	}
	return false
}

// IsUpdated reports whether the most recent delta for path is CREATED or MODIFIED.
func (l *DeltaList) IsUpdated(path string) bool {
	if l == nil {
		return false
	}
	for i := len(l.deltas) - 1; i >= 0; i-- {
		if l.deltas[i].Path == path {
			return l.deltas[i].IsUpdate()
		}
	}
	return false
}

// Count returns the number of deltas with the given status.
func (l *DeltaList) Count(status Status) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, d := range l.deltas {
		if d.Status == status {
			n++
		}
	}
	return n
}

// ScanError represents a filesystem entry skipped during a scan.
// It pairs a path with the failed operation for debugging and reporting.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Op is the filesystem operation that failed (e.g. "stat", "readdir").
	Op string `json:"op"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// ScanStats describes the most recent scan.
type ScanStats struct {
	// StartedAt is when the scan began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total time taken by the walk and the sweep.
	Elapsed time.Duration `json:"elapsed"`

	// DirsVisited is the number of directories read, including the root.
	DirsVisited int64 `json:"dirs_visited"`

	// FilesVisited is the number of included files classified.
	FilesVisited int64 `json:"files_visited"`

	// Skipped is the number of entries skipped because of filesystem errors.
	Skipped int64 `json:"skipped"`
}
