package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/filter"
	"github.com/jamesainslie/deltafy/pkg/deltafy/logging"
	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// ErrConfiguration is returned by New when the options are unusable.
var ErrConfiguration = errors.New("invalid scanner configuration")

// Scanner reports deltas for one watched root against one store.
// It is not safe for concurrent Scan calls.
type Scanner struct {
	root    string
	store   store.Store
	include filter.Predicate
	onSkip  func(types.ScanError)

	stats types.ScanStats
	log   *logging.Logger
}

// New validates opts and returns a Scanner.
func New(opts Options) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Scanner{
		root:    opts.Root,
		store:   opts.Store,
		include: opts.Include,
		onSkip:  opts.OnSkip,
		log:     logging.Get("scanner"),
	}, nil
}

// Root returns the absolute watched root.
func (s *Scanner) Root() string {
	return s.root
}

// Stats returns statistics for the most recent Scan or Preview.
func (s *Scanner) Stats() types.ScanStats {
	return s.stats
}

// Scan walks the tree, classifies every included file, then sweeps the store
// for vanished files. Store mutations are committed as they happen.
//
// Unreadable entries are skipped and retried on the next scan. Any store
// failure aborts the scan; ctx is only consulted by the store, so
// cancellation surfaces the same way.
func (s *Scanner) Scan(ctx context.Context) (*types.DeltaList, error) {
	r := &run{
		Scanner: s,
		ctx:     ctx,
		deltas:  types.NewDeltaList(),
		stats:   types.ScanStats{StartedAt: time.Now()},
	}

	if err := r.walk(s.root); err != nil {
		s.log.Error("scan aborted during walk", "root", s.root, "error", err)
		return nil, err
	}
	if err := r.sweep(); err != nil {
		s.log.Error("scan aborted during sweep", "root", s.root, "error", err)
		return nil, err
	}

	r.stats.Elapsed = time.Since(r.stats.StartedAt)
	s.stats = r.stats

	s.log.Debug("scan finished",
		"root", s.root,
		"deltas", r.deltas.Len(),
		"dirs", r.stats.DirsVisited,
		"files", r.stats.FilesVisited,
		"skipped", r.stats.Skipped,
		"elapsed", r.stats.Elapsed,
	)
	return r.deltas, nil
}

// run holds the state of a single Scan.
type run struct {
	*Scanner
	ctx    context.Context
	deltas *types.DeltaList
	stats  types.ScanStats
}

// skip records an entry that could not be read this epoch.
func (r *run) skip(path, op string, err error) {
	r.stats.Skipped++
	r.log.Warn("skipping entry", "path", path, "op", op, "error", err)
	if r.onSkip != nil {
		r.onSkip(types.ScanError{Path: path, Op: op, Error: err.Error()})
	}
}
