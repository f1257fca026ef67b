package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// Preview reports what Scan would report right now without touching the store.
// The tree is walked in parallel and the results are put back into Scan's order.
func (s *Scanner) Preview(ctx context.Context) (*types.DeltaList, error) {
	p := &preview{
		Scanner:   s,
		ctx:       ctx,
		startedAt: time.Now(),
	}

	conf := fastwalk.Config{
		Follow: false, // Never follow symlinks.
	}
	if err := fastwalk.Walk(&conf, s.root, p.visit); err != nil {
		if p.storeErr != nil {
			err = p.storeErr
		}
		s.log.Error("preview aborted", "root", s.root, "error", err)
		return nil, err
	}

	slices.SortFunc(p.found, func(a, b types.Delta) int {
		switch {
		case traversalLess(s.root, a.Path, b.Path):
			return -1
		case traversalLess(s.root, b.Path, a.Path):
			return 1
		default:
			return 0
		}
	})

	deltas := types.NewDeltaList()
	for _, d := range p.found {
		deltas.Append(d)
	}

	deleted, err := p.deletions()
	if err != nil {
		return nil, err
	}
	for _, d := range deleted {
		deltas.Append(d)
	}

	s.stats = types.ScanStats{
		StartedAt:    p.startedAt,
		Elapsed:      time.Since(p.startedAt),
		DirsVisited:  p.dirs.Load(),
		FilesVisited: p.files.Load(),
		Skipped:      p.skipped.Load(),
	}
	return deltas, nil
}

// preview collects results from concurrent fastwalk callbacks.
type preview struct {
	*Scanner
	ctx       context.Context
	startedAt time.Time

	dirs    atomic.Int64
	files   atomic.Int64
	skipped atomic.Int64

	mu       sync.Mutex
	found    []types.Delta
	storeErr error
}

func (p *preview) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		p.skip(path, "walk", err)
		if d != nil && d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	}

	if d.IsDir() {
		if path != p.root && !p.include.Include(path, false) {
			return fastwalk.SkipDir
		}
		p.dirs.Add(1)
		return nil
	}

	if !p.include.Include(path, true) {
		return nil
	}

	info, err := d.Info()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		p.skip(path, "lstat", err)
		return nil
	}
	p.files.Add(1)

	stored, found, err := p.store.Get(p.ctx, path)
	if err != nil {
		p.mu.Lock()
		if p.storeErr == nil {
			p.storeErr = err
		}
		p.mu.Unlock()
		return err
	}

	status, changed := Classify(stored, found, info.ModTime())
	if !changed {
		return nil
	}

	p.mu.Lock()
	p.found = append(p.found, newDelta(path, info.ModTime(), status))
	p.mu.Unlock()
	return nil
}

// deletions mirrors the sweep without removing anything.
func (p *preview) deletions() ([]types.Delta, error) {
	paths, err := p.store.ListPaths(p.ctx)
	if err != nil {
		return nil, err
	}

	var out []types.Delta
	for _, path := range paths {
		if !p.tracked(path) {
			continue
		}
		_, err := os.Lstat(path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			out = append(out, newDelta(path, time.Time{}, types.StatusDeleted))
		default:
			p.skip(path, "lstat", err)
		}
	}
	return out, nil
}

func (p *preview) skip(path, op string, err error) {
	p.skipped.Add(1)
	p.log.Warn("skipping entry", "path", path, "op", op, "error", err)
	if p.onSkip != nil {
		p.mu.Lock()
		p.onSkip(types.ScanError{Path: path, Op: op, Error: err.Error()})
		p.mu.Unlock()
	}
}
