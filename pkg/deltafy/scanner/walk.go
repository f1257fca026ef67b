package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type entry struct {
	path string
	info fs.FileInfo
}

// walk visits dir in pre-order: its files first, then each included
// subdirectory recursively, both groups in name order.
func (r *run) walk(dir string) error {
	r.stats.DirsVisited++

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		r.skip(dir, "readdir", err)
		// ReadDir returns what it read before failing; it is sorted but incomplete.
		if len(dirEntries) == 0 {
			return nil
		}
	}

	files, dirs := r.lstatAll(dir, dirEntries)

	for _, f := range files {
		if !r.include.Include(f.path, true) {
			continue
		}
		if err := r.visitFile(f.path, f.info); err != nil {
			return err
		}
	}

	for _, d := range dirs {
		if !r.include.Include(d.path, false) {
			continue
		}
		if err := r.walk(d.path); err != nil {
			return err
		}
	}
	return nil
}

// lstatAll stats every entry once and splits them into non-directories and
// directories. Symlinks are never followed, so a link to a directory is a file.
func (r *run) lstatAll(dir string, dirEntries []fs.DirEntry) (files, dirs []entry) {
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())
		info, err := de.Info()
		if errors.Is(err, fs.ErrNotExist) {
			// Removed since ReadDir; the sweep reports it if it was tracked.
			continue
		}
		if err != nil {
			r.skip(path, "lstat", err)
			continue
		}

		if info.IsDir() {
			dirs = append(dirs, entry{path: path, info: info})
		} else {
			files = append(files, entry{path: path, info: info})
		}
	}
	return files, dirs
}

// visitFile classifies one included file and records the result.
func (r *run) visitFile(path string, info fs.FileInfo) error {
	r.stats.FilesVisited++
	current := info.ModTime()

	stored, found, err := r.store.Get(r.ctx, path)
	if err != nil {
		return err
	}

	status, changed := Classify(stored, found, current)
	if !changed {
		return nil
	}

	if err := r.store.Upsert(r.ctx, path, current); err != nil {
		return err
	}
	r.deltas.Append(newDelta(path, current, status))
	return nil
}
