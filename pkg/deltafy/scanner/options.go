// Package scanner detects created, modified and deleted files under a
// directory tree by comparing modification times against a store.
//
// A Scan walks the tree once, stat-ing every entry exactly once, and then
// sweeps the store for records whose files have vanished. Each scan reports
// exactly the changes since the previous one.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/deltafy/pkg/deltafy/filter"
	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// Options configures a Scanner.
type Options struct {
	// Root is the watched directory. It is made absolute and cleaned.
	Root string

	// Store holds the last observed modification time of every tracked file.
	Store store.Store

	// Include decides which paths are considered. Nil includes everything.
	Include filter.Predicate

	// OnSkip is called for every entry skipped because of a filesystem error.
	OnSkip func(types.ScanError)
}

// Validate checks the options and normalizes Root and Include.
func (o *Options) Validate() error {
	if o.Root == "" {
		return fmt.Errorf("%w: no watched root supplied", ErrConfiguration)
	}
	if o.Store == nil {
		return fmt.Errorf("%w: no store supplied", ErrConfiguration)
	}

	root, err := filepath.Abs(o.Root)
	if err != nil {
		return fmt.Errorf("%w: resolving root %q: %w", ErrConfiguration, o.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: root %q: %w", ErrConfiguration, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %q is not a directory", ErrConfiguration, root)
	}

	o.Root = root
	if o.Include == nil {
		o.Include = filter.IncludeAll
	}
	return nil
}
