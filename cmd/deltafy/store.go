package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/deltafy/pkg/deltafy/config"
	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
)

func newStoreCmd(a *app) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and manage the timestamp store",
		Long: `Inspect and manage the store holding the last seen modification time of
every tracked file.

The store is a SQLite database by default. Select Badger with --backend
badger or store.backend in the config file.`,
	}

	storeCmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Show the store location",
			Args:  cobra.NoArgs,
			RunE:  a.runStorePath,
		},
		&cobra.Command{
			Use:   "list [dir]",
			Short: "List tracked files and their recorded modification times",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.runStoreList,
		},
		&cobra.Command{
			Use:   "forget <dir>",
			Short: "Drop every record under a directory",
			Long: `Drop every record under a directory. The next scan of that directory
reports its files as created again.`,
			Args: cobra.ExactArgs(1),
			RunE: a.runStoreForget,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show store statistics",
			Args:  cobra.NoArgs,
			RunE:  a.runStoreStats,
		},
	)
	return storeCmd
}

func (a *app) runStorePath(_ *cobra.Command, _ []string) error {
	_, path, err := a.storeLocation()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		a.printVerbose("Store does not exist yet")
	}
	return nil
}

func (a *app) runStoreList(cmd *cobra.Command, args []string) error {
	root := ""
	if len(args) > 0 {
		var err error
		if root, err = absPath(args[0]); err != nil {
			return err
		}
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	paths, err := st.ListPaths(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, path := range paths {
		if root != "" && !store.IsPathUnderRoot(path, root) {
			continue
		}
		modified, ok, err := st.Get(ctx, path)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", modified.UTC().Format(time.RFC3339Nano), path)
	}
	return w.Flush()
}

func (a *app) runStoreForget(cmd *cobra.Command, args []string) error {
	root, err := absPath(args[0])
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	paths, err := st.ListPaths(ctx)
	if err != nil {
		return err
	}

	removed := 0
	for _, path := range paths {
		if !store.IsPathUnderRoot(path, root) {
			continue
		}
		if err := st.Remove(ctx, path); err != nil {
			return err
		}
		removed++
	}

	a.printInfo("Forgot %s records under %s", humanize.Comma(int64(removed)), root)
	return nil
}

func (a *app) runStoreStats(cmd *cobra.Command, _ []string) error {
	backend, path, err := a.storeLocation()
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	paths, err := st.ListPaths(ctx)
	if err != nil {
		return err
	}

	var oldest, newest time.Time
	for _, p := range paths {
		modified, ok, err := st.Get(ctx, p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if oldest.IsZero() || modified.Before(oldest) {
			oldest = modified
		}
		if modified.After(newest) {
			newest = modified
		}
	}

	fmt.Fprintf(a.stdout, "Backend:  %s\n", backend)
	fmt.Fprintf(a.stdout, "Location: %s\n", path)
	fmt.Fprintf(a.stdout, "Size:     %s\n", humanize.IBytes(uint64(diskUsage(path))))
	fmt.Fprintf(a.stdout, "Records:  %s\n", humanize.Comma(int64(len(paths))))
	if len(paths) > 0 {
		fmt.Fprintf(a.stdout, "Oldest:   %s (%s)\n", oldest.UTC().Format(time.RFC3339), humanize.Time(oldest))
		fmt.Fprintf(a.stdout, "Newest:   %s (%s)\n", newest.UTC().Format(time.RFC3339), humanize.Time(newest))
	}
	return nil
}

// diskUsage sums the size of a store file and its sidecars, or of every file
// in a store directory.
func diskUsage(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		total := info.Size()
		for _, suffix := range []string{"-wal", "-shm"} {
			if side, err := os.Stat(path + suffix); err == nil {
				total += side.Size()
			}
		}
		return total
	}

	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}

// absPath expands ~ and makes path absolute.
func absPath(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}
