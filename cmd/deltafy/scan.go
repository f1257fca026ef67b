package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/deltafy/pkg/deltafy/config"
	"github.com/jamesainslie/deltafy/pkg/deltafy/filter"
	"github.com/jamesainslie/deltafy/pkg/deltafy/history"
	"github.com/jamesainslie/deltafy/pkg/deltafy/logging"
	"github.com/jamesainslie/deltafy/pkg/deltafy/output"
	"github.com/jamesainslie/deltafy/pkg/deltafy/poller"
	"github.com/jamesainslie/deltafy/pkg/deltafy/scanner"
	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan once, record and report changes",
		Long: `Scan the directory once, report every change since the previous scan,
and record the new state in the store.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runScan,
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <dir>",
		Short: "Show pending changes without recording them",
		Long: `Report what the next scan would report, leaving the store untouched.

The tree is walked in parallel, so preview is also a quick way to see how
large a directory is before watching it.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runPreview,
	}
}

// runWatch is the root command handler: poll dir until interrupted.
func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	st, s, err := a.openScanner(args[0])
	if err != nil {
		return err
	}
	defer closeStore(st)

	journal := a.journal()
	if journal != nil {
		if removed, err := journal.Prune(a.cfg.History.RetentionDays); err != nil {
			logging.Get("cli").Warn("history prune failed", "error", err)
		} else if removed > 0 {
			a.printVerbose("Pruned %d history entries", removed)
		}
	}

	initial, _ := cmd.Flags().GetBool("initial")
	p, err := poller.New(&epochScanner{Scanner: s, app: a}, poller.Options{
		Interval:      a.cfg.Interval,
		ReportInitial: initial,
		OnDeltas: func(e poller.Epoch) error {
			a.record(journal, s.Root(), e.Deltas, e.Stats)
			return a.render(s.Root(), e.Deltas, e.Stats, false)
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.printVerbose("Watching %s every %s", s.Root(), a.cfg.Interval)
	return p.Run(ctx)
}

// runScan performs a single recorded scan.
func (a *app) runScan(cmd *cobra.Command, args []string) error {
	st, s, err := a.openScanner(args[0])
	if err != nil {
		return err
	}
	defer closeStore(st)

	deltas, err := s.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	a.record(a.journal(), s.Root(), deltas, s.Stats())
	return a.render(s.Root(), deltas, s.Stats(), false)
}

// runPreview reports pending changes without touching the store.
func (a *app) runPreview(cmd *cobra.Command, args []string) error {
	st, s, err := a.openScanner(args[0])
	if err != nil {
		return err
	}
	defer closeStore(st)

	deltas, err := s.Preview(cmd.Context())
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	return a.render(s.Root(), deltas, s.Stats(), true)
}

// epochScanner clears the skipped entries collected by the previous scan so
// that each rendered epoch lists only its own.
type epochScanner struct {
	*scanner.Scanner
	app *app
}

func (e *epochScanner) Scan(ctx context.Context) (*types.DeltaList, error) {
	e.app.takeSkipped()
	return e.Scanner.Scan(ctx)
}

// openStore opens the configured timestamp store.
func (a *app) openStore() (store.Store, error) {
	backend, path, err := a.storeLocation()
	if err != nil {
		return nil, err
	}
	a.printVerbose("Opening %s store at %s", backend, path)

	st, err := store.Open(store.Config{Backend: backend, Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// storeLocation resolves the configured backend and its path.
func (a *app) storeLocation() (store.Backend, string, error) {
	backend, err := store.ParseBackend(a.cfg.Store.Backend)
	if err != nil {
		return "", "", err
	}
	path := a.cfg.Store.Path
	if path == "" {
		path = store.DefaultPath(backend)
	}
	return backend, path, nil
}

// openScanner opens the store and builds a scanner for dir.
func (a *app) openScanner(dir string) (store.Store, *scanner.Scanner, error) {
	root, err := config.ExpandPath(dir)
	if err != nil {
		return nil, nil, err
	}

	patterns, err := filter.NewPatterns(a.cfg.Exclude.Dirs, a.cfg.Exclude.Files)
	if err != nil {
		return nil, nil, err
	}

	st, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}

	s, err := scanner.New(scanner.Options{
		Root:    root,
		Store:   st,
		Include: patterns,
		OnSkip:  a.addSkipped,
	})
	if err != nil {
		closeStore(st)
		return nil, nil, err
	}
	return st, s, nil
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		logging.Get("cli").Error("failed to close store", "error", err)
	}
}

func (a *app) addSkipped(e types.ScanError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.skipped = append(a.skipped, e)
}

// takeSkipped returns the collected skipped entries and resets the list.
func (a *app) takeSkipped() []types.ScanError {
	a.mu.Lock()
	defer a.mu.Unlock()
	skipped := a.skipped
	a.skipped = nil
	return skipped
}

// journal returns the history journal, or nil when history is disabled.
func (a *app) journal() *history.Journal {
	if !a.cfg.History.Enabled {
		return nil
	}
	j, err := history.New(a.cfg.History.Path)
	if err != nil {
		logging.Get("cli").Warn("history disabled", "error", err)
		return nil
	}
	return j
}

// record journals a non-empty epoch. Failures are logged, never fatal.
func (a *app) record(j *history.Journal, root string, deltas *types.DeltaList, stats types.ScanStats) {
	if j == nil {
		return
	}
	entry, err := j.Record(root, deltas, stats)
	if err != nil {
		logging.Get("cli").Warn("failed to record history", "root", root, "error", err)
		return
	}
	if entry != nil {
		a.printVerbose("Recorded history entry %s", entry.ID)
	}
}

// render formats one epoch and writes it to stdout.
func (a *app) render(root string, deltas *types.DeltaList, stats types.ScanStats, dryRun bool) error {
	formatter, err := output.Get(a.cfg.Output)
	if err != nil {
		return err
	}

	result := output.NewResult(root, deltas, stats)
	result.Skipped = a.takeSkipped()
	result.DryRun = dryRun

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if _, err := a.stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
