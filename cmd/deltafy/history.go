package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/deltafy/pkg/deltafy/history"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View past changes",
		Long: `View scans that reported changes.

Every scan or watch epoch with at least one change is journaled, so changes
can be reviewed after they scrolled past. Entries older than
history.retention_days are pruned when a watch starts or with
'deltafy history clean'.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runHistory(limit)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show the changes of one entry",
			Long:  `Render the changes of one history entry with the selected output format.`,
			Args:  cobra.ExactArgs(1),
			RunE:  a.runHistoryShow,
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove entries older than the retention period",
			Args:  cobra.NoArgs,
			RunE:  a.runHistoryClean,
		},
	)
	return historyCmd
}

// openJournal returns the configured journal even when recording is disabled,
// so existing entries stay reviewable.
func (a *app) openJournal() (*history.Journal, error) {
	j, err := history.New(a.cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return j, nil
}

func (a *app) runHistory(limit int) error {
	j, err := a.openJournal()
	if err != nil {
		return err
	}

	entries, err := j.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		a.printInfo("No history entries found.")
		a.printInfo("Run 'deltafy scan <dir>' or 'deltafy <dir>' to record changes.")
		return nil
	}

	out := a.stdout
	fmt.Fprintf(out, "%-36s  %-16s  %7s  %7s  %7s  %s\n", "ID", "WHEN", "CREATED", "MODIFIED", "DELETED", "ROOT")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, entry := range entries {
		fmt.Fprintf(out, "%-36s  %-16s  %7d  %7d  %7d  %s\n",
			entry.ID,
			humanize.Time(entry.Timestamp),
			entry.Summary.Created,
			entry.Summary.Modified,
			entry.Summary.Deleted,
			entry.Root,
		)
	}

	a.printInfo("\nShowing %d entries. Use --limit to see more.", len(entries))
	a.printInfo("Use 'deltafy history show <id>' for the changes of a specific entry.")
	return nil
}

func (a *app) runHistoryShow(_ *cobra.Command, args []string) error {
	j, err := a.openJournal()
	if err != nil {
		return err
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	deltas := types.NewDeltaList()
	for _, d := range entry.Deltas {
		deltas.Append(d)
	}
	return a.render(entry.Root, deltas, entry.Stats, false)
}

func (a *app) runHistoryClean(_ *cobra.Command, _ []string) error {
	j, err := a.openJournal()
	if err != nil {
		return err
	}

	days := a.cfg.History.RetentionDays
	if days == 0 {
		a.printInfo("history.retention_days is 0; keeping every entry.")
		return nil
	}

	removed, err := j.Prune(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	a.printInfo("Removed %d history entries older than %d days.", removed, days)
	return nil
}
