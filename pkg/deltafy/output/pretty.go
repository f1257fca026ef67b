package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// PrettyFormatter renders a styled report for terminals.
type PrettyFormatter struct {
	// Now anchors relative times. Nil means time.Now.
	Now func() time.Time
}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatDeltas(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Skipped) > 0 {
		w.WriteString(f.formatSkipped(r.Skipped))
	}
	return nil
}

func (f *PrettyFormatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	lines := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)),
		fmt.Sprintf("%s %s", LabelStyle.Render("Scanned:"), ValueStyle.Render(fmt.Sprintf(
			"%s files in %s dirs, %s",
			humanize.Comma(r.Stats.FilesVisited),
			humanize.Comma(r.Stats.DirsVisited),
			r.Stats.Elapsed.Round(time.Millisecond),
		))),
	}
	if r.DryRun {
		lines = append(lines, DryRunStyle.Render("Dry run: the store was not updated"))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatDeltas(r *Result) string {
	if len(r.Deltas) == 0 {
		return MutedStyle.Render("  No changes") + "\n"
	}

	width := 0
	for _, d := range r.Deltas {
		width = max(width, len(d.Status.String()))
	}

	now := f.now()
	var sb strings.Builder
	for _, d := range r.Deltas {
		label := StatusStyle(d.Status).Render(fmt.Sprintf("%-*s", width, d.Status.String()))
		when := "gone"
		if d.HasTimestamp() {
			when = humanize.RelTime(d.Timestamp, now, "ago", "from now")
		}
		fmt.Fprintf(&sb, "  %s  %s  %s\n", label, PathStyle.Render(d.Path), MutedStyle.Render(when))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		footerCount(types.StatusCreated, r.Count(types.StatusCreated)),
		footerCount(types.StatusModified, r.Count(types.StatusModified)),
		footerCount(types.StatusDeleted, r.Count(types.StatusDeleted)),
		MutedStyle.Render("Use -o plain for unformatted output"),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func footerCount(status types.Status, n int) string {
	label := strings.ToLower(status.String())
	return fmt.Sprintf("%s %s", StatusStyle(status).Render(humanize.Comma(int64(n))), LabelStyle.Render(label))
}

func (f *PrettyFormatter) formatSkipped(skipped []types.ScanError) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render(fmt.Sprintf("Skipped %d unreadable entries:", len(skipped))))
	sb.WriteString("\n")
	for _, s := range skipped {
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("  %s (%s): %s", s.Path, s.Op, s.Error)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
