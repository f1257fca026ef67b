package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// document is the structure shared by the JSON and YAML formatters.
type document struct {
	Deltas  []deltaRecord `json:"deltas" yaml:"deltas"`
	Summary summary       `json:"summary" yaml:"summary"`
	Skipped []skipRecord  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type deltaRecord struct {
	Path      string     `json:"path" yaml:"path"`
	Status    string     `json:"status" yaml:"status"`
	Timestamp *time.Time `json:"timestamp" yaml:"timestamp"` // nil for DELETED
}

type summary struct {
	Root         string    `json:"root" yaml:"root"`
	DryRun       bool      `json:"dry_run" yaml:"dry_run"`
	Created      int       `json:"created" yaml:"created"`
	Modified     int       `json:"modified" yaml:"modified"`
	Deleted      int       `json:"deleted" yaml:"deleted"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	Elapsed      string    `json:"elapsed" yaml:"elapsed"`
	DirsVisited  int64     `json:"dirs_visited" yaml:"dirs_visited"`
	FilesVisited int64     `json:"files_visited" yaml:"files_visited"`
	SkippedCount int64     `json:"skipped" yaml:"skipped"`
}

type skipRecord struct {
	Path  string `json:"path" yaml:"path"`
	Op    string `json:"op" yaml:"op"`
	Error string `json:"error" yaml:"error"`
}

func newDeltaRecord(d types.Delta) deltaRecord {
	rec := deltaRecord{Path: d.Path, Status: d.Status.String()}
	if d.HasTimestamp() {
		ts := d.Timestamp
		rec.Timestamp = &ts
	}
	return rec
}

func buildDocument(r *Result) document {
	deltas := make([]deltaRecord, len(r.Deltas))
	for i, d := range r.Deltas {
		deltas[i] = newDeltaRecord(d)
	}

	var skipped []skipRecord
	for _, s := range r.Skipped {
		skipped = append(skipped, skipRecord(s))
	}

	return document{
		Deltas: deltas,
		Summary: summary{
			Root:         r.Root,
			DryRun:       r.DryRun,
			Created:      r.Count(types.StatusCreated),
			Modified:     r.Count(types.StatusModified),
			Deleted:      r.Count(types.StatusDeleted),
			StartedAt:    r.Stats.StartedAt,
			Elapsed:      r.Stats.Elapsed.String(),
			DirsVisited:  r.Stats.DirsVisited,
			FilesVisited: r.Stats.FilesVisited,
			SkippedCount: r.Stats.Skipped,
		},
		Skipped: skipped,
	}
}

// JSONFormatter writes a single indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

// JSONLFormatter writes one compact JSON object per delta, suited to
// streaming a watch into jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	for _, d := range r.Deltas {
		if err := encoder.Encode(newDeltaRecord(d)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure the JSON formatters implement Formatter.
var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
)
