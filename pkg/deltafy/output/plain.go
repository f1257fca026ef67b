package output

import (
	"bytes"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// PlainFormatter writes one line per delta:
//
//	CREATED [/path/to/file] @ 2024-03-01T12:00:00Z
//
// Times are printed in UTC. DELETED deltas carry no observable time and
// print "@ 0".
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, d := range r.Deltas {
		w.WriteString(d.String())
		w.WriteString(" @ ")
		w.WriteString(plainTimestamp(d))
		w.WriteByte('\n')
	}
	return nil
}

func plainTimestamp(d types.Delta) string {
	if !d.HasTimestamp() {
		return "0"
	}
	return d.Timestamp.UTC().Format(time.RFC3339Nano)
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
