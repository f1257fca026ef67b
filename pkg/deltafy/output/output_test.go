package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

func sampleResult() *Result {
	list := types.NewDeltaList()
	list.Append(types.Delta{Path: "/w/a.txt", Timestamp: testTime, Status: types.StatusCreated})
	list.Append(types.Delta{Path: "/w/b.txt", Timestamp: testTime.Add(time.Hour), Status: types.StatusModified})
	list.Append(types.Delta{Path: "/w/c.txt", Status: types.StatusDeleted})

	r := NewResult("/w", list, types.ScanStats{
		StartedAt:    testTime,
		Elapsed:      1500 * time.Millisecond,
		DirsVisited:  3,
		FilesVisited: 1200,
		Skipped:      1,
	})
	r.Skipped = []types.ScanError{{Path: "/w/locked", Op: "readdir", Error: "permission denied"}}
	return r
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "jsonl", "plain", "pretty", "yaml"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Get("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	reg := NewRegistry()
	reg.Register("custom", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"custom"}, reg.Available())
}

func TestResultCount(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, 1, r.Count(types.StatusCreated))
	assert.Equal(t, 1, r.Count(types.StatusModified))
	assert.Equal(t, 1, r.Count(types.StatusDeleted))
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "CREATED [/w/a.txt] @ 2024-03-01T12:00:00.0000005Z", lines[0])
	assert.Equal(t, "MODIFIED [/w/b.txt] @ 2024-03-01T13:00:00.0000005Z", lines[1])
	assert.Equal(t, "DELETED [/w/c.txt] @ 0", lines[2])
}

func TestPlainFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, NewResult("/w", types.NewDeltaList(), types.ScanStats{})))
	assert.Empty(t, buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var doc struct {
		Deltas []struct {
			Path      string     `json:"path"`
			Status    string     `json:"status"`
			Timestamp *time.Time `json:"timestamp"`
		} `json:"deltas"`
		Summary struct {
			Root         string `json:"root"`
			Created      int    `json:"created"`
			Deleted      int    `json:"deleted"`
			FilesVisited int64  `json:"files_visited"`
			Elapsed      string `json:"elapsed"`
		} `json:"summary"`
		Skipped []map[string]string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Deltas, 3)
	assert.Equal(t, "CREATED", doc.Deltas[0].Status)
	require.NotNil(t, doc.Deltas[0].Timestamp)
	assert.True(t, doc.Deltas[0].Timestamp.Equal(testTime))
	assert.Equal(t, "DELETED", doc.Deltas[2].Status)
	assert.Nil(t, doc.Deltas[2].Timestamp)
	assert.Equal(t, "/w", doc.Summary.Root)
	assert.Equal(t, 1, doc.Summary.Created)
	assert.Equal(t, 1, doc.Summary.Deleted)
	assert.Equal(t, int64(1200), doc.Summary.FilesVisited)
	assert.Equal(t, "1.5s", doc.Summary.Elapsed)
	require.Len(t, doc.Skipped, 1)
	assert.Equal(t, "readdir", doc.Skipped[0]["op"])
}

func TestJSONLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"path":"/w/c.txt","status":"DELETED","timestamp":null}`, lines[2])
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	deltas, ok := doc["deltas"].([]any)
	require.True(t, ok)
	require.Len(t, deltas, 3)
	first, ok := deltas[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/w/a.txt", first["path"])
	assert.Equal(t, "CREATED", first["status"])

	summary, ok := doc["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["modified"])
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &PrettyFormatter{Now: func() time.Time { return testTime.Add(3 * time.Hour) }}
	r := sampleResult()
	r.DryRun = true
	require.NoError(t, f.Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "/w/a.txt")
	assert.Contains(t, out, "CREATED")
	assert.Contains(t, out, "3 hours ago")
	assert.Contains(t, out, "gone")
	assert.Contains(t, out, "1,200 files")
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "permission denied")
	assert.Contains(t, out, "deleted")
}

func TestPrettyFormatter_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, NewResult("/w", types.NewDeltaList(), types.ScanStats{})))
	assert.Contains(t, buf.String(), "No changes")
}
