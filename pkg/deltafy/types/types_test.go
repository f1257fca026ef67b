package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusCreated, "CREATED"},
		{StatusModified, "MODIFIED"},
		{StatusDeleted, "DELETED"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())

			parsed, err := ParseStatus(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)
		})
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	_, err := ParseStatus("moved")
	require.ErrorIs(t, err, ErrInvalidStatus)

	got, err := ParseStatus(" modified ")
	require.NoError(t, err)
	assert.Equal(t, StatusModified, got)
}

func TestDeltaString(t *testing.T) {
	d := Delta{Path: "/tmp/a.txt", Timestamp: time.Unix(100, 0), Status: StatusCreated}
	assert.Equal(t, "CREATED [/tmp/a.txt]", d.String())
	assert.True(t, d.HasTimestamp())
	assert.True(t, d.IsUpdate())

	deleted := Delta{Path: "/tmp/a.txt", Status: StatusDeleted}
	assert.False(t, deleted.HasTimestamp())
	assert.False(t, deleted.IsUpdate())
}

func TestDeltaList_Order(t *testing.T) {
	l := NewDeltaList()
	assert.Equal(t, 0, l.Len())

	l.Append(Delta{Path: "/r/b", Status: StatusCreated})
	l.Append(Delta{Path: "/r/a", Status: StatusModified})
	l.Append(Delta{Path: "/r/c", Status: StatusDeleted})

	require.Equal(t, 3, l.Len())
	assert.Equal(t, "/r/b", l.At(0).Path)
	assert.Equal(t, "/r/a", l.At(1).Path)
	assert.Equal(t, "/r/c", l.At(2).Path)

	assert.Equal(t, 1, l.Count(StatusCreated))
	assert.Equal(t, 1, l.Count(StatusModified))
	assert.Equal(t, 1, l.Count(StatusDeleted))
}

func TestDeltaList_DeltasIsCopy(t *testing.T) {
	l := NewDeltaList()
	l.Append(Delta{Path: "/r/a", Status: StatusCreated})

	out := l.Deltas()
	out[0].Path = "/changed"

	assert.Equal(t, "/r/a", l.At(0).Path)
}

func TestDeltaList_HasPathAndIsUpdated(t *testing.T) {
	l := NewDeltaList()
	l.Append(Delta{Path: "/r/new", Status: StatusCreated})
	l.Append(Delta{Path: "/r/edited", Status: StatusModified})
	l.Append(Delta{Path: "/r/gone", Status: StatusDeleted})

	assert.True(t, l.HasPath("/r/new"))
	assert.True(t, l.HasPath("/r/gone"))
	assert.False(t, l.HasPath("/r/other"))

	assert.True(t, l.IsUpdated("/r/new"))
	assert.True(t, l.IsUpdated("/r/edited"))
	assert.False(t, l.IsUpdated("/r/gone"))
	assert.False(t, l.IsUpdated("/r/other"))
}

func TestDeltaList_IsUpdatedUsesMostRecent(t *testing.T) {
	l := NewDeltaList()
	l.Append(Delta{Path: "/r/x", Status: StatusCreated})
	l.Append(Delta{Path: "/r/x", Status: StatusDeleted})

	assert.False(t, l.IsUpdated("/r/x"))

	l.Append(Delta{Path: "/r/x", Status: StatusCreated})
	assert.True(t, l.IsUpdated("/r/x"))
}

func TestDeltaList_NilSafe(t *testing.T) {
	var l *DeltaList
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.HasPath("/x"))
	assert.False(t, l.IsUpdated("/x"))
	assert.Nil(t, l.Deltas())
	assert.Equal(t, 0, l.Count(StatusCreated))
}
