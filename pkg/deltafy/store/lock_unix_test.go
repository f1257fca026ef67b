//go:build unix

package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/deltafy/pkg/deltafy/store"
)

func TestOpenSQLite_SecondOpenIsLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deltas.db")

	first, err := store.OpenSQLite(path)
	require.NoError(t, err)

	_, err = store.OpenSQLite(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrLocked)
	assert.ErrorIs(t, err, store.ErrStorage)

	require.NoError(t, first.Close())

	again, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
