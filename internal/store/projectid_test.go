package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectIDIsStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()

	first, err := ProjectID(dir)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := ProjectID(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "the persisted id is reused, not regenerated")
}

func TestProjectIDDiffersPerProject(t *testing.T) {
	a, err := ProjectID(t.TempDir())
	require.NoError(t, err)
	b, err := ProjectID(t.TempDir())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
