package clientdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockCreatesRootAndExcludesSecondHolder(t *testing.T) {
	root := filepath.Join(t.TempDir(), "genesisproject-client")

	first, err := New(root)
	require.NoError(t, err)
	require.NoError(t, first.Lock())
	assert.DirExists(t, root)
	assert.FileExists(t, filepath.Join(root, LockFileName))

	second, err := New(root)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Lock(), ErrLocked)

	// a non holder unlocking is a no-op
	require.NoError(t, second.Unlock())
	assert.FileExists(t, filepath.Join(root, LockFileName))

	require.NoError(t, first.Unlock())
	assert.NoFileExists(t, filepath.Join(root, LockFileName))

	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())
}
