package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	dir, release, err := Acquire("remedyd-test")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Populated directories are removed too.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), []byte("x"), 0o644))

	release()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Release is idempotent.
	release()
}

func TestAcquire_UniqueDirectories(t *testing.T) {
	a, releaseA, err := Acquire("remedyd-test")
	require.NoError(t, err)
	defer releaseA()

	b, releaseB, err := Acquire("remedyd-test")
	require.NoError(t, err)
	defer releaseB()

	assert.NotEqual(t, a, b)
}
