package checkpoint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/checkpoint"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing file is zero", func(t *testing.T) {
		t.Parallel()

		store := checkpoint.NewFileStore(filepath.Join(t.TempDir(), "cp.txt"))
		n, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("save then load", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cp.txt")
		store := checkpoint.NewFileStore(path)

		require.NoError(t, store.Save(ctx, 3))
		require.NoError(t, store.Save(ctx, 42))

		n, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, n)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "42", string(data))
	})

	t.Run("tolerates surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cp.txt")
		require.NoError(t, os.WriteFile(path, []byte(" 7\n"), 0o600))

		n, err := checkpoint.NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	})

	t.Run("corrupt content", func(t *testing.T) {
		t.Parallel()

		for _, content := range []string{"abc", "-3", ""} {
			path := filepath.Join(t.TempDir(), "cp.txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			n, err := checkpoint.NewFileStore(path).Load(ctx)
			require.ErrorIs(t, err, checkpoint.ErrCorrupt, "content %q", content)
			assert.Zero(t, n)
		}
	})

	t.Run("negative position is rejected", func(t *testing.T) {
		t.Parallel()

		store := checkpoint.NewFileStore(filepath.Join(t.TempDir(), "cp.txt"))
		require.ErrorIs(t, store.Save(ctx, -1), checkpoint.ErrNegativePosition)
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cp.txt")
		store := checkpoint.NewFileStore(path)
		require.NoError(t, store.Save(ctx, 5))

		require.NoError(t, store.Reset(ctx))
		require.NoError(t, store.Reset(ctx), "reset of a missing file is a no-op")

		n, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("default path", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, checkpoint.DefaultFile, checkpoint.NewFileStore("").Path())
	})

	t.Run("healthcheck", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, checkpoint.NewFileStore(filepath.Join(dir, "cp.txt")).Healthcheck(ctx))

		err := checkpoint.NewFileStore(filepath.Join(dir, "missing", "cp.txt")).Healthcheck(ctx)
		require.ErrorIs(t, err, checkpoint.ErrHealthcheckFailed)
	})
}

func TestAcquireLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.txt")

	lock, err := checkpoint.AcquireLock(path)
	require.NoError(t, err)

	_, err = checkpoint.AcquireLock(path)
	require.ErrorIs(t, err, checkpoint.ErrLocked)

	require.NoError(t, lock.Release())

	again, err := checkpoint.AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var m checkpoint.Memory

	n, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.Save(ctx, 9))
	n, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	require.ErrorIs(t, m.Save(ctx, -1), checkpoint.ErrNegativePosition)
}
