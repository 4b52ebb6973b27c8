package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		s := NewFSStore(t.TempDir())

		require.NoError(t, s.Save(ctx, "index/snapshot.json", []byte(`{"version":1}`)))

		data, err := s.Load(ctx, "index/snapshot.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"version":1}`), data)
	})

	t.Run("save replaces previous artifact", func(t *testing.T) {
		s := NewFSStore(t.TempDir())

		require.NoError(t, s.Save(ctx, "snapshot.json", []byte("first")))
		require.NoError(t, s.Save(ctx, "snapshot.json", []byte("second")))

		data, err := s.Load(ctx, "snapshot.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), data)
	})

	t.Run("load missing artifact", func(t *testing.T) {
		s := NewFSStore(t.TempDir())

		_, err := s.Load(ctx, "missing.json")
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		dir := t.TempDir()
		s := NewFSStore(dir)

		require.NoError(t, s.Save(ctx, "snapshot.json", []byte("data")))
		require.NoError(t, s.Delete(ctx, "snapshot.json"))
		require.NoError(t, s.Delete(ctx, "snapshot.json"))

		_, err := os.Stat(filepath.Join(dir, "snapshot.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		s := NewFSStore(dir)

		require.NoError(t, s.Save(ctx, "snapshot.json", []byte("data")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "snapshot.json", entries[0].Name())
	})
}
