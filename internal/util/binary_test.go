package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, p string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), mode))
}

func TestFindBinary(t *testing.T) {
	t.Run("accepts an explicit path", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "download.sh")
		writeFile(t, p, 0o755)

		path, err := FindBinary(p)
		require.NoError(t, err)
		assert.Equal(t, p, path)
	})

	t.Run("rejects an explicit path that is not executable", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "download.sh")
		writeFile(t, p, 0o644)

		_, err := FindBinary(p)
		assert.Error(t, err)
	})

	t.Run("prefers the current directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "ls"), 0o755)
		t.Chdir(dir)

		path, err := FindBinary("ls")
		require.NoError(t, err)
		assert.Equal(t, "./ls", path)
	})

	t.Run("finds binary on PATH", func(t *testing.T) {
		t.Chdir(t.TempDir())

		path, err := FindBinary("sh")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(path))
	})

	t.Run("returns error when binary not found", func(t *testing.T) {
		path, err := FindBinary("definitely-nonexistent-binary-12345")
		assert.Error(t, err)
		assert.Empty(t, path)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := FindBinary("")
		assert.Error(t, err)
	})

	t.Run("ignores directories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "tool"), 0o755))

		_, err := FindBinary(filepath.Join(dir, "tool"))
		assert.Error(t, err)
	})
}
