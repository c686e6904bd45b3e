package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecretFrom(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("  s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank"), []byte(" \n"), 0o600))

	t.Run("trims", func(t *testing.T) {
		v, err := ReadSecretFrom(dir, "db_password")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadSecretFrom(dir, "nope")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ReadSecretFrom(dir, "blank")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSecretNotFound)
		assert.Contains(t, err.Error(), "is empty")
	})
}
