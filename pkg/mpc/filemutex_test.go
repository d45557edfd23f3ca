package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRepositoryLockRunsCallback(t *testing.T) {
	repoDir := t.TempDir()
	ran := false
	err := WithRepositoryLock(repoDir, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	_, err = os.Stat(filepath.Join(repoDir, ".mpc.lock"))
	assert.NoError(t, err)
}

func TestWithRepositoryLockPropagatesCallbackError(t *testing.T) {
	repoDir := t.TempDir()
	sentinel := &ConfigurationError{Message: "boom"}
	err := WithRepositoryLock(repoDir, func() error { return sentinel })
	assert.Equal(t, sentinel, err)
}

func TestWithRepositoryLockSerializesSequentialCallers(t *testing.T) {
	repoDir := t.TempDir()
	require.NoError(t, WithRepositoryLock(repoDir, func() error { return nil }))
	require.NoError(t, WithRepositoryLock(repoDir, func() error { return nil }))
}
