package mpc

import (
	"path/filepath"

	"github.com/alexflint/go-filemutex"
)

// WithRepositoryLock runs f while holding an advisory lock on a
// ".mpc.lock" file inside repoDir, guarding against two mpc invocations
// writing the same repository concurrently.
func WithRepositoryLock(repoDir string, f func() error) error {
	lockPath := filepath.Join(repoDir, ".mpc.lock")
	m, err := filemutex.New(lockPath)
	if err != nil {
		return &IoFailure{Path: lockPath, Err: err}
	}
	if err := m.Lock(); err != nil {
		return &IoFailure{Path: lockPath, Err: err}
	}
	defer m.Unlock()

	return f()
}
