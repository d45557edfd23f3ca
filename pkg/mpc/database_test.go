package mpc

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLstDigestIsOrderIndependentOfReadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("xx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	got, err := computeLstDigest(dir)
	require.NoError(t, err)
	assert.Len(t, got, 32)

	got2, err := computeLstDigest(dir)
	require.NoError(t, err)
	assert.Equal(t, got, got2)
}

func TestComputeLstDigestChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	before, err := computeLstDigest(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644))
	after, err := computeLstDigest(dir)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestWriteFilesCsvSortsAscii(t *testing.T) {
	table := PackageTable{
		"pkg": {
			ID:       "pkg",
			RunFiles: []string{"texmf/tex/Zeta.sty", "texmf/tex/alpha.sty"},
		},
	}
	repoDir := t.TempDir()
	opts := WriteOptions{RepoDir: repoDir}

	// writeFilesCsv shells out to xz; skip if unavailable in this
	// environment rather than failing the whole suite on missing tooling.
	if _, err := exec.LookPath("xz"); err != nil {
		t.Skip("xz not available")
	}

	require.NoError(t, writeFilesCsv(table, opts, NullUI))
	_, err := os.Stat(filepath.Join(repoDir, FilesCsvName+".lzma"))
	assert.NoError(t, err)
}
