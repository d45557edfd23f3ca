package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeListFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadPackageListParsesLevelAndArchiveType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	writeListFile(t, path, "S foo;TarLzma\n- bar\n")

	specs, err := ReadPackageList(path, NullUI)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "foo", specs[0].ID)
	assert.Equal(t, LevelSmall, specs[0].Level)
	assert.Equal(t, ArchiveTarLzma, specs[0].ArchiveFileType)

	assert.Equal(t, "bar", specs[1].ID)
	assert.Equal(t, LevelIgnored, specs[1].Level)
}

func TestReadPackageListFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner.txt")
	writeListFile(t, inner, "M baz\n")
	outer := filepath.Join(dir, "outer.txt")
	writeListFile(t, outer, "L foo\n@inner.txt\n")

	specs, err := ReadPackageList(outer, NullUI)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "foo", specs[0].ID)
	assert.Equal(t, "baz", specs[1].ID)
}

func TestReadPackageListKeepsFirstDuplicate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	writeListFile(t, path, "S foo\nM foo\n")

	var warnings []string
	ui := &recordingUI{warn: &warnings}
	specs, err := ReadPackageList(path, ui)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, LevelSmall, specs[0].Level)
	assert.Len(t, warnings, 1)
}

func TestParsePackageListLineRejectsUnknownArchiveType(t *testing.T) {
	_, err := parsePackageListLine("S foo;Zip")
	assert.Error(t, err)
}
