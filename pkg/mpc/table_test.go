package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageTableSortedIDsIsDosOrdered(t *testing.T) {
	table := PackageTable{
		"Zeta":  {ID: "Zeta"},
		"alpha": {ID: "alpha"},
		"Beta":  {ID: "Beta"},
	}
	assert.Equal(t, []string{"alpha", "Beta", "Zeta"}, table.SortedIDs())
}

func makeStagingRoot(t *testing.T, dirs map[string]string) string {
	root := t.TempDir()
	for name, manifest := range dirs {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultManifestName), []byte(manifest), 0o644))
	}
	return root
}

func TestCollectStagingRootsMergesMultipleRoots(t *testing.T) {
	root1 := makeStagingRoot(t, map[string]string{"foo": "id=foo\nname=Foo\n"})
	root2 := makeStagingRoot(t, map[string]string{"bar": "id=bar\nname=Bar\n"})

	table, err := CollectStagingRoots([]string{root1, root2}, NullUI)
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Contains(t, table, "foo")
	assert.Contains(t, table, "bar")
}

func TestCollectStagingRootsFirstDuplicateWins(t *testing.T) {
	root1 := makeStagingRoot(t, map[string]string{"foo": "id=foo\nname=First\n"})
	root2 := makeStagingRoot(t, map[string]string{"foo2": "id=foo\nname=Second\n"})

	var warnings []string
	ui := &recordingUI{warn: &warnings}

	table, err := CollectStagingRoots([]string{root1, root2}, ui)
	require.NoError(t, err)
	require.Contains(t, table, "foo")
	assert.Equal(t, "First", table["foo"].Display)
	assert.Len(t, warnings, 1)
}

func TestCollectStagingRootsIgnoresEntriesWithoutManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-package"), 0o755))

	table, err := CollectStagingRoots([]string{root}, NullUI)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestCollectStagingRootsRejectsNonDirectoryRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := CollectStagingRoots([]string{file}, NullUI)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
