package mpc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texrepo/mpc/pkg/dospath"
)

func TestDigestCacheMissFallsBackAndPopulates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.sty")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	cache, err := OpenDigestCache(filepath.Join(dir, "cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	want, err := dospath.FileDigest(path)
	require.NoError(t, err)

	got, err := cache.FileDigestCached(path, info.ModTime(), info.Size())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got2, err := cache.FileDigestCached(path, info.ModTime(), info.Size())
	require.NoError(t, err)
	assert.Equal(t, want, got2)
}

func TestDigestCacheReflectsChangedModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.sty")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	cache, err := OpenDigestCache(filepath.Join(dir, "cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.FileDigestCached(path, info.ModTime(), info.Size())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("world"), 0o644))
	newer := info.ModTime().Add(time.Second)
	require.NoError(t, os.Chtimes(path, newer, newer))

	want, err := dospath.FileDigest(path)
	require.NoError(t, err)
	got, err := cache.FileDigestCached(path, newer, int64(len("world")))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadStagingDirectoryCachedUsesDigestCache(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, dir, "Files/texmf/tex/x.sty", "hi\n")

	cache, err := OpenDigestCache(filepath.Join(t.TempDir(), "cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	withCache, err := ReadStagingDirectoryCached(dir, cache, NullUI)
	require.NoError(t, err)
	withoutCache, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)

	assert.Equal(t, withoutCache.Digest, withCache.Digest)
}
