package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texrepo/mpc/pkg/dospath"
)

func writeStagingFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadStagingDirectoryClassifiesAndDigestsFiles(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, dir, "Files/texmf/tex/x.sty", "hello\n\n\n\n\n")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)

	assert.Equal(t, "foo", p.ID)
	assert.Equal(t, "Foo", p.Display)
	assert.Equal(t, []string{"texmf/tex/x.sty"}, p.RunFiles)
	assert.Empty(t, p.DocFiles)
	assert.Empty(t, p.SourceFiles)
	assert.EqualValues(t, 10, p.SizeRunFiles)
	assert.True(t, p.HasDigest)
}

func TestReadStagingDirectorySplitsRunDocSource(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, dir, "Files/texmf/tex/x.sty", "a")
	writeStagingFile(t, dir, "Files/texmf/doc/x.pdf", "bb")
	writeStagingFile(t, dir, "Files/texmf/source/x.dtx", "ccc")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)

	assert.Len(t, p.RunFiles, 1)
	assert.Len(t, p.DocFiles, 1)
	assert.Len(t, p.SourceFiles, 1)
	assert.EqualValues(t, 1, p.SizeRunFiles)
	assert.EqualValues(t, 2, p.SizeDocFiles)
	assert.EqualValues(t, 3, p.SizeSourceFiles)
}

func TestReadStagingDirectoryLegacyExternalName(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "externalname=foo\nname=Foo\n")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)
	assert.Equal(t, "foo", p.ID)
}

func TestReadStagingDirectoryMissingNameIsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\n")

	_, err := ReadStagingDirectory(dir, NullUI)
	require.Error(t, err)
	var invalid *InvalidManifest
	assert.ErrorAs(t, err, &invalid)
}

func TestReadStagingDirectoryDigestAlwaysRecomputed(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\nmd5=deadbeefdeadbeefdeadbeefdeadbeef\n")
	writeStagingFile(t, dir, "Files/texmf/tex/x.sty", "hello\n\n\n\n\n")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)
	assert.NotEqual(t, "deadbeefdeadbeefdeadbeefdeadbeef", p.Digest.String())
}

func TestReadStagingDirectoryRequiresArrayKey(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\nrequires;=bar\nrequires;=baz\n")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "baz"}, p.RequiredPackages)
}

func TestWriteAndReadMd5Sums(t *testing.T) {
	dir := t.TempDir()
	writeStagingFile(t, dir, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, dir, "Files/texmf/tex/x.sty", "hello\n\n\n\n\n")

	p, err := ReadStagingDirectory(dir, NullUI)
	require.NoError(t, err)

	fd, err := ReadMd5Sums(dir)
	require.NoError(t, err)
	assert.Nil(t, fd)

	digest, err := walkFilesTree(dir, &PackageInfo{}, nil)
	require.NoError(t, err)
	require.NoError(t, WriteMd5Sums(dir, digest))

	reread, err := ReadMd5Sums(dir)
	require.NoError(t, err)
	assert.Equal(t, digest, reread)
	assert.Equal(t, p.Digest, dospath.TdsDigest(digest))
}
