package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDisassembleRoundTripsToStagingDirectory is Testable Property 3: a
// package materialized into a TDS tree and then disassembled back out
// produces a staging directory whose recomputed digest matches the
// original package's digest.
func TestDisassembleRoundTripsToStagingDirectory(t *testing.T) {
	stagingIn := t.TempDir()
	writeStagingFile(t, stagingIn, "package.ini", "id=foo\nname=Foo\nversion=1.0\n")
	writeStagingFile(t, stagingIn, "Files/texmf/tex/latex/foo/foo.sty", "\\ProvidesPackage{foo}\n")
	writeStagingFile(t, stagingIn, "Files/texmf/doc/latex/foo/README", "readme\n")

	original, err := ReadStagingDirectory(stagingIn, NullUI)
	require.NoError(t, err)

	texmfParent := t.TempDir()
	tpmDir := t.TempDir()
	_, err = BuildTDS(PackageTable{"foo": original}, texmfParent, tpmDir, NullUI)
	require.NoError(t, err)

	tpmPath := filepath.Join(tpmDir, "foo.tpm")
	_, err = os.Stat(tpmPath)
	require.NoError(t, err)

	sourceDir := texmfParent
	stagingOut := t.TempDir()
	disassembled, err := Disassemble(tpmPath, sourceDir, stagingOut, NullUI)
	require.NoError(t, err)

	reread, err := ReadStagingDirectory(stagingOut, NullUI)
	require.NoError(t, err)

	assert.Equal(t, original.ID, disassembled.ID)
	assert.Equal(t, original.Digest, reread.Digest)
	assert.ElementsMatch(t, original.RunFiles, reread.RunFiles)
	assert.ElementsMatch(t, original.DocFiles, reread.DocFiles)
}
