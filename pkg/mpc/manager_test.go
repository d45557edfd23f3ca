package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRunBuildTDSMaterializesTree(t *testing.T) {
	stagingRoot := makeStagingRoot(t, nil)
	fooDir := filepath.Join(stagingRoot, "foo")
	require.NoError(t, os.MkdirAll(fooDir, 0o755))
	writeStagingFile(t, fooDir, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, fooDir, "Files/texmf/tex/latex/foo/foo.sty", "\\ProvidesPackage{foo}\n")

	texmfParent := t.TempDir()
	tpmDir := t.TempDir()

	mgr := NewManager(NullUI)
	err := mgr.RunBuildTDS(BuildTDSOptions{
		StagingRoots: []string{stagingRoot},
		TexmfParent:  texmfParent,
		TpmDir:       tpmDir,
		DefaultLevel: LevelSmall,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(texmfParent, "texmf", "tex", "latex", "foo", "foo.sty"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(tpmDir, "foo.tpm"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(texmfParent, RepositoryManifestName))
	assert.NoError(t, err)
}

func TestManagerRunDisassembleWritesStagingDirectory(t *testing.T) {
	stagingIn := t.TempDir()
	writeStagingFile(t, stagingIn, "package.ini", "id=foo\nname=Foo\n")
	writeStagingFile(t, stagingIn, "Files/texmf/tex/latex/foo/foo.sty", "\\ProvidesPackage{foo}\n")
	original, err := ReadStagingDirectory(stagingIn, NullUI)
	require.NoError(t, err)

	texmfParent := t.TempDir()
	tpmDir := t.TempDir()
	_, err = BuildTDS(PackageTable{"foo": original}, texmfParent, tpmDir, NullUI)
	require.NoError(t, err)

	stagingOut := filepath.Join(t.TempDir(), "nested", "out")
	mgr := NewManager(NullUI)
	err = mgr.RunDisassemble(DisassemblePackageOptions{
		TpmFile:     filepath.Join(tpmDir, "foo.tpm"),
		TexmfParent: texmfParent,
		StagingDir:  stagingOut,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(stagingOut, DefaultManifestName))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(stagingOut, "Files", "texmf", "tex", "latex", "foo", "foo.sty"))
	assert.NoError(t, err)
}
