package mpc

import (
	"os"
	"path/filepath"
)

// ExtractArchive unpacks archivePath into destDir using the external
// archiver contract: cabextract for .cab (read-only legacy format), tar
// for everything else with auto-detected compression.
func ExtractArchive(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &IoFailure{Path: destDir, Err: err}
	}
	if filepath.Ext(archivePath) == ".cab" {
		return runArchiver("", "cabextract", "-d", destDir, archivePath)
	}
	return runArchiver("", "tar", "--force-local", "-xf", archivePath, "-C", destDir)
}

// ExtractSingleFile unpacks just member from archivePath into destDir,
// returning its path. Used by the reconciler to peek at an archive's
// embedded package-manifest without unpacking the whole thing.
func ExtractSingleFile(archivePath, member, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", &IoFailure{Path: destDir, Err: err}
	}
	if filepath.Ext(archivePath) == ".cab" {
		if err := runArchiver("", "cabextract", "-d", destDir, "-F", member, archivePath); err != nil {
			return "", err
		}
		return filepath.Join(destDir, member), nil
	}
	if err := runArchiver("", "tar", "--force-local", "-xf", archivePath, "-C", destDir, member); err != nil {
		return "", err
	}
	return filepath.Join(destDir, member), nil
}

// CreateArchive builds a fresh archive at destPath from the contents of
// sourceDir/subdir, following the protocol: an empty tar, one append of
// subdir's contents, then compression in place. destPath's extension
// (from archiveType.Ext()) decides the compressor.
func CreateArchive(sourceDir, subdir, destPath string, archiveType ArchiveFileType) error {
	tarPath := destPath + ".building.tar"
	defer os.Remove(tarPath)

	if err := runArchiver("", "tar", "-cf", tarPath, "--files-from", "/dev/null"); err != nil {
		return err
	}
	if err := runArchiver(sourceDir, "tar", "-rf", tarPath, subdir); err != nil {
		return err
	}

	switch archiveType {
	case ArchiveTarLzma:
		return compressInto(tarPath, destPath, "xz", "--compress", "--format=lzma", "--stdout")
	case ArchiveTarBzip2:
		return compressInto(tarPath, destPath, "bzip2", "--compress", "--stdout")
	case ArchiveTar:
		return os.Rename(tarPath, destPath)
	default:
		return &ConfigurationError{Message: "unsupported archive type for creation: " + string(archiveType)}
	}
}

// compressInto pipes srcPath through the compressor named by name+args and
// writes the result to destPath.
func compressInto(srcPath, destPath, name string, args ...string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return &IoFailure{Path: srcPath, Err: err}
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return &IoFailure{Path: destPath, Err: err}
	}

	compressErr := runArchiverPipe(in, out, name, args...)
	closeErr := out.Close()
	if compressErr != nil {
		return compressErr
	}
	if closeErr != nil {
		return &IoFailure{Path: destPath, Err: closeErr}
	}
	return nil
}
