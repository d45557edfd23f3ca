package mpc

import (
	"os"
	"path/filepath"
	"time"

	"github.com/texrepo/mpc/pkg/dospath"
)

// ReconcileOptions carries the run-wide knobs the reconciler needs beyond
// a single PackageInfo: where archives live, what "now" is, and the
// default archive format new builds get.
type ReconcileOptions struct {
	RepoDir            string
	ProgramStartTime   int64
	DefaultArchiveType ArchiveFileType
	TexmfPrefix        string
	Signer             *Signer
}

// archiveCandidateExts lists the extensions tried in priority order when
// looking for an existing archive: cab first, then the two tar formats,
// with "last match wins" so a newer format present alongside an older one
// takes precedence.
var archiveCandidateExts = []string{".cab", ".tar.bz2", ".tar.lzma"}

// findExistingArchive returns the path of the highest-priority archive
// for id under repoDir, or "" if none exists.
func findExistingArchive(repoDir, id string) (string, error) {
	found := ""
	for _, ext := range archiveCandidateExts {
		candidate := filepath.Join(repoDir, id+ext)
		exists, err := isFile(candidate)
		if err != nil {
			return "", &IoFailure{Path: candidate, Err: err}
		}
		if exists {
			found = candidate
		}
	}
	return found, nil
}

func extFromArchivePath(path string) ArchiveFileType {
	switch filepath.Ext(path) {
	case ".cab":
		return ArchiveMSCab
	case ".bz2":
		return ArchiveTarBzip2
	case ".lzma":
		return ArchiveTarLzma
	}
	return ArchiveNone
}

// ReconcilePackage decides reuse vs rebuild of p's compressed archive and
// updates p's archive fields and time_packaged in place. Ignored packages
// and pure containers are never passed to this function; the caller
// filters them out first.
func ReconcilePackage(p *PackageInfo, level Level, prevEntry *RepositoryManifestEntry, opts ReconcileOptions, ui UI) error {
	p.Level = level

	existingPath, err := findExistingArchive(opts.RepoDir, p.ID)
	if err != nil {
		return err
	}

	if existingPath != "" && prevEntry != nil && prevEntry.HasMD5 && prevEntry.MD5 == p.Digest && prevEntry.HasTimePackaged {
		return adoptExistingArchive(p, existingPath, prevEntry.TimePackaged)
	}

	if existingPath != "" {
		if reused, err := tryReuseViaEmbeddedManifest(p, existingPath, prevEntry, ui); err != nil {
			return err
		} else if reused {
			return nil
		}
	}

	return rebuildArchive(p, opts, ui)
}

func adoptExistingArchive(p *PackageInfo, existingPath string, timePackaged int64) error {
	info, err := os.Stat(existingPath)
	if err != nil {
		return &IoFailure{Path: existingPath, Err: err}
	}
	digest, err := dospath.FileDigest(existingPath)
	if err != nil {
		return err
	}
	p.ArchiveFileSize = info.Size()
	p.ArchiveFileDigest = digest
	p.HasArchiveFileDigest = true
	p.ArchiveType = extFromArchivePath(existingPath)
	p.TimePackaged = timePackaged
	return nil
}

// tryReuseViaEmbeddedManifest implements the local-recovery path: when the
// repository manifest disagrees with what's on disk, peek at the
// candidate archive's own embedded .tpm before giving up and rebuilding.
func tryReuseViaEmbeddedManifest(p *PackageInfo, existingPath string, prevEntry *RepositoryManifestEntry, ui UI) (bool, error) {
	tmp, err := os.MkdirTemp("", "mpc-peek-*")
	if err != nil {
		return false, &IoFailure{Path: "", Err: err}
	}
	defer os.RemoveAll(tmp)

	member := PackageManifestPath(p.ID)
	extracted, err := ExtractSingleFile(existingPath, member, tmp)
	if err != nil {
		ui.ReportWarning("%s: could not inspect embedded manifest for %s, rebuilding: %v", existingPath, p.ID, err)
		return false, nil
	}
	embedded, err := ParsePackageManifestFile(extracted)
	if err != nil {
		ui.ReportWarning("%s: embedded manifest for %s unreadable, rebuilding: %v", existingPath, p.ID, err)
		return false, nil
	}
	if !embedded.HasDigest || embedded.Digest != p.Digest {
		return false, nil
	}
	if prevEntry != nil && prevEntry.HasTimePackaged && prevEntry.TimePackaged != embedded.TimePackaged {
		ui.ReportWarning("%s: embedded manifest's time_packaged (%d) disagrees with the repository manifest's recorded value (%d), adopting the embedded value", p.ID, embedded.TimePackaged, prevEntry.TimePackaged)
	}
	if err := adoptExistingArchive(p, existingPath, embedded.TimePackaged); err != nil {
		return false, err
	}
	return true, nil
}

func rebuildArchive(p *PackageInfo, opts ReconcileOptions, ui UI) error {
	p.TimePackaged = opts.ProgramStartTime
	tpmPath := filepath.Join(p.Path, FilesDirName, PackageManifestPath(p.ID))
	if err := WritePackageManifestFile(p, tpmPath, opts.Signer); err != nil {
		return err
	}

	archiveType := opts.DefaultArchiveType
	if archiveType == "" || archiveType == ArchiveNone {
		archiveType = ArchiveTarLzma
	}
	destPath := filepath.Join(opts.RepoDir, p.ID+archiveType.Ext())
	sourceDir := filepath.Join(p.Path, FilesDirName)

	prefix := opts.TexmfPrefix
	if prefix == "" {
		prefix = TexmfPrefixDefault
	}
	if err := CreateArchive(sourceDir, prefix, destPath, archiveType); err != nil {
		return err
	}

	mtime := time.Unix(p.TimePackaged, 0)
	if err := os.Chtimes(destPath, mtime, mtime); err != nil {
		return &IoFailure{Path: destPath, Err: err}
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return &IoFailure{Path: destPath, Err: err}
	}
	digest, err := dospath.FileDigest(destPath)
	if err != nil {
		return err
	}

	p.ArchiveType = archiveType
	p.ArchiveFileSize = info.Size()
	p.ArchiveFileDigest = digest
	p.HasArchiveFileDigest = true

	ui.ReportInfo("rebuilt %s (%s)", p.ID, archiveType)
	return nil
}
