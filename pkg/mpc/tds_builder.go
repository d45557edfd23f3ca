package mpc

import (
	"os"
	"path/filepath"

	"github.com/texrepo/mpc/pkg/dospath"
)

// BuildTDS is the alternate terminal stage: instead of archives, it
// materializes a complete TeX directory tree under texmfParent plus an
// mpm.ini, used when staging a distribution image rather than a
// downloadable repository. When tpmDir is non-empty, a copy of every
// written .tpm is also placed there, flat, for tooling that wants the
// manifests without walking the TDS tree.
func BuildTDS(table PackageTable, texmfParent, tpmDir string, ui UI) (*RepositoryManifest, error) {
	manifest := NewRepositoryManifest()

	for _, id := range table.SortedIDs() {
		p := table[id]
		if p.Level == LevelIgnored {
			continue
		}
		if err := materializePackage(p, texmfParent); err != nil {
			return nil, err
		}
		if tpmDir != "" {
			if err := os.MkdirAll(tpmDir, 0o755); err != nil {
				return nil, &IoFailure{Path: tpmDir, Err: err}
			}
			if err := WritePackageManifestFile(p, filepath.Join(tpmDir, id+".tpm"), nil); err != nil {
				return nil, err
			}
		}

		e := &RepositoryManifestEntry{
			Level:                  p.Level,
			MD5:                    p.Digest,
			HasMD5:                 p.HasDigest,
			TimePackaged:           p.TimePackaged,
			HasTimePackaged:        true,
			Version:                p.Version,
			TargetSystem:           p.TargetSystem,
			MinTargetSystemVersion: p.MinTargetSystemVersion,
			Type:                   ArchiveNone,
		}
		manifest.Entries[id] = e
	}

	return manifest, WriteRepositoryManifest(manifest, filepath.Join(texmfParent, RepositoryManifestName))
}

// materializePackage copies p's files into texmfParent preserving TDS
// layout, verifies the copied tree's TDS digest against p.digest, and
// writes the package's .tpm manifest under texmf/tpm/packages/.
func materializePackage(p *PackageInfo, texmfParent string) error {
	fd := dospath.FileDigests{}

	for _, rel := range p.AllFiles() {
		src := filepath.Join(p.Path, FilesDirName, rel)
		dst := filepath.Join(texmfParent, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return &IoFailure{Path: dst, Err: err}
		}
		digest, err := dospath.CopyWithDigest(src, dst)
		if err != nil {
			return err
		}
		fd[rel] = digest
	}

	if p.HasDigest {
		got := dospath.TdsDigest(fd)
		if got != p.Digest {
			return &DigestMismatch{PackageID: p.ID, Want: p.Digest.String(), Got: got.String()}
		}
	}

	tpmPath := filepath.Join(texmfParent, PackageManifestPath(p.ID))
	return WritePackageManifestFile(p, tpmPath, nil)
}
