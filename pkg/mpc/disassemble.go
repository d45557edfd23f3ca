package mpc

import (
	"os"
	"path/filepath"

	"github.com/texrepo/mpc/pkg/dospath"
)

// Disassemble is the inverse of the staging reader: given a live .tpm
// file and the TDS tree it was materialized into, it reconstructs a
// staging directory at stagingDir.
func Disassemble(tpmPath, sourceDir, stagingDir string, ui UI) (*PackageInfo, error) {
	p, err := ParsePackageManifestFile(tpmPath)
	if err != nil {
		return nil, err
	}

	ownManifest := PackageManifestPath(p.ID)
	p.RunFiles = removePath(p.RunFiles, ownManifest)

	filesRoot := filepath.Join(stagingDir, FilesDirName)
	fd := dospath.FileDigests{}

	for _, rel := range p.AllFiles() {
		src := filepath.Join(sourceDir, filepath.FromSlash(rel))
		dst := filepath.Join(filesRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, &IoFailure{Path: dst, Err: err}
		}
		digest, err := dospath.CopyWithDigest(src, dst)
		if err != nil {
			return nil, err
		}
		fd[rel] = digest
	}
	p.Digest = dospath.TdsDigest(fd)
	p.HasDigest = true
	p.Path = stagingDir

	if err := writePackageIni(p, filepath.Join(stagingDir, DefaultManifestName)); err != nil {
		return nil, err
	}
	if err := WriteMd5Sums(stagingDir, fd); err != nil {
		return nil, err
	}
	descPath := filepath.Join(stagingDir, DescriptionFileName)
	if err := os.WriteFile(descPath, []byte(p.Description), 0o644); err != nil {
		return nil, &IoFailure{Path: descPath, Err: err}
	}

	freshTpm := filepath.Join(filesRoot, PackageManifestPath(p.ID))
	if err := WritePackageManifestFile(p, freshTpm, nil); err != nil {
		return nil, err
	}
	p.RunFiles = append(p.RunFiles, PackageManifestPath(p.ID))

	return p, nil
}

func removePath(paths []string, target string) []string {
	out := paths[:0]
	for _, p := range paths {
		if dospath.Compare(p, target) != 0 {
			out = append(out, p)
		}
	}
	return out
}

// writePackageIni synthesizes package.ini from p's fields, the mirror of
// what ReadStagingDirectory parses.
func writePackageIni(p *PackageInfo, path string) error {
	var sb []byte
	write := func(key, value string) {
		if value == "" {
			return
		}
		sb = append(sb, key...)
		sb = append(sb, '=')
		sb = append(sb, value...)
		sb = append(sb, '\n')
	}
	sb = append(sb, "id="...)
	sb = append(sb, p.ID...)
	sb = append(sb, '\n')
	write("name", p.Display)
	write("title", p.Title)
	write("creator", p.Creator)
	write("version", p.Version)
	write("targetsystem", p.TargetSystem)
	write("min_target_system_version", p.MinTargetSystemVersion)
	write("ctan_path", p.CTANPath)
	write("copyright_owner", p.CopyrightOwner)
	write("copyright_year", p.CopyrightYear)
	write("license_type", p.LicenseType)
	for _, r := range p.RequiredPackages {
		sb = append(sb, "requires;="...)
		sb = append(sb, r...)
		sb = append(sb, '\n')
	}
	if p.HasDigest {
		sb = append(sb, "md5="...)
		sb = append(sb, p.Digest.String()...)
		sb = append(sb, '\n')
	}

	if err := os.WriteFile(path, sb, 0o644); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return nil
}
