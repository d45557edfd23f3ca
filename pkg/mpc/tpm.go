package mpc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// PackageManifestPath returns the in-tree location of a package's .tpm
// file relative to a TDS root, e.g. "texmf/tpm/packages/foo.tpm".
func PackageManifestPath(id string) string {
	return PackageManifestDir + "/" + id + ".tpm"
}

// WritePackageManifestFile renders p as a .tpm file at path: the same
// field set as package.ini, plus the three classified file lists and the
// digest, so the reconciler and disassembler can reconstruct a
// PackageInfo from it without re-walking a file tree. A non-nil signer
// appends a detached signature comment, the same as every other INI file
// mpc writes.
func WritePackageManifestFile(p *PackageInfo, path string, signer *Signer) error {
	cfg, _ := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, []byte(""))
	section := cfg.Section("")

	section.NewKey("id", p.ID)
	section.NewKey("name", p.Display)
	if p.Title != "" {
		section.NewKey("title", p.Title)
	}
	if p.Creator != "" {
		section.NewKey("creator", p.Creator)
	}
	if p.Version != "" {
		section.NewKey("version", p.Version)
	}
	if p.TargetSystem != "" {
		section.NewKey("targetsystem", p.TargetSystem)
	}
	if p.MinTargetSystemVersion != "" {
		section.NewKey("min_target_system_version", p.MinTargetSystemVersion)
	}
	if p.CTANPath != "" {
		section.NewKey("ctan_path", p.CTANPath)
	}
	if p.CopyrightOwner != "" {
		section.NewKey("copyright_owner", p.CopyrightOwner)
	}
	if p.CopyrightYear != "" {
		section.NewKey("copyright_year", p.CopyrightYear)
	}
	if p.LicenseType != "" {
		section.NewKey("license_type", p.LicenseType)
	}
	for _, r := range p.RequiredPackages {
		section.NewKey("requires;", r)
	}
	for _, f := range p.RunFiles {
		section.NewKey("runfiles;", f)
	}
	for _, f := range p.DocFiles {
		section.NewKey("docfiles;", f)
	}
	for _, f := range p.SourceFiles {
		section.NewKey("sourcefiles;", f)
	}
	if p.HasDigest {
		section.NewKey("md5", p.Digest.String())
	}
	section.NewKey("timepackaged", strconv.FormatInt(p.TimePackaged, 10))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	var body strings.Builder
	if _, err := cfg.WriteTo(&body); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return WriteSignedFile(path, []byte(body.String()), signer)
}
