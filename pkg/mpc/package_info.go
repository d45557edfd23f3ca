package mpc

import (
	"github.com/texrepo/mpc/pkg/dospath"
)

// PackageInfo is the central entity: everything mpc knows about one
// package, whether it was read from a staging directory or from the
// existing repository manifest.
type PackageInfo struct {
	ID      string
	Display string // display_name, required
	Title   string
	Creator string
	Version string

	TargetSystem           string
	MinTargetSystemVersion string

	CTANPath       string
	CopyrightOwner string
	CopyrightYear  string
	LicenseType    string
	Description    string

	RequiredPackages []string
	RequiredBy       []string

	RunFiles    []string
	DocFiles    []string
	SourceFiles []string

	SizeRunFiles    int64
	SizeDocFiles    int64
	SizeSourceFiles int64

	// Digest is the TDS digest over every non-manifest file.
	Digest      dospath.Digest
	HasDigest   bool
	Level       Level
	ArchiveType ArchiveFileType

	ArchiveFileDigest    dospath.Digest
	HasArchiveFileDigest bool
	ArchiveFileSize      int64

	// TimePackaged is unix seconds; carried forward across runs when the
	// content digest is unchanged.
	TimePackaged int64

	// Path is the staging directory this PackageInfo was read from, if any.
	Path string
}

// AllFiles returns run, doc and source files concatenated, in that order.
func (p *PackageInfo) AllFiles() []string {
	all := make([]string, 0, len(p.RunFiles)+len(p.DocFiles)+len(p.SourceFiles))
	all = append(all, p.RunFiles...)
	all = append(all, p.DocFiles...)
	all = append(all, p.SourceFiles...)
	return all
}

// TotalSize sums the three per-list byte counts.
func (p *PackageInfo) TotalSize() int64 {
	return p.SizeRunFiles + p.SizeDocFiles + p.SizeSourceFiles
}

// IsPureContainer reports whether p has no files of its own besides (at
// most) its own package-manifest file — such packages are skipped by the
// archive reconciler entirely.
func (p *PackageInfo) IsPureContainer() bool {
	if len(p.DocFiles) != 0 || len(p.SourceFiles) != 0 {
		return false
	}
	if len(p.RunFiles) == 0 {
		return true
	}
	if len(p.RunFiles) == 1 && isOwnManifestPath(p.RunFiles[0], p.ID) {
		return true
	}
	return false
}

func isOwnManifestPath(rel string, id string) bool {
	return dospath.Compare(rel, PackageManifestDir+"/"+id+".tpm") == 0
}

// ClassifyFile decides which of the three lists rel belongs to, given its
// path relative to the staging directory's TEXMF prefix.
func ClassifyFile(rel string) (run, doc, source bool) {
	switch {
	case dospath.StartsWithTexmf(rel, "doc"):
		return false, true, false
	case dospath.StartsWithTexmf(rel, "source"):
		return false, false, true
	default:
		return true, false, false
	}
}

// PackageSpec is one entry from a package-list file (§4.3).
type PackageSpec struct {
	ID              string
	Level           Level
	ArchiveFileType ArchiveFileType
}
