package mpc

const (
	// DefaultManifestName is the flat key=value file read by the staging
	// reader in every staging directory.
	DefaultManifestName = "package.ini"

	// FilesDirName is the subdirectory of a staging directory holding the
	// TDS-shaped file tree.
	FilesDirName = "Files"

	// DescriptionFileName is the optional long-form description file
	// alongside package.ini.
	DescriptionFileName = "Description"

	// Md5SumsFileName is the redundant, human-diffable rendering of a
	// package's FileDigestTable.
	Md5SumsFileName = "md5sums.txt"

	// TexmfPrefixDefault is the default --texmf-prefix.
	TexmfPrefixDefault = "texmf"

	// PackageManifestDir is where a built .tpm package-manifest file is
	// placed inside a package's own file tree, and inside a TDS hierarchy.
	PackageManifestDir = "texmf/tpm/packages"

	// RepositoryManifestName is the top-level mpm.ini index.
	RepositoryManifestName = "mpm.ini"

	// RepositoryInfoName is the signed repository-information file.
	RepositoryInfoName = "pr.ini"

	// PackageManifestsName is the combined per-package manifest bundle.
	PackageManifestsName = "package-manifests.ini"

	// FilesCsvName is the flat file-to-package index before compression.
	FilesCsvName = "files.csv"

	// MaxLastUpd bounds pr.ini's lastupd list.
	MaxLastUpd = 20

	// Epoch2000 is 2000-01-01 00:00:00 in the local zone mpc was built
	// against, used to compute pr.ini's day-counter "version" field.
	Epoch2000 = 946681200
)

// Level is a package's distribution-set tag.
type Level byte

const (
	LevelSmall   Level = 'S'
	LevelMedium  Level = 'M'
	LevelLarge   Level = 'L'
	LevelTotal   Level = 'T'
	LevelIgnored Level = '-'
)

// IsValid reports whether l is one of the defined levels.
func (l Level) IsValid() bool {
	switch l {
	case LevelSmall, LevelMedium, LevelLarge, LevelTotal, LevelIgnored:
		return true
	}
	return false
}

func (l Level) String() string {
	return string(rune(l))
}

// ArchiveFileType enumerates the compressed-archive formats mpc knows
// about. MSCab is read-only: mpc never writes .cab itself.
type ArchiveFileType string

const (
	ArchiveMSCab    ArchiveFileType = "MSCab"
	ArchiveTarBzip2 ArchiveFileType = "TarBzip2"
	ArchiveTarLzma  ArchiveFileType = "TarLzma"
	ArchiveTar      ArchiveFileType = "Tar"
	ArchiveZip      ArchiveFileType = "Zip"
	ArchiveNone     ArchiveFileType = "None"
)

// Ext returns the on-disk filename suffix for t, or "" for None/unknown.
func (t ArchiveFileType) Ext() string {
	switch t {
	case ArchiveMSCab:
		return ".cab"
	case ArchiveTarBzip2:
		return ".tar.bz2"
	case ArchiveTarLzma:
		return ".tar.lzma"
	case ArchiveTar:
		return ".tar"
	case ArchiveZip:
		return ".zip"
	}
	return ""
}
