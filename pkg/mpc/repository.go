package mpc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/texrepo/mpc/pkg/dospath"
)

// zzdb1Name returns the repository-manifest archive's filename for the
// given series, picking bzip2 for anything older than 2.7 and lzma
// otherwise, mirroring the database writer's own choice.
func zzdb1Name(major, minor int) string {
	return zzdbName("zzdb1", major, minor)
}

func zzdb2Name(major, minor int) string {
	return zzdbName("zzdb2", major, minor)
}

func zzdb3Name(major, minor int) string {
	return zzdbName("zzdb3", major, minor)
}

func zzdbName(tag string, major, minor int) string {
	ext := ".tar.lzma"
	if seriesBelow27(major, minor) {
		ext = ".tar.bz2"
	}
	return "miktex-" + tag + "-" + strconv.Itoa(major) + "." + strconv.Itoa(minor) + ext
}

// ReadRepositoryState loads the previous run's repository manifest and
// per-package manifest bundle from repoDir, for a given series. A
// repository directory with no prior zzdb1 archive yields an empty
// manifest and table: the first --update-repository run starts from
// nothing.
func ReadRepositoryState(repoDir string, major, minor int, ui UI) (*RepositoryManifest, PackageTable, error) {
	zzdb1Path := filepath.Join(repoDir, zzdb1Name(major, minor))
	exists, err := isFile(zzdb1Path)
	if err != nil {
		return nil, nil, &IoFailure{Path: zzdb1Path, Err: err}
	}
	if !exists {
		return NewRepositoryManifest(), PackageTable{}, nil
	}

	tmp, err := os.MkdirTemp("", "mpc-repo-state-*")
	if err != nil {
		return nil, nil, &IoFailure{Path: "", Err: err}
	}
	defer os.RemoveAll(tmp)

	if err := ExtractArchive(zzdb1Path, tmp); err != nil {
		return nil, nil, err
	}
	manifest, err := ParseRepositoryManifest(filepath.Join(tmp, RepositoryManifestName))
	if err != nil {
		return nil, nil, err
	}

	table := PackageTable{}
	zzdb2Path := filepath.Join(repoDir, zzdb2Name(major, minor))
	if exists, _ := isFile(zzdb2Path); exists {
		tmp2, err := os.MkdirTemp("", "mpc-repo-tpm-*")
		if err != nil {
			return nil, nil, &IoFailure{Path: "", Err: err}
		}
		defer os.RemoveAll(tmp2)

		if err := ExtractArchive(zzdb2Path, tmp2); err != nil {
			return nil, nil, err
		}
		tpmDir := filepath.Join(tmp2, PackageManifestDir)
		entries, err := os.ReadDir(tpmDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, nil, &IoFailure{Path: tpmDir, Err: err}
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tpm") {
				continue
			}
			p, err := ParsePackageManifestFile(filepath.Join(tpmDir, entry.Name()))
			if err != nil {
				return nil, nil, err
			}
			table[p.ID] = p
		}
	}

	return manifest, table, nil
}

// ParsePackageManifestFile parses one <id>.tpm package-manifest file,
// the same field set package.ini uses, into a PackageInfo. Unlike the
// staging reader, this never recomputes digests from disk: a .tpm file is
// read-only history, not a tree to re-walk.
func ParsePackageManifestFile(path string) (*PackageInfo, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, AllowShadows: true}, path)
	if err != nil {
		return nil, &InvalidManifest{Path: path, Message: err.Error()}
	}
	section := cfg.Section("")

	p := &PackageInfo{}
	p.ID = section.Key("id").String()
	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), ".tpm")
	}
	p.Display = section.Key("name").String()
	p.Creator = section.Key("creator").String()
	p.Title = section.Key("title").String()
	p.Version = section.Key("version").String()
	p.TargetSystem = section.Key("targetsystem").String()
	p.MinTargetSystemVersion = section.Key("min_target_system_version").String()
	p.CTANPath = section.Key("ctan_path").String()
	p.CopyrightOwner = section.Key("copyright_owner").String()
	p.CopyrightYear = section.Key("copyright_year").String()
	p.LicenseType = section.Key("license_type").String()

	if key, err := section.GetKey("requires;"); err == nil {
		for _, r := range key.ValueWithShadows() {
			if r != "" {
				p.RequiredPackages = append(p.RequiredPackages, r)
			}
		}
	}
	if key, err := section.GetKey("runfiles;"); err == nil {
		p.RunFiles = key.ValueWithShadows()
	}
	if key, err := section.GetKey("docfiles;"); err == nil {
		p.DocFiles = key.ValueWithShadows()
	}
	if key, err := section.GetKey("sourcefiles;"); err == nil {
		p.SourceFiles = key.ValueWithShadows()
	}
	if md5 := section.Key("md5").String(); md5 != "" {
		if d, err := dospath.ParseDigest(md5); err == nil {
			p.Digest = d
			p.HasDigest = true
		}
	}
	if tp := section.Key("timepackaged").String(); tp != "" {
		if v, err := strconv.ParseInt(tp, 10, 64); err == nil {
			p.TimePackaged = v
		}
	}
	return p, nil
}
