package mpc

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/ini.v1"

	"github.com/texrepo/mpc/pkg/dospath"
)

// hiddenEntry matches dotfiles and dot-directories inside a staging
// directory's Files/ tree, the same blocklist idea the teacher's registry
// loader uses for hidden files in a path registry.
var hiddenEntry = glob.MustCompile(".*")

// ReadStagingDirectory parses package.ini (plus an optional Description
// file) from the staging directory dir and walks its Files/ subtree,
// classifying every regular file into run/doc/source lists.
func ReadStagingDirectory(dir string, ui UI) (*PackageInfo, error) {
	return ReadStagingDirectoryCached(dir, nil, ui)
}

// ReadStagingDirectoryCached is ReadStagingDirectory with an optional
// DigestCache consulted for every file's MD5 instead of always hashing
// from scratch. A nil cache behaves exactly like ReadStagingDirectory.
func ReadStagingDirectoryCached(dir string, cache *DigestCache, ui UI) (*PackageInfo, error) {
	manifestPath := filepath.Join(dir, DefaultManifestName)
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, AllowShadows: true}, manifestPath)
	if err != nil {
		return nil, &InvalidManifest{Path: manifestPath, Message: err.Error()}
	}
	section := cfg.Section("")

	p := &PackageInfo{Path: dir}

	p.ID = section.Key("id").String()
	if p.ID == "" {
		// SUPPORT_LEGACY_EXTERNALNAME: accept the legacy key when 'id' is absent.
		if legacy := section.Key("externalname").String(); legacy != "" {
			p.ID = legacy
			ui.ReportWarning("%s: using legacy 'externalname' key, missing 'id'", manifestPath)
		}
	}
	if p.ID == "" {
		return nil, &InvalidManifest{Path: manifestPath, Message: "missing 'id' (or legacy 'externalname')"}
	}

	p.Display = section.Key("name").String()
	if p.Display == "" {
		return nil, &InvalidManifest{Path: manifestPath, Message: "missing 'name'"}
	}

	p.Creator = section.Key("creator").String()
	p.Title = section.Key("title").String()
	p.Version = section.Key("version").String()
	p.TargetSystem = section.Key("targetsystem").String()
	p.MinTargetSystemVersion = section.Key("min_target_system_version").String()
	p.CTANPath = section.Key("ctan_path").String()
	p.CopyrightOwner = section.Key("copyright_owner").String()
	p.CopyrightYear = section.Key("copyright_year").String()
	p.LicenseType = section.Key("license_type").String()
	if err := ValidateLicenseType(p.LicenseType); err != nil {
		ui.ReportWarning("%s: %s", manifestPath, err.Error())
	}

	// 'requires;=<id>' is MiKTeX's array-key convention: the key name itself
	// carries a trailing ';' and repeats, one value per line.
	if key, err := section.GetKey("requires;"); err == nil {
		for _, r := range key.ValueWithShadows() {
			r = strings.TrimSpace(r)
			if r != "" {
				p.RequiredPackages = append(p.RequiredPackages, r)
			}
		}
	}

	if md5Key, err := section.GetKey("md5"); err == nil && md5Key.String() != "" {
		digest, err := dospath.ParseDigest(md5Key.String())
		if err != nil {
			return nil, &InvalidManifest{Path: manifestPath, Message: "bad md5: " + err.Error()}
		}
		p.Digest = digest
		p.HasDigest = true
	}

	descPath := filepath.Join(dir, DescriptionFileName)
	if b, err := os.ReadFile(descPath); err == nil {
		p.Description = string(b)
	} else if !os.IsNotExist(err) {
		return nil, &IoFailure{Path: descPath, Err: err}
	}

	declaredDigest, hadDeclaredDigest := p.Digest, p.HasDigest

	fd, err := walkFilesTree(dir, p, cache)
	if err != nil {
		return nil, err
	}

	p.Digest = dospath.TdsDigest(fd)
	p.HasDigest = true
	if hadDeclaredDigest && declaredDigest != p.Digest {
		ui.ReportWarning("%s: declared md5 %s does not match recomputed digest %s", manifestPath, declaredDigest, p.Digest)
	}

	sortDosPaths(p.RunFiles)
	sortDosPaths(p.DocFiles)
	sortDosPaths(p.SourceFiles)

	return p, nil
}

// walkFilesTree classifies every regular file under dir/Files and returns
// the per-file digest table used to derive the package's TDS digest. When
// cache is non-nil, per-file digests are looked up there first, keyed by
// path/mtime/size.
func walkFilesTree(stagingDir string, p *PackageInfo, cache *DigestCache) (dospath.FileDigests, error) {
	fd := dospath.FileDigests{}

	filesRoot := filepath.Join(stagingDir, FilesDirName)
	info, err := os.Stat(filesRoot)
	if os.IsNotExist(err) {
		return fd, nil
	} else if err != nil {
		return nil, &IoFailure{Path: filesRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &InvalidManifest{Path: filesRoot, Message: "'Files' is not a directory"}
	}

	walkErr := filepath.Walk(filesRoot, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return &IoFailure{Path: path, Err: err}
		}
		name := fi.Name()
		if hiddenEntry.Match(name) && name != "." {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(filesRoot, path)
		if err != nil {
			return &IoFailure{Path: path, Err: err}
		}
		rel = filepath.ToSlash(rel)

		if isOwnManifestPath(rel, p.ID) {
			return nil
		}

		var digest dospath.Digest
		if cache != nil {
			digest, err = cache.FileDigestCached(path, fi.ModTime(), fi.Size())
		} else {
			digest, err = dospath.FileDigest(path)
		}
		if err != nil {
			return &IoFailure{Path: path, Err: err}
		}
		fd[rel] = digest

		run, doc, source := ClassifyFile(rel)
		switch {
		case doc:
			p.DocFiles = append(p.DocFiles, rel)
			p.SizeDocFiles += fi.Size()
		case source:
			p.SourceFiles = append(p.SourceFiles, rel)
			p.SizeSourceFiles += fi.Size()
		case run:
			p.RunFiles = append(p.RunFiles, rel)
			p.SizeRunFiles += fi.Size()
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return fd, nil
}

// ReadMd5Sums parses the companion md5sums.txt in a staging directory, if
// present. It is informational only: package.ini's MD5 key is always
// authoritative over it.
func ReadMd5Sums(dir string) (dospath.FileDigests, error) {
	path := filepath.Join(dir, Md5SumsFileName)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, &IoFailure{Path: path, Err: err}
	}

	result := dospath.FileDigests{}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		digest, err := dospath.ParseDigest(fields[0])
		if err != nil {
			continue
		}
		result[fields[1]] = digest
	}
	return result, nil
}

// WriteMd5Sums writes the md5sums.txt companion file for fd, sorted by
// DOS path order like every other list mpc writes.
func WriteMd5Sums(dir string, fd dospath.FileDigests) error {
	paths := make([]string, 0, len(fd))
	for p := range fd {
		paths = append(paths, p)
	}
	sortDosPaths(paths)

	var sb strings.Builder
	for _, p := range paths {
		d := fd[p]
		sb.WriteString(d.String())
		sb.WriteByte(' ')
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	path := filepath.Join(dir, Md5SumsFileName)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return nil
}

func sortDosPaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool { return dospath.Less(paths[i], paths[j]) })
}
