package mpc

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// WriteOptions carries the run-wide settings the database writer needs
// beyond the table and manifest it's given directly.
type WriteOptions struct {
	RepoDir      string
	Major, Minor int
	RelState     string
	Now          int64
	Signer       *Signer
	Prune        bool
}

// WriteDatabase emits the four derived artifacts for table into
// opts.RepoDir, in the fixed order the ordering guarantee requires, and
// finally the signed pr.ini.
func WriteDatabase(table PackageTable, manifest *RepositoryManifest, opts WriteOptions, ui UI) error {
	if opts.Prune {
		prune(manifest, table)
	}
	refreshManifestFromTable(manifest, table)

	tmp, err := os.MkdirTemp("", "mpc-db-*")
	if err != nil {
		return &IoFailure{Path: "", Err: err}
	}
	defer os.RemoveAll(tmp)

	if err := writeZzdb1(manifest, tmp, opts, ui); err != nil {
		return err
	}
	if err := writeZzdb2(table, tmp, opts, ui); err != nil {
		return err
	}
	if err := writeZzdb3(table, tmp, opts, ui); err != nil {
		return err
	}
	if err := writeFilesCsv(table, opts, ui); err != nil {
		return err
	}
	cleanupObsoleteFormats(opts.RepoDir, table, ui)

	// Preliminary pr.ini: placeholder lstdigest so numpkg/lastupd are on
	// disk even if the final listing-hash step fails.
	if err := writePrIni(manifest, table, opts, "0", ui); err != nil {
		return err
	}
	lstdigest, err := computeLstDigest(opts.RepoDir)
	if err != nil {
		return err
	}
	return writePrIni(manifest, table, opts, lstdigest, ui)
}

func prune(manifest *RepositoryManifest, table PackageTable) {
	for id := range manifest.Entries {
		p, ok := table[id]
		if !ok || p.Level == LevelIgnored {
			delete(manifest.Entries, id)
		}
	}
}

func refreshManifestFromTable(manifest *RepositoryManifest, table PackageTable) {
	for id, p := range table {
		if p.Level == LevelIgnored {
			delete(manifest.Entries, id)
			continue
		}
		e := manifest.Entries[id]
		if e == nil {
			e = &RepositoryManifestEntry{}
			manifest.Entries[id] = e
		}
		e.Level = p.Level
		if p.HasDigest {
			e.MD5 = p.Digest
			e.HasMD5 = true
		}
		e.TimePackaged = p.TimePackaged
		e.HasTimePackaged = true
		e.Version = p.Version
		e.TargetSystem = p.TargetSystem
		e.MinTargetSystemVersion = p.MinTargetSystemVersion
		e.CabSize = p.ArchiveFileSize
		if p.HasArchiveFileDigest {
			e.CabMD5 = p.ArchiveFileDigest
			e.HasCabMD5 = true
		}
		e.Type = p.ArchiveType
		if e.Type == "" {
			e.Type = ArchiveNone
		}
	}
}

func writeZzdb1(manifest *RepositoryManifest, tmp string, opts WriteOptions, ui UI) error {
	mpmPath := filepath.Join(tmp, RepositoryManifestName)
	if err := WriteRepositoryManifest(manifest, mpmPath); err != nil {
		return err
	}
	if opts.Signer != nil {
		body, err := os.ReadFile(mpmPath)
		if err != nil {
			return &IoFailure{Path: mpmPath, Err: err}
		}
		if err := WriteSignedFile(mpmPath, body, opts.Signer); err != nil {
			return err
		}
	}
	archiveType := ArchiveTarLzma
	if seriesBelow27(opts.Major, opts.Minor) {
		archiveType = ArchiveTarBzip2
	}
	dest := filepath.Join(opts.RepoDir, zzdb1Name(opts.Major, opts.Minor))
	return CreateArchive(tmp, RepositoryManifestName, dest, archiveType)
}

func writeZzdb2(table PackageTable, tmp string, opts WriteOptions, ui UI) error {
	for _, id := range table.SortedIDs() {
		p := table[id]
		if p.Level == LevelIgnored {
			continue
		}
		path := filepath.Join(tmp, PackageManifestPath(id))
		if err := WritePackageManifestFile(p, path, opts.Signer); err != nil {
			return err
		}
	}
	archiveType := ArchiveTarLzma
	if seriesBelow27(opts.Major, opts.Minor) {
		archiveType = ArchiveTarBzip2
	}
	dest := filepath.Join(opts.RepoDir, zzdb2Name(opts.Major, opts.Minor))
	return CreateArchive(tmp, PackageManifestDir, dest, archiveType)
}

func writeZzdb3(table PackageTable, tmp string, opts WriteOptions, ui UI) error {
	cfg, _ := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, []byte(""))
	for _, id := range table.SortedIDs() {
		p := table[id]
		if p.Level == LevelIgnored {
			continue
		}
		section, err := cfg.NewSection(id)
		if err != nil {
			return &IoFailure{Path: PackageManifestsName, Err: err}
		}
		section.NewKey("name", p.Display)
		if p.Title != "" {
			section.NewKey("title", p.Title)
		}
		for _, r := range p.RequiredPackages {
			section.NewKey("requires;", r)
		}
		if p.HasDigest {
			section.NewKey("md5", p.Digest.String())
		}
	}

	bundlePath := filepath.Join(tmp, PackageManifestsName)
	if err := cfg.SaveTo(bundlePath); err != nil {
		return &IoFailure{Path: bundlePath, Err: err}
	}
	if opts.Signer != nil {
		body, err := os.ReadFile(bundlePath)
		if err != nil {
			return &IoFailure{Path: bundlePath, Err: err}
		}
		if err := WriteSignedFile(bundlePath, body, opts.Signer); err != nil {
			return err
		}
	}

	archiveType := ArchiveTarLzma
	if seriesBelow27(opts.Major, opts.Minor) {
		archiveType = ArchiveTarBzip2
	}
	dest := filepath.Join(opts.RepoDir, zzdb3Name(opts.Major, opts.Minor))
	return CreateArchive(tmp, PackageManifestsName, dest, archiveType)
}

func writeFilesCsv(table PackageTable, opts WriteOptions, ui UI) error {
	var lines []string
	for _, id := range table.SortedIDs() {
		p := table[id]
		if p.Level == LevelIgnored {
			continue
		}
		for _, f := range p.AllFiles() {
			rel := strings.TrimPrefix(f, TexmfPrefixDefault+"/")
			lines = append(lines, rel+";"+id)
		}
	}
	sort.Strings(lines)

	csvPath := filepath.Join(opts.RepoDir, FilesCsvName)
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(csvPath, []byte(sb.String()), 0o644); err != nil {
		return &IoFailure{Path: csvPath, Err: err}
	}
	defer os.Remove(csvPath)

	return runArchiver("", "xz", "--compress", "--format=lzma", "--force", csvPath)
}

// cleanupObsoleteFormats deletes a .cab when a .tar.bz2 or .tar.lzma of
// the same package exists, and a .tar.bz2 when a .tar.lzma exists.
func cleanupObsoleteFormats(repoDir string, table PackageTable, ui UI) {
	for id := range table {
		bz2 := filepath.Join(repoDir, id+".tar.bz2")
		lzma := filepath.Join(repoDir, id+".tar.lzma")
		cab := filepath.Join(repoDir, id+".cab")

		lzmaExists, _ := isFile(lzma)
		bz2Exists, _ := isFile(bz2)

		if cabExists, _ := isFile(cab); cabExists && (bz2Exists || lzmaExists) {
			if err := os.Remove(cab); err != nil {
				ui.ReportWarning("removing obsolete %s: %v", cab, err)
			}
		}
		if bz2Exists && lzmaExists {
			if err := os.Remove(bz2); err != nil {
				ui.ReportWarning("removing obsolete %s: %v", bz2, err)
			}
		}
	}
}

func writePrIni(manifest *RepositoryManifest, table PackageTable, opts WriteOptions, lstdigest string, ui UI) error {
	manifest.Date = opts.Now
	manifest.Version = (opts.Now - Epoch2000) / 86400
	manifest.RelState = opts.RelState
	manifest.LstDigest = lstdigest

	live := 0
	type idTime struct {
		id string
		t  int64
	}
	var recent []idTime
	for id, p := range table {
		if p.Level == LevelIgnored {
			continue
		}
		live++
		recent = append(recent, idTime{id, p.TimePackaged})
	}
	manifest.NumPkg = live

	sort.Slice(recent, func(i, j int) bool {
		if recent[i].t != recent[j].t {
			return recent[i].t > recent[j].t
		}
		return recent[i].id < recent[j].id
	})
	if len(recent) > MaxLastUpd {
		recent = recent[:MaxLastUpd]
	}
	manifest.LastUpd = manifest.LastUpd[:0]
	for _, r := range recent {
		manifest.LastUpd = append(manifest.LastUpd, r.id)
	}

	cfg, _ := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, []byte(""))
	section, err := cfg.NewSection("repository")
	if err != nil {
		return &IoFailure{Path: RepositoryInfoName, Err: err}
	}
	section.NewKey("date", strconv.FormatInt(manifest.Date, 10))
	section.NewKey("version", strconv.FormatInt(manifest.Version, 10))
	section.NewKey("numpkg", strconv.Itoa(manifest.NumPkg))
	section.NewKey("relstate", manifest.RelState)
	section.NewKey("lstdigest", manifest.LstDigest)
	for _, id := range manifest.LastUpd {
		section.NewKey("lastupd;", id)
	}

	path := filepath.Join(opts.RepoDir, RepositoryInfoName)
	var buf strings.Builder
	if _, err := cfg.WriteTo(&buf); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return WriteSignedFile(path, []byte(buf.String()), opts.Signer)
}

// computeLstDigest hashes the sorted "<name>;<size>\n" listing of every
// entry currently present in repoDir.
func computeLstDigest(repoDir string) (string, error) {
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return "", &IoFailure{Path: repoDir, Err: err}
	}
	var lines []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", &IoFailure{Path: filepath.Join(repoDir, entry.Name()), Err: err}
		}
		lines = append(lines, fmt.Sprintf("%s;%d", entry.Name(), info.Size()))
	}
	sort.Strings(lines)

	h := md5.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
