package mpc

import (
	"os"
	"path/filepath"
	"strings"
)

// Manager is the entry point for every mpc run: it owns the UI and wires
// together the staging reader, repository reader, categorizer, archive
// reconciler, database writer, TDS builder and disassembler behind the
// four CLI modes.
type Manager struct {
	UI UI
}

// NewManager returns a Manager reporting through ui.
func NewManager(ui UI) *Manager {
	return &Manager{UI: ui}
}

// UpdateRepositoryOptions configures a full --update-repository run.
type UpdateRepositoryOptions struct {
	StagingRoots    []string
	RepositoryDir   string
	PackageListFile string
	DefaultLevel    Level
	Major, Minor    int
	RelState        string
	NowUnix         int64
	DefaultArchive  ArchiveFileType
	Signer          *Signer
	Prune           bool
	DigestCachePath string
	TexmfPrefix     string
}

// UpdateRepository runs the full pipeline: collect staging roots,
// load previous state, categorize, reconcile every package's archive,
// then write the four database artifacts.
func (m *Manager) UpdateRepository(opts UpdateRepositoryOptions) error {
	return WithRepositoryLock(opts.RepositoryDir, func() error {
		var cache *DigestCache
		if opts.DigestCachePath != "" {
			var err error
			cache, err = OpenDigestCache(opts.DigestCachePath)
			if err != nil {
				return err
			}
			defer cache.Close()
		}

		table, err := CollectStagingRootsCached(opts.StagingRoots, cache, m.UI)
		if err != nil {
			return err
		}

		var specs []PackageSpec
		if opts.PackageListFile != "" {
			specs, err = ReadPackageList(opts.PackageListFile, m.UI)
			if err != nil {
				return err
			}
		}
		levels := map[string]PackageSpec{}
		for _, s := range specs {
			levels[s.ID] = s
		}

		manifest, _, err := ReadRepositoryState(opts.RepositoryDir, opts.Major, opts.Minor, m.UI)
		if err != nil {
			return err
		}

		Categorize(table, m.UI)

		reconcileOpts := ReconcileOptions{
			RepoDir:            opts.RepositoryDir,
			ProgramStartTime:   opts.NowUnix,
			DefaultArchiveType: opts.DefaultArchive,
			TexmfPrefix:        opts.TexmfPrefix,
			Signer:             opts.Signer,
		}
		for _, id := range table.SortedIDs() {
			p := table[id]
			level := opts.DefaultLevel
			if spec, ok := levels[id]; ok {
				level = spec.Level
			}
			if level == LevelIgnored {
				p.Level = level
				continue
			}
			if p.IsPureContainer() {
				p.Level = level
				continue
			}
			var prevEntry *RepositoryManifestEntry
			if manifest != nil {
				prevEntry = manifest.Entries[id]
			}
			if err := ReconcilePackage(p, level, prevEntry, reconcileOpts, m.UI); err != nil {
				return err
			}
		}

		return WriteDatabase(table, manifest, WriteOptions{
			RepoDir:  opts.RepositoryDir,
			Major:    opts.Major,
			Minor:    opts.Minor,
			RelState: opts.RelState,
			Now:      opts.NowUnix,
			Signer:   opts.Signer,
			Prune:    opts.Prune,
		}, m.UI)
	})
}

// CreatePackageOptions configures a single-package --create-package run.
type CreatePackageOptions struct {
	StagingDir     string
	RepositoryDir  string
	DefaultLevel   Level
	Major, Minor   int
	RelState       string
	NowUnix        int64
	DefaultArchive ArchiveFileType
	Signer         *Signer
	TexmfPrefix    string
}

// CreatePackage refreshes exactly one package's archive and rewrites the
// database artifacts around it, reusing the rest of the repository's
// previous state unchanged.
func (m *Manager) CreatePackage(opts CreatePackageOptions) error {
	return WithRepositoryLock(opts.RepositoryDir, func() error {
		p, err := ReadStagingDirectory(opts.StagingDir, m.UI)
		if err != nil {
			return err
		}

		manifest, table, err := ReadRepositoryState(opts.RepositoryDir, opts.Major, opts.Minor, m.UI)
		if err != nil {
			return err
		}
		for id, other := range table {
			if e := manifest.Entries[id]; e != nil {
				other.Level = e.Level
				other.ArchiveType = e.Type
				other.ArchiveFileSize = e.CabSize
				other.ArchiveFileDigest, other.HasArchiveFileDigest = e.CabMD5, e.HasCabMD5
				if e.HasTimePackaged {
					other.TimePackaged = e.TimePackaged
				}
			}
		}
		table[p.ID] = p

		Categorize(table, m.UI)

		if !p.IsPureContainer() {
			var prevEntry *RepositoryManifestEntry
			if manifest != nil {
				prevEntry = manifest.Entries[p.ID]
			}
			reconcileOpts := ReconcileOptions{
				RepoDir:            opts.RepositoryDir,
				ProgramStartTime:   opts.NowUnix,
				DefaultArchiveType: opts.DefaultArchive,
				TexmfPrefix:        opts.TexmfPrefix,
				Signer:             opts.Signer,
			}
			if err := ReconcilePackage(p, opts.DefaultLevel, prevEntry, reconcileOpts, m.UI); err != nil {
				return err
			}
		} else {
			p.Level = opts.DefaultLevel
		}

		return WriteDatabase(table, manifest, WriteOptions{
			RepoDir:  opts.RepositoryDir,
			Major:    opts.Major,
			Minor:    opts.Minor,
			RelState: opts.RelState,
			Now:      opts.NowUnix,
			Signer:   opts.Signer,
		}, m.UI)
	})
}

// BuildTDSOptions configures a --build-tds run.
type BuildTDSOptions struct {
	StagingRoots []string
	TexmfParent  string
	TpmDir       string
	DefaultLevel Level
}

// RunBuildTDS collects the staging roots and materializes a TDS tree.
func (m *Manager) RunBuildTDS(opts BuildTDSOptions) error {
	table, err := CollectStagingRoots(opts.StagingRoots, m.UI)
	if err != nil {
		return err
	}
	for _, p := range table {
		if p.Level == 0 {
			p.Level = opts.DefaultLevel
		}
	}
	Categorize(table, m.UI)
	_, err = BuildTDS(table, opts.TexmfParent, opts.TpmDir, m.UI)
	return err
}

// DisassemblePackageOptions configures a --disassemble-package run.
type DisassemblePackageOptions struct {
	TpmFile     string
	TexmfParent string
	StagingDir  string
}

// RunDisassemble inverts the staging reader for one package.
func (m *Manager) RunDisassemble(opts DisassemblePackageOptions) error {
	if err := os.MkdirAll(opts.StagingDir, 0o755); err != nil {
		return &IoFailure{Path: opts.StagingDir, Err: err}
	}
	_, err := Disassemble(opts.TpmFile, opts.TexmfParent, opts.StagingDir, m.UI)
	return err
}

// ResolveStagingRoots splits a platform-path-separator-joined
// --staging-roots argument into individual entries.
func ResolveStagingRoots(arg string) []string {
	if arg == "" {
		return nil
	}
	return strings.Split(arg, string(filepath.ListSeparator))
}
