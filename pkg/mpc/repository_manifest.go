package mpc

import (
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/texrepo/mpc/pkg/dospath"
)

// RepositoryManifestEntry is one package's row in mpm.ini: everything the
// archive reconciler needs to decide reuse vs rebuild, plus everything the
// database writer needs to re-emit the section untouched when a package
// didn't change.
type RepositoryManifestEntry struct {
	Level                  Level
	MD5                    dospath.Digest
	HasMD5                 bool
	TimePackaged           int64
	HasTimePackaged        bool
	Version                string
	TargetSystem           string
	MinTargetSystemVersion string
	CabSize                int64
	CabMD5                 dospath.Digest
	HasCabMD5              bool
	Type                   ArchiveFileType
}

// RepositoryManifest is the parsed form of mpm.ini: one entry per package
// id plus the repository-wide [repository] bookkeeping section.
type RepositoryManifest struct {
	Entries map[string]*RepositoryManifestEntry

	Date      int64
	Version   int64
	LstDigest string
	NumPkg    int
	LastUpd   []string
	RelState  string
}

// NewRepositoryManifest returns an empty manifest, the state a repository
// directory with no prior mpm.ini is treated as having.
func NewRepositoryManifest() *RepositoryManifest {
	return &RepositoryManifest{Entries: map[string]*RepositoryManifestEntry{}}
}

// ParseRepositoryManifest reads an already-extracted mpm.ini from disk.
func ParseRepositoryManifest(path string) (*RepositoryManifest, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, AllowShadows: true}, path)
	if err != nil {
		return nil, &InvalidManifest{Path: path, Message: err.Error()}
	}

	m := NewRepositoryManifest()
	for _, section := range cfg.Sections() {
		name := section.Name()
		if strings.EqualFold(name, ini.DefaultSection) {
			continue
		}
		if name == "repository" {
			m.Date, _ = section.Key("date").Int64()
			m.Version, _ = section.Key("version").Int64()
			m.LstDigest = section.Key("lstdigest").String()
			m.NumPkg, _ = section.Key("numpkg").Int()
			m.RelState = section.Key("relstate").String()
			if key, err := section.GetKey("lastupd;"); err == nil {
				m.LastUpd = key.ValueWithShadows()
			}
			continue
		}

		e := &RepositoryManifestEntry{Type: ArchiveNone}
		e.Level = Level(firstByte(section.Key("Level").String(), byte(LevelTotal)))
		if md5Key, err := section.GetKey("MD5"); err == nil && md5Key.String() != "" {
			if d, err := dospath.ParseDigest(md5Key.String()); err == nil {
				e.MD5 = d
				e.HasMD5 = true
			}
		}
		if tp, err := section.Key("TimePackaged").Int64(); err == nil {
			e.TimePackaged = tp
			e.HasTimePackaged = true
		}
		e.Version = section.Key("Version").String()
		e.TargetSystem = section.Key("TargetSystem").String()
		e.MinTargetSystemVersion = section.Key("MinTargetSystemVersion").String()
		e.CabSize, _ = section.Key("CabSize").Int64()
		if cabMD5, err := section.GetKey("CabMD5"); err == nil && cabMD5.String() != "" {
			if d, err := dospath.ParseDigest(cabMD5.String()); err == nil {
				e.CabMD5 = d
				e.HasCabMD5 = true
			}
		}
		if t := section.Key("Type").String(); t != "" {
			e.Type = ArchiveFileType(t)
		}
		m.Entries[name] = e
	}
	return m, nil
}

// WriteRepositoryManifest renders m as an INI document at path, in
// case-insensitive DOS id order, matching the deterministic ordering the
// idempotence property requires of every derived artifact.
func WriteRepositoryManifest(m *RepositoryManifest, path string) error {
	cfg, _ := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, []byte(""))

	ids := make([]string, 0, len(m.Entries))
	for id := range m.Entries {
		ids = append(ids, id)
	}
	sortDosPaths(ids)

	for _, id := range ids {
		e := m.Entries[id]
		section, err := cfg.NewSection(id)
		if err != nil {
			return &IoFailure{Path: path, Err: err}
		}
		section.NewKey("Level", e.Level.String())
		if e.HasMD5 {
			section.NewKey("MD5", e.MD5.String())
		}
		if e.HasTimePackaged {
			section.NewKey("TimePackaged", strconv.FormatInt(e.TimePackaged, 10))
		}
		if e.Version != "" {
			section.NewKey("Version", e.Version)
		}
		if e.TargetSystem != "" {
			section.NewKey("TargetSystem", e.TargetSystem)
		}
		if e.MinTargetSystemVersion != "" {
			section.NewKey("MinTargetSystemVersion", e.MinTargetSystemVersion)
		}
		if e.CabSize != 0 {
			section.NewKey("CabSize", strconv.FormatInt(e.CabSize, 10))
		}
		if e.HasCabMD5 {
			section.NewKey("CabMD5", e.CabMD5.String())
		}
		section.NewKey("Type", string(e.Type))
	}

	repoSection, err := cfg.NewSection("repository")
	if err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	repoSection.NewKey("date", strconv.FormatInt(m.Date, 10))
	repoSection.NewKey("version", strconv.FormatInt(m.Version, 10))
	repoSection.NewKey("lstdigest", m.LstDigest)
	repoSection.NewKey("numpkg", strconv.Itoa(m.NumPkg))
	repoSection.NewKey("relstate", m.RelState)
	for _, id := range m.LastUpd {
		repoSection.NewKey("lastupd;", id)
	}

	if err := cfg.SaveTo(path); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return nil
}

func firstByte(s string, def byte) Level {
	if s == "" {
		return Level(def)
	}
	return Level(s[0])
}
