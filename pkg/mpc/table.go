package mpc

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/texrepo/mpc/pkg/dospath"
)

// PackageTable is the id -> PackageInfo map that every later pipeline stage
// operates on.
type PackageTable map[string]*PackageInfo

// SortedIDs returns the table's keys in case-insensitive DOS order, the
// order every derived artifact (files.csv, zzdb archives) is written in.
func (t PackageTable) SortedIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return dospath.Less(ids[i], ids[j]) })
	return ids
}

// CollectStagingRoots looks at the immediate subdirectories of each of
// roots for staging directories (a subdirectory directly containing a
// package.ini; deeper levels are not searched) and merges them into
// one PackageTable. The first staging directory seen for a given id wins;
// later ones are reported through ui as DuplicatePackage and otherwise
// ignored, matching the package-list reader's duplicate policy.
func CollectStagingRoots(roots []string, ui UI) (PackageTable, error) {
	return CollectStagingRootsCached(roots, nil, ui)
}

// CollectStagingRootsCached is CollectStagingRoots with an optional
// DigestCache threaded through every staging directory read.
func CollectStagingRootsCached(roots []string, cache *DigestCache, ui UI) (PackageTable, error) {
	table := PackageTable{}
	for _, root := range roots {
		resolved, cleanup, err := resolveStagingRoot(root)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		if err := collectStagingRoot(resolved, table, cache, ui); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func collectStagingRoot(root string, table PackageTable, cache *DigestCache, ui UI) error {
	isDir, err := isDirectory(root)
	if err != nil {
		return &IoFailure{Path: root, Err: err}
	}
	if !isDir {
		return &ConfigurationError{Message: "staging root is not a directory: " + root}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return &IoFailure{Path: root, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		hasManifest, err := isFile(filepath.Join(dir, DefaultManifestName))
		if err != nil {
			return &IoFailure{Path: dir, Err: err}
		}
		if !hasManifest {
			continue
		}

		p, err := ReadStagingDirectoryCached(dir, cache, ui)
		if err != nil {
			return err
		}

		if existing, ok := table[p.ID]; ok {
			ui.ReportWarning("%v", &DuplicatePackage{ID: p.ID, FirstPath: existing.Path, OtherPath: p.Path})
			continue
		}
		table[p.ID] = p
	}
	return nil
}
