package mpc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/texrepo/mpc/pkg/set"
)

// ReadPackageList parses a package-list file: one entry per line, the
// level letter first, then an ';'-delimited id and optional archive-type
// token. Lines starting with '@' include another list file, resolved
// relative to the directory of the including file. Duplicate ids keep
// the first occurrence and report the rest through ui.
func ReadPackageList(path string, ui UI) ([]PackageSpec, error) {
	seen := set.String{}
	var specs []PackageSpec
	if err := readPackageListInto(path, ui, seen, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func readPackageListInto(path string, ui UI, seen set.String, specs *[]PackageSpec) error {
	f, err := os.Open(path)
	if err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "@") {
			includePath := strings.TrimSpace(line[1:])
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(filepath.Dir(path), includePath)
			}
			if err := readPackageListInto(includePath, ui, seen, specs); err != nil {
				return err
			}
			continue
		}

		spec, err := parsePackageListLine(line)
		if err != nil {
			return &InvalidManifest{Path: fmt.Sprintf("%s:%d", path, lineNo), Message: err.Error()}
		}

		if seen.Contains(spec.ID) {
			ui.ReportWarning("%s:%d: duplicate package id %q, keeping first occurrence", path, lineNo, spec.ID)
			continue
		}
		seen.Add(spec.ID)
		*specs = append(*specs, spec)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return &IoFailure{Path: path, Err: err}
	}
	return nil
}

func parsePackageListLine(line string) (PackageSpec, error) {
	level := Level(line[0])
	if !level.IsValid() {
		return PackageSpec{}, fmt.Errorf("invalid level %q", string(line[0]))
	}
	rest := strings.TrimSpace(line[1:])

	tokens := strings.Split(rest, ";")
	if len(tokens) == 0 || tokens[0] == "" {
		return PackageSpec{}, fmt.Errorf("missing package id")
	}

	spec := PackageSpec{ID: tokens[0], Level: level, ArchiveFileType: ArchiveTarLzma}
	if len(tokens) > 1 && tokens[1] != "" {
		switch tokens[1] {
		case string(ArchiveMSCab), string(ArchiveTarBzip2), string(ArchiveTarLzma):
			spec.ArchiveFileType = ArchiveFileType(tokens[1])
		default:
			return PackageSpec{}, fmt.Errorf("unknown archive type %q", tokens[1])
		}
	}
	return spec, nil
}
