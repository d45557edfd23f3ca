package mpc

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/texrepo/mpc/internal/buildinfo"
)

// ParseSeries validates a --miktex-series MAJOR.MINOR argument against the
// build's own series, rejecting anything newer than this binary knows how
// to write zzdb archives for.
func ParseSeries(s string) (major, minor int, err error) {
	requested, err := semver.NewVersion(s + ".0")
	if err != nil {
		return 0, 0, &ConfigurationError{Message: fmt.Sprintf("invalid --miktex-series %q: %v", s, err)}
	}
	build, err := semver.NewVersion(buildinfo.Series + ".0")
	if err != nil {
		return 0, 0, &ConfigurationError{Message: "invalid built-in series constant: " + err.Error()}
	}
	if requested.GreaterThan(build) {
		return 0, 0, &ConfigurationError{Message: fmt.Sprintf("--miktex-series %s exceeds this build's series %s", s, buildinfo.Series)}
	}
	return int(requested.Major()), int(requested.Minor()), nil
}

// seriesBelow27 reports whether major.minor predates 2.7, the cutover the
// database writer uses to pick bzip2 over lzma for zzdb1/zzdb2.
func seriesBelow27(major, minor int) bool {
	if major != 2 {
		return major < 2
	}
	return minor < 7
}
