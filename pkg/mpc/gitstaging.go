package mpc

import (
	"context"
	"os"
	"strings"

	"github.com/texrepo/mpc/pkg/git"
)

// gitStagingPrefix marks a --staging-roots entry as a remote git checkout
// rather than a local path: "git+https://example.com/repo.git#v1.2".
const gitStagingPrefix = "git+"

// resolveStagingRoot turns one --staging-roots entry into a local
// directory. Plain paths pass through unchanged; "git+" entries are cloned
// into a temporary directory that the caller must remove once done.
func resolveStagingRoot(root string) (path string, cleanup func(), err error) {
	if !strings.HasPrefix(root, gitStagingPrefix) {
		return root, nil, nil
	}

	spec := strings.TrimPrefix(root, gitStagingPrefix)
	url, ref, _ := strings.Cut(spec, "#")

	dir, err := os.MkdirTemp("", "mpc-staging-*")
	if err != nil {
		return "", nil, &IoFailure{Path: "", Err: err}
	}
	cleanup = func() { os.RemoveAll(dir) }

	if _, err := git.Clone(context.Background(), dir, git.CloneOptions{
		URL:          url,
		Branch:       ref,
		SingleBranch: true,
		Depth:        1,
	}); err != nil {
		cleanup()
		return "", nil, &ConfigurationError{Message: "cloning staging root " + url + ": " + err.Error()}
	}
	return dir, cleanup, nil
}
