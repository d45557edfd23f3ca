package commands

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/texrepo/mpc/internal/buildinfo"
	"github.com/texrepo/mpc/pkg/mpc"
)

// CobraCommand and CobraErrorCommand mirror cobra's own Run signature,
// letting a Run wrapper intercept every subcommand's error return the
// same way regardless of which mode ran.
type CobraCommand func(cmd *cobra.Command, args []string)
type CobraErrorCommand func(cmd *cobra.Command, args []string) error
type Run func(CobraErrorCommand) CobraCommand

// exitError carries a process exit code through cobra's error return
// without printing anything itself: the diagnostic was already reported
// through the UI before the error reached this point.
type exitError struct {
	code int
}

func (e *exitError) Error() string  { return fmt.Sprintf("mpc: exit %d", e.code) }
func (e *exitError) ExitCode() int  { return e.code }
func (e *exitError) Silent() bool   { return true }
func newExitError(code int) *exitError { return &exitError{code: code} }

// WithSilent is implemented by errors that already printed their own
// diagnostic and must not be printed a second time by the caller.
type WithSilent interface {
	Silent() bool
}

// DefaultRunWrapper turns an ErrAlreadyReported or WithSilent return into a
// silent exit(1); any other error is printed to stderr, prefixed "mpc: ",
// before exiting with status 1.
func DefaultRunWrapper(f CobraErrorCommand) CobraCommand {
	return func(cmd *cobra.Command, args []string) {
		err := f(cmd, args)
		if err == nil {
			return
		}
		if s, ok := err.(WithSilent); mpc.IsErrAlreadyReported(err) || (ok && s.Silent()) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "mpc: "+err.Error())
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		os.Exit(1)
	}
}

type mpcHandler struct {
	ui mpc.UI
}

// Mpc builds the root mpc command: four mutually exclusive mode flags
// implemented as flags on a single command, matching the
// flat, mode-selecting CLI the original tool exposes rather than a
// cobra subcommand tree.
func Mpc(run Run, ui mpc.UI) *cobra.Command {
	if ui == nil {
		ui = mpc.FmtUI
	}
	h := &mpcHandler{ui: ui}

	cmd := &cobra.Command{
		Use:     "mpc",
		Short:   "Build and maintain a MiKTeX package repository",
		Version: buildinfo.Version,
		Args:    cobra.NoArgs,
		Run:     run(h.runMode),
	}

	flags := cmd.Flags()
	flags.Bool("build-tds", false, "TDS assembly mode")
	flags.Bool("create-package", false, "single-package refresh mode")
	flags.Bool("disassemble-package", false, "inverse operation: TDS tree + .tpm -> staging directory")
	flags.Bool("update-repository", false, "full repository rebuild")
	flags.Bool("verbose", false, "report informational progress")

	flags.String("staging-roots", "", "staging directories, joined by the platform path separator, optionally git+URL#ref")
	flags.String("repository", "", "repository directory")
	flags.String("staging-dir", "", "single staging directory (defaults to the current directory)")
	flags.String("texmf-parent", "", "parent directory to materialize a TDS tree into, or read one from")
	flags.String("tpm-dir", "", "optional directory to also receive a copy of every .tpm written")
	flags.String("tpm-file", "", "package manifest file to disassemble")

	flags.String("default-level", "T", "default distribution level (S|M|L|T|-) for packages absent from --package-list")
	flags.String("miktex-series", buildinfo.Series, "target MiKTeX series MAJOR.MINOR, must not exceed the build constant")
	flags.String("package-list", "", "file assigning a level and archive type per package id")
	flags.String("passphrase-file", "", "file holding the private signing key's passphrase")
	flags.String("private-key-file", "", "ASCII-armored private key used to sign pr.ini and package-manifests.ini")
	flags.String("release-state", "stable", "pr.ini relstate (stable|next)")
	flags.String("texmf-prefix", mpc.TexmfPrefixDefault, "TDS root prefix")
	flags.Int64("time-packaged", 0, "unix seconds recorded as time_packaged for freshly built archives (defaults to now)")
	flags.Bool("prune", false, "remove manifest entries for packages no longer present in any staging root")
	flags.String("digest-cache", "", "optional sqlite file memoizing staging-file digests across runs")

	return cmd
}

func (h *mpcHandler) runMode(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	verbose, _ := flags.GetBool("verbose")
	ui := h.ui
	if !verbose {
		ui = quietUI{UI: h.ui}
	}

	modes := map[string]bool{
		"build-tds":           mustBool(flags, "build-tds"),
		"create-package":      mustBool(flags, "create-package"),
		"disassemble-package": mustBool(flags, "disassemble-package"),
		"update-repository":   mustBool(flags, "update-repository"),
	}
	selected := 0
	var mode string
	for name, set := range modes {
		if set {
			selected++
			mode = name
		}
	}
	if selected != 1 {
		return ui.ReportError("exactly one of --build-tds, --create-package, --disassemble-package, --update-repository is required")
	}

	major, minor, err := mpc.ParseSeries(mustString(flags, "miktex-series"))
	if err != nil {
		return ui.ReportError("%s", err.Error())
	}

	level := mpc.Level(mustString(flags, "default-level")[0])
	if !level.IsValid() {
		return ui.ReportError("invalid --default-level %q", mustString(flags, "default-level"))
	}

	now := mustInt64(flags, "time-packaged")
	if now == 0 {
		now = time.Now().Unix()
	}

	relState := mustString(flags, "release-state")
	if relState != "stable" && relState != "next" {
		return ui.ReportError("invalid --release-state %q", relState)
	}

	if err := requireExternalTool("xz"); err != nil {
		return ui.ReportError("%s", err.Error())
	}

	signer, err := mpc.NewSigner(&mpc.FilePrivateKeyProvider{
		KeyFile:        mustString(flags, "private-key-file"),
		PassphraseFile: mustString(flags, "passphrase-file"),
	})
	if err != nil {
		return ui.ReportError("%s", err.Error())
	}

	mgr := mpc.NewManager(ui)

	switch mode {
	case "update-repository":
		repo := mustString(flags, "repository")
		roots := mpc.ResolveStagingRoots(mustString(flags, "staging-roots"))
		if repo == "" || len(roots) == 0 {
			return ui.ReportError("--update-repository requires --staging-roots and --repository")
		}
		return wrapResult(ui, mgr.UpdateRepository(mpc.UpdateRepositoryOptions{
			StagingRoots:    roots,
			RepositoryDir:   repo,
			PackageListFile: mustString(flags, "package-list"),
			DefaultLevel:    level,
			Major:           major,
			Minor:           minor,
			RelState:        relState,
			NowUnix:         now,
			DefaultArchive:  mpc.ArchiveTarLzma,
			Signer:          signer,
			Prune:           mustBool(flags, "prune"),
			DigestCachePath: mustString(flags, "digest-cache"),
			TexmfPrefix:     mustString(flags, "texmf-prefix"),
		}))

	case "create-package":
		repo := mustString(flags, "repository")
		stagingDir := mustString(flags, "staging-dir")
		if repo == "" {
			return ui.ReportError("--create-package requires --repository")
		}
		if stagingDir == "" {
			stagingDir, _ = os.Getwd()
		}
		return wrapResult(ui, mgr.CreatePackage(mpc.CreatePackageOptions{
			StagingDir:     stagingDir,
			RepositoryDir:  repo,
			DefaultLevel:   level,
			Major:          major,
			Minor:          minor,
			RelState:       relState,
			NowUnix:        now,
			DefaultArchive: mpc.ArchiveTarLzma,
			Signer:         signer,
			TexmfPrefix:    mustString(flags, "texmf-prefix"),
		}))

	case "build-tds":
		roots := mpc.ResolveStagingRoots(mustString(flags, "staging-roots"))
		texmfParent := mustString(flags, "texmf-parent")
		if len(roots) == 0 || texmfParent == "" {
			return ui.ReportError("--build-tds requires --staging-roots and --texmf-parent")
		}
		return wrapResult(ui, mgr.RunBuildTDS(mpc.BuildTDSOptions{
			StagingRoots: roots,
			TexmfParent:  texmfParent,
			TpmDir:       mustString(flags, "tpm-dir"),
			DefaultLevel: level,
		}))

	case "disassemble-package":
		tpmFile := mustString(flags, "tpm-file")
		texmfParent := mustString(flags, "texmf-parent")
		stagingDir := mustString(flags, "staging-dir")
		if tpmFile == "" || texmfParent == "" || stagingDir == "" {
			return ui.ReportError("--disassemble-package requires --tpm-file, --texmf-parent and --staging-dir")
		}
		return wrapResult(ui, mgr.RunDisassemble(mpc.DisassemblePackageOptions{
			TpmFile:     tpmFile,
			TexmfParent: texmfParent,
			StagingDir:  stagingDir,
		}))
	}

	return newExitError(1)
}

// wrapResult converts a pipeline error that hasn't already gone through
// UI.ReportError into one that has, so every exit path prints exactly
// one diagnostic line.
func wrapResult(ui mpc.UI, err error) error {
	if err == nil {
		return nil
	}
	if mpc.IsErrAlreadyReported(err) {
		return err
	}
	return ui.ReportError("%s", err.Error())
}

type quietUI struct {
	mpc.UI
}

func (q quietUI) ReportInfo(format string, a ...interface{}) {}

func mustBool(flags *pflag.FlagSet, name string) bool {
	v, _ := flags.GetBool(name)
	return v
}

func mustString(flags *pflag.FlagSet, name string) string {
	v, _ := flags.GetString(name)
	return strings.TrimSpace(v)
}

func mustInt64(flags *pflag.FlagSet, name string) int64 {
	v, _ := flags.GetInt64(name)
	return v
}

func requireExternalTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return &mpc.ConfigurationError{Message: name + " not found on PATH"}
	}
	return nil
}
