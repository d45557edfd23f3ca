package mpc

import "fmt"

// The taxonomy from the error-handling design: every failure except a
// duplicate package id is fatal at the point of detection.

// ConfigurationError signals a missing required argument, an unsupported
// --miktex-series, or a missing external tool (xz) at startup.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// InvalidManifest signals a package.ini missing 'id'/'name', or an
// unparseable digest field.
type InvalidManifest struct {
	Path    string
	Message string
}

func (e *InvalidManifest) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DigestMismatch signals a failed TDS-digest verification, e.g. after
// rebuilding a TDS hierarchy from a repository.
type DigestMismatch struct {
	PackageID string
	Want      string
	Got       string
}

func (e *DigestMismatch) Error() string {
	return fmt.Sprintf("digest mismatch for %s: expected %s, got %s", e.PackageID, e.Want, e.Got)
}

// ExternalToolFailure signals a non-zero archiver exit or a spawn failure,
// with the captured combined stdout/stderr attached. CommandLine is a
// shell-escaped rendering built by commandLine at the call site, safe to
// copy-paste even when an argument contains spaces or shell metacharacters.
type ExternalToolFailure struct {
	Command     []string
	CommandLine string
	Output      string
	Err         error
}

func (e *ExternalToolFailure) Error() string {
	cmd := e.CommandLine
	if cmd == "" {
		cmd = "<empty command>"
	}
	if e.Err != nil {
		return fmt.Sprintf("command %s failed: %v\n%s", cmd, e.Err, e.Output)
	}
	return fmt.Sprintf("command %s failed\n%s", cmd, e.Output)
}

func (e *ExternalToolFailure) Unwrap() error { return e.Err }

// IoFailure wraps any filesystem operation failure (read/write/stat/utime).
type IoFailure struct {
	Path string
	Err  error
}

func (e *IoFailure) Error() string {
	return fmt.Sprintf("i/o error on %s: %v", e.Path, e.Err)
}

func (e *IoFailure) Unwrap() error { return e.Err }

// DuplicatePackage is a warning-only condition: the first staging
// directory seen for an id wins, later ones are reported and ignored.
type DuplicatePackage struct {
	ID        string
	FirstPath string
	OtherPath string
}

func (e *DuplicatePackage) Error() string {
	return fmt.Sprintf("duplicate package %s: keeping %s, ignoring %s", e.ID, e.FirstPath, e.OtherPath)
}
