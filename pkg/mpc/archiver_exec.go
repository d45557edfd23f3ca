package mpc

import (
	"bytes"
	"io"
	"os/exec"

	"github.com/alessio/shellescape"
)

// boundedOutput starts small and grows on demand, mirroring the spawned
// archiver's combined stdout+stderr capture described for the concurrency
// model: one callback-fed buffer per child process, no separate pipes.
type boundedOutput struct {
	buf bytes.Buffer
}

func newBoundedOutput() *boundedOutput {
	b := &boundedOutput{}
	b.buf.Grow(512)
	return b
}

func (b *boundedOutput) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// runArchiver runs name with args in dir (the empty string means the
// current working directory), blocking until it exits. A non-zero exit or
// spawn failure becomes an ExternalToolFailure carrying the combined
// output and a shell-escaped rendering of the attempted command line.
func runArchiver(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out := newBoundedOutput()
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err != nil {
		full := append([]string{name}, args...)
		return &ExternalToolFailure{
			Command:     full,
			CommandLine: commandLine(name, args...),
			Output:      out.buf.String(),
			Err:         err,
		}
	}
	return nil
}

// runArchiverPipe runs name with args, feeding it stdin and writing its
// stdout to stdout. Stderr is captured into the bounded buffer used by
// runArchiver so a compressor failure reports the same way an archiver one
// does.
func runArchiverPipe(stdin io.Reader, stdout io.Writer, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	errBuf := newBoundedOutput()
	cmd.Stderr = errBuf

	if err := cmd.Run(); err != nil {
		full := append([]string{name}, args...)
		return &ExternalToolFailure{Command: full, CommandLine: commandLine(name, args...), Output: errBuf.buf.String(), Err: err}
	}
	return nil
}

// commandLine renders a command for diagnostics, escaping arguments so a
// path containing spaces or shell metacharacters can be copy-pasted safely.
func commandLine(name string, args ...string) string {
	parts := append([]string{name}, args...)
	return shellescape.QuoteCommand(parts)
}
