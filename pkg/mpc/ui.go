package mpc

import "fmt"

// UI lets the core report diagnostics to whatever front-end embeds it,
// without importing fmt/log policy into the pipeline itself.
//
// ReportError always returns ErrAlreadyReported: callers propagate that
// sentinel up the call stack instead of wrapping it again, so the
// dispatcher can tell an already-printed failure apart from one that still
// needs a message.
type UI interface {
	ReportError(format string, a ...interface{}) error
	ReportWarning(format string, a ...interface{})
	ReportInfo(format string, a ...interface{})
}

type fmtUI struct{}

func (fmtUI) ReportError(format string, a ...interface{}) error {
	fmt.Printf("mpc: "+format+"\n", a...)
	return ErrAlreadyReported
}

func (fmtUI) ReportWarning(format string, a ...interface{}) {
	fmt.Printf("mpc: warning: "+format+"\n", a...)
}

func (fmtUI) ReportInfo(format string, a ...interface{}) {
	fmt.Printf("mpc: "+format+"\n", a...)
}

// FmtUI is the default UI, printing through fmt.
var FmtUI UI = fmtUI{}

type nullUI struct{}

func (nullUI) ReportError(format string, a ...interface{}) error { return ErrAlreadyReported }
func (nullUI) ReportWarning(format string, a ...interface{})     {}
func (nullUI) ReportInfo(format string, a ...interface{})        {}

// NullUI discards everything; useful in tests that assert on return values
// instead of printed text.
var NullUI UI = nullUI{}

// ErrAlreadyReported signals that a user-facing message was already
// printed through UI.ReportError and the caller should fail silently.
var ErrAlreadyReported = fmt.Errorf("mpc: command failed")

// IsErrAlreadyReported reports whether err is ErrAlreadyReported.
func IsErrAlreadyReported(err error) bool {
	return err == ErrAlreadyReported
}
