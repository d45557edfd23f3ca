// Package buildinfo pins the constants that would otherwise live in a
// generated version header.
package buildinfo

// Series is the highest repository series this build knows how to write.
// --miktex-series on the command line must not exceed it.
const Series = "6.0"

// Version is the tool's own version string, printed by --version.
const Version = "mpc 6.0"
