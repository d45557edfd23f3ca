package mpc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeBuildsRequiredByEdges(t *testing.T) {
	table := PackageTable{
		"foo": {ID: "foo", RequiredPackages: []string{"bar"}},
		"bar": {ID: "bar"},
	}
	Categorize(table, NullUI)

	assert.Equal(t, []string{"foo"}, table["bar"].RequiredBy)
	assert.Empty(t, table["foo"].RequiredBy)
}

func TestCategorizeWarnsOnMissingDependency(t *testing.T) {
	var warnings []string
	ui := &recordingUI{warn: &warnings}
	table := PackageTable{
		"foo": {ID: "foo", RequiredPackages: []string{"bar"}},
	}
	Categorize(table, ui)

	assert.Contains(t, warnings, "dependency problem: bar is required by foo")
}

func TestCategorizeAttachesLatexOrphanToUmbrella(t *testing.T) {
	table := PackageTable{
		UmbrellaLatexPackages: {ID: UmbrellaLatexPackages},
		"foo":                 {ID: "foo", CTANPath: "/macros/latex/contrib/foo"},
	}
	Categorize(table, NullUI)

	assert.Contains(t, table[UmbrellaLatexPackages].RequiredPackages, "foo")
	assert.Contains(t, table["foo"].RequiredBy, UmbrellaLatexPackages)
}

func TestCategorizeAttachesType1FontOrphanToUmbrella(t *testing.T) {
	table := PackageTable{
		UmbrellaFontsType1: {ID: UmbrellaFontsType1},
		"foo": {
			ID:       "foo",
			CTANPath: "/fonts/foo",
			RunFiles: []string{"texmf/fonts/type1/foo/foo.pfb"},
		},
	}
	Categorize(table, NullUI)

	assert.Contains(t, table[UmbrellaFontsType1].RequiredPackages, "foo")
}

func TestCategorizeLeavesUnrelatedOrphanAlone(t *testing.T) {
	table := PackageTable{
		"foo": {ID: "foo", CTANPath: "/graphics/foo"},
	}
	Categorize(table, NullUI)
	assert.Empty(t, table["foo"].RequiredBy)
}

type recordingUI struct {
	warn *[]string
}

func (r *recordingUI) ReportError(format string, a ...interface{}) error { return ErrAlreadyReported }
func (r *recordingUI) ReportWarning(format string, a ...interface{}) {
	*r.warn = append(*r.warn, fmt.Sprintf(format, a...))
}
func (r *recordingUI) ReportInfo(format string, a ...interface{}) {}
