package mpc

import "github.com/texrepo/mpc/pkg/dospath"

// Umbrella package ids that orphaned packages are auto-attached to.
const (
	UmbrellaLatexPackages = "_miktex-latex-packages"
	UmbrellaFontsType1    = "_miktex-fonts-type1"
)

// Categorize resolves required_packages into the reverse required_by
// edges, then attaches every package that ends up with no required_by
// entry to one of the two umbrella packages, when present, based on
// ctan_path and file-tree heuristics.
//
// The pass is two-phase: first collect every required_by edge to add,
// then apply them, so attaching an orphan to an umbrella (which mutates
// the umbrella's own required_packages) never changes the set this same
// call is iterating over.
func Categorize(table PackageTable, ui UI) {
	type edge struct{ from, to string }
	var edges []edge

	for _, id := range table.SortedIDs() {
		p := table[id]
		for _, reqID := range p.RequiredPackages {
			if _, ok := table[reqID]; !ok {
				ui.ReportWarning("dependency problem: %s is required by %s", reqID, p.ID)
				continue
			}
			edges = append(edges, edge{from: p.ID, to: reqID})
		}
	}
	for _, e := range edges {
		table[e.to].RequiredBy = append(table[e.to].RequiredBy, e.from)
	}

	for _, id := range table.SortedIDs() {
		p := table[id]
		if len(p.RequiredBy) != 0 {
			continue
		}
		attachOrphan(table, p)
	}
}

func attachOrphan(table PackageTable, p *PackageInfo) {
	switch {
	case hasPrefix(p.CTANPath, "/macros/latex/contrib/"):
		if umbrella, ok := table[UmbrellaLatexPackages]; ok {
			attach(umbrella, p)
		}
	case hasPrefix(p.CTANPath, "/fonts/") && hasType1OrTrueTypeRunFile(p):
		if umbrella, ok := table[UmbrellaFontsType1]; ok {
			attach(umbrella, p)
		}
	}
}

func attach(umbrella, p *PackageInfo) {
	umbrella.RequiredPackages = append(umbrella.RequiredPackages, p.ID)
	p.RequiredBy = append(p.RequiredBy, umbrella.ID)
}

func hasType1OrTrueTypeRunFile(p *PackageInfo) bool {
	for _, f := range p.RunFiles {
		if dospath.StartsWithTexmf(f, "fonts/type1") || dospath.StartsWithTexmf(f, "fonts/truetype") {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
