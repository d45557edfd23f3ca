package dospath

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"texmf/tex/x.sty":  "texmf\\tex\\x.sty",
		"TeXmf/Doc/X.PDF":  "texmf\\doc\\x.pdf",
		"a/b/résumé.sty":   "a\\b\\résumé.sty",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompareIsCaseInsensitive(t *testing.T) {
	if Compare("texmf/tex/Foo.sty", "texmf/tex/foo.sty") != 0 {
		t.Errorf("expected case-insensitive equality")
	}
	if !Less("texmf/tex/a.sty", "texmf/tex/b.sty") {
		t.Errorf("expected a < b")
	}
}

func TestStartsWithTexmf(t *testing.T) {
	if !StartsWithTexmf("texmf/doc/foo/foo.pdf", "doc") {
		t.Errorf("expected doc match")
	}
	if !StartsWithTexmf("TEXMF/DOC/foo/foo.pdf", "doc") {
		t.Errorf("expected case-insensitive doc match")
	}
	if StartsWithTexmf("texmf/source/foo/foo.dtx", "doc") {
		t.Errorf("source should not match doc")
	}
	if StartsWithTexmf("texmf/tex/latex/foo/foo.sty", "doc") {
		t.Errorf("run files should not match doc")
	}
}
