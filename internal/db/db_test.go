package db

import (
	"strings"
	"testing"

	"github.com/wfondrie/kojak/internal/linker"
)

var dssTable = linker.NewTable([]linker.CrossLinker{
	{Name: "DSS", Mass: 138.0680742, SiteA: "K", SiteB: "K"},
})

func digestConfig() DigestConfig {
	return DigestConfig{MissedCleavages: 1, MinLen: 5, MaxLen: 50, MinMass: 200, MaxMass: 1e9}
}

func pepSeqs(d *DB, linkable bool) []string {
	var out []string
	for _, p := range d.GetPeptideList(linkable) {
		p := p
		out = append(out, string(d.GetPeptideSeq(&p)))
	}
	return out
}

func TestDigestTryptic(t *testing.T) {
	d := New([]Protein{
		{Name: "prot1", Sequence: []byte("KAMPLER")},
		{Name: "prot2", Sequence: []byte("SAMPLEK")},
	})
	d.Digest(digestConfig(), dssTable)

	linkable := pepSeqs(d, true)
	plain := pepSeqs(d, false)

	// KAMPLER keeps its internal K via a missed cleavage; SAMPLEK ends
	// on its only K and is linkable through it
	for _, want := range []string{"KAMPLER", "SAMPLEK"} {
		found := false
		for _, s := range linkable {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("linkable list misses %q (have %v)", want, linkable)
		}
	}
	for _, want := range []string{"AMPLER"} {
		found := false
		for _, s := range plain {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("plain list misses %q (have %v)", want, plain)
		}
	}

	// Mass sorted ascending
	for _, linkableFlag := range []bool{false, true} {
		list := d.GetPeptideList(linkableFlag)
		for i := 1; i < len(list); i++ {
			if list[i].Mass < list[i-1].Mass {
				t.Errorf("peptide list not mass sorted")
			}
		}
	}
}

func TestDigestNoCutBeforeProline(t *testing.T) {
	d := New([]Protein{{Name: "p", Sequence: []byte("AAKPAKPAR")}})
	d.Digest(digestConfig(), dssTable)
	seqs := append(pepSeqs(d, true), pepSeqs(d, false)...)
	if len(seqs) != 1 || seqs[0] != "AAKPAKPAR" {
		t.Errorf("K before P must not cleave, got %v", seqs)
	}
	p := d.GetPeptideList(true)[0]
	if !p.NTerm || !p.CTerm {
		t.Errorf("whole-protein peptide should carry both terminus flags")
	}
}

func TestDigestMergesOccurrences(t *testing.T) {
	d := New([]Protein{
		{Name: "p1", Sequence: []byte("SAMPLEK")},
		{Name: "p2", Sequence: []byte("SAMPLEK"), Decoy: true},
	})
	d.Digest(digestConfig(), dssTable)
	list := d.GetPeptideList(true)
	if len(list) != 1 {
		t.Fatalf("expected one merged peptide, got %d", len(list))
	}
	if len(list[0].Map) != 2 {
		t.Errorf("expected 2 occurrences, got %d", len(list[0].Map))
	}
}

func TestSiteEligibleTermini(t *testing.T) {
	nterm := linker.NewTable([]linker.CrossLinker{
		{Name: "DSS", Mass: 138.0680742, SiteA: "nK", SiteB: "nK"},
	})

	// A residue without a direct motif is eligible at the protein
	// N-terminus through the 'n' promotion
	if !SiteEligible(nterm, 'A', 0, 7, true, false) {
		t.Errorf("n-terminal promotion should apply")
	}
	if SiteEligible(nterm, 'A', 0, 7, false, false) {
		t.Errorf("no promotion away from the protein start")
	}
	if SiteEligible(nterm, 'A', 3, 7, true, false) {
		t.Errorf("promotion only applies at position 0")
	}
	// A direct motif works anywhere, including the last residue
	if !SiteEligible(nterm, 'K', 6, 7, false, false) {
		t.Errorf("direct motif at the C-terminal residue should be eligible")
	}
}

func TestLoadFASTA(t *testing.T) {
	in := `>sp|P1|PROT1 test protein
KAMPL
ER
>decoy_P1
SAMPLEK
`
	prots, err := LoadFASTA(strings.NewReader(in), "decoy_")
	if err != nil {
		t.Fatalf("LoadFASTA: %v", err)
	}
	if len(prots) != 2 {
		t.Fatalf("expected 2 proteins, got %d", len(prots))
	}
	if string(prots[0].Sequence) != "KAMPLER" || prots[0].Decoy {
		t.Errorf("first protein wrong: %+v", prots[0])
	}
	if !prots[1].Decoy {
		t.Errorf("decoy tag not recognized")
	}
}
