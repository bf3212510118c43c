package ions

import (
	"math"
	"testing"

	"github.com/wfondrie/kojak/internal/mass"
)

var byOnly = [NumSeries]bool{SeriesB: true, SeriesY: true}

func pepMass(t *testing.T, seq string) float64 {
	t.Helper()
	m, err := mass.Pep([]byte(seq))
	if err != nil {
		t.Fatalf("mass.Pep(%q): %v", seq, err)
	}
	return m
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBuildIonsComplementarity(t *testing.T) {
	seq := "SAMPLER"
	m := pepMass(t, seq)

	ld := NewLadder(byOnly)
	ld.SetPeptide(true, []byte(seq), m)
	ld.BuildIons()

	if ld.Size() != 1 {
		t.Fatalf("expected 1 ion set, got %d", ld.Size())
	}
	set := ld.At(0)
	n := ld.IonCount()
	if n != len(seq)-1 {
		t.Fatalf("ion count %d, want %d", n, len(seq)-1)
	}

	// b(i) and y(n-1-i) together cover the whole peptide: their singly
	// charged m/z sum to the peptide mass M (which already includes the
	// water carried by the y side) plus 2 protons.
	for i := 0; i < n; i++ {
		b := set.Series[SeriesB][1][i].MZ
		y := set.Series[SeriesY][1][n-1-i].MZ
		want := m + 2*mass.Proton
		if !approx(b+y, want, 1e-6) {
			t.Errorf("b%d + y%d = %f, want %f", i+1, n-i, b+y, want)
		}
	}

	// First b ion is the first residue plus a proton
	r, _ := mass.Residue(seq[0])
	if !approx(set.Series[SeriesB][1][0].MZ, r+mass.Proton, 1e-6) {
		t.Errorf("b1 = %f, want %f", set.Series[SeriesB][1][0].MZ, r+mass.Proton)
	}

	// Doubly charged ions
	b1 := set.Series[SeriesB][1][2].MZ
	b2 := set.Series[SeriesB][2][2].MZ
	if !approx(b2, (b1+mass.Proton)/2, 1e-6) {
		t.Errorf("b3(2+) = %f, want %f", b2, (b1+mass.Proton)/2)
	}
}

func TestBuildIonsAllSeries(t *testing.T) {
	var all [NumSeries]bool
	for i := range all {
		all[i] = true
	}
	seq := "PEPTIDEK"
	m := pepMass(t, seq)
	ld := NewLadder(all)
	ld.SetPeptide(true, []byte(seq), m)
	ld.BuildIons()
	set := ld.At(0)

	for i := 0; i < ld.IonCount(); i++ {
		b := set.Series[SeriesB][1][i].MZ
		if !approx(set.Series[SeriesA][1][i].MZ, b-mass.CO, 1e-6) {
			t.Errorf("a%d mismatch", i+1)
		}
		if !approx(set.Series[SeriesC][1][i].MZ, b+mass.NH3, 1e-6) {
			t.Errorf("c%d mismatch", i+1)
		}
		y := set.Series[SeriesY][1][i].MZ
		if !approx(set.Series[SeriesX][1][i].MZ, y+mass.CO-2.01565006, 1e-6) {
			t.Errorf("x%d mismatch", i+1)
		}
		if !approx(set.Series[SeriesZ][1][i].MZ, y-mass.NH2, 1e-6) {
			t.Errorf("z%d mismatch", i+1)
		}
	}
}

func TestBuildSingletIonsOpenFlags(t *testing.T) {
	seq := "KAMPLER"
	m := pepMass(t, seq)
	ld := NewLadder(byOnly)
	ld.SetPeptide(true, []byte(seq), m)

	ld.BuildSingletIons(2)
	set := ld.At(0)
	n := ld.IonCount()

	for i := 0; i < n; i++ {
		wantOpenB := i >= 2
		if set.Series[SeriesB][1][i].Open != wantOpenB {
			t.Errorf("b%d open = %v, want %v", i+1, set.Series[SeriesB][1][i].Open, wantOpenB)
		}
		// y fragment i holds the last i+1 residues; it spans site 2
		// once it reaches position len-1-k
		wantOpenY := i >= n-2
		if set.Series[SeriesY][1][i].Open != wantOpenY {
			t.Errorf("y%d open = %v, want %v", i+1, set.Series[SeriesY][1][i].Open, wantOpenY)
		}
	}

	// Open ions carry the plain fragment m/z, the link contribution is
	// added by the scorer
	ld2 := NewLadder(byOnly)
	ld2.SetPeptide(true, []byte(seq), m)
	ld2.BuildIons()
	plain := ld2.At(0)
	for i := 0; i < n; i++ {
		if set.Series[SeriesB][1][i].MZ != plain.Series[SeriesB][1][i].MZ {
			t.Errorf("b%d m/z changed by singlet build", i+1)
		}
	}
}

func TestBuildLoopIons(t *testing.T) {
	seq := "AAKPAKPAR"
	m := pepMass(t, seq)
	const linkMass = 138.0680742
	k1, k2 := 2, 5

	ld := NewLadder(byOnly)
	ld.SetPeptide(true, []byte(seq), m)
	ld.BuildLoopIons(linkMass, k1, k2)
	set := ld.At(0)

	if !approx(set.Mass, m+linkMass, 1e-9) {
		t.Errorf("loop set mass = %f, want %f", set.Mass, m+linkMass)
	}

	ld2 := NewLadder(byOnly)
	ld2.SetPeptide(true, []byte(seq), m)
	ld2.BuildIons()
	plain := ld2.At(0)

	n := ld.IonCount()
	for i := 0; i < n; i++ {
		b := set.Series[SeriesB][1][i]
		pb := plain.Series[SeriesB][1][i]
		switch {
		case i >= k2:
			// encloses both sites: carries the linker
			if b.Open || !approx(b.MZ, pb.MZ+linkMass, 1e-6) {
				t.Errorf("b%d: want closed with linker, got %+v", i+1, b)
			}
		case i >= k1:
			// crosses one boundary only
			if !b.Open {
				t.Errorf("b%d: want open", i+1)
			}
		default:
			if b.Open || b.MZ != pb.MZ {
				t.Errorf("b%d: want plain ion", i+1)
			}
		}
	}
	for i := 0; i < n; i++ {
		y := set.Series[SeriesY][1][i]
		py := plain.Series[SeriesY][1][i]
		switch {
		case i >= n-k1:
			if y.Open || !approx(y.MZ, py.MZ+linkMass, 1e-6) {
				t.Errorf("y%d: want closed with linker, got %+v", i+1, y)
			}
		case i >= n-k2:
			if !y.Open {
				t.Errorf("y%d: want open", i+1)
			}
		default:
			if y.Open || y.MZ != py.MZ {
				t.Errorf("y%d: want plain ion", i+1)
			}
		}
	}
}

func TestModEnumeration(t *testing.T) {
	seq := "AMSMA" // two M residues
	m := pepMass(t, seq)

	ld := NewLadder(byOnly)
	ld.AddMod('M', false, 15.9949)
	ld.SetMaxModCount(2)
	ld.SetPeptide(true, []byte(seq), m)
	ld.BuildIons()
	ld.ModIonsRec(0, -1, false)

	// unmodified, M1, M3, M1+M3
	if ld.Size() != 4 {
		t.Fatalf("expected 4 ion sets, got %d", ld.Size())
	}
	masses := map[float64]bool{}
	for i := 0; i < ld.Size(); i++ {
		masses[math.Round(ld.At(i).DifMass*1e4)/1e4] = true
	}
	for _, want := range []float64{0, 15.9949, 31.9898} {
		if !masses[want] {
			t.Errorf("missing combination with difMass %f", want)
		}
	}

	// The modified set bakes the mass into fragments containing the residue
	var modded *Set
	for i := 0; i < ld.Size(); i++ {
		if ld.At(i).Mods[1] != 0 && ld.At(i).Mods[3] == 0 {
			modded = ld.At(i)
		}
	}
	if modded == nil {
		t.Fatal("no set with only first M modified")
	}
	plain := ld.At(0)
	if !approx(modded.Series[SeriesB][1][1].MZ, plain.Series[SeriesB][1][1].MZ+15.9949, 1e-6) {
		t.Errorf("b2 of modified set lacks mod mass")
	}
	if modded.Series[SeriesB][1][0].MZ != plain.Series[SeriesB][1][0].MZ {
		t.Errorf("b1 of modified set should be unchanged")
	}

	// maxMods 1 drops the double combination
	ld.SetMaxModCount(1)
	ld.BuildIons()
	ld.ModIonsRec(0, -1, false)
	if ld.Size() != 3 {
		t.Errorf("maxMods=1: expected 3 ion sets, got %d", ld.Size())
	}
}

func TestModFlagsOnLinkSite(t *testing.T) {
	seq := "AMA"
	m := pepMass(t, seq)

	ld := NewLadder(byOnly)
	ld.AddMod('M', false, 15.9949)
	ld.SetMaxModCount(2)
	ld.SetModFlags(false, false)
	ld.SetPeptide(true, []byte(seq), m)

	// Link site on the M: without diffModsOnXL no mod may sit there
	ld.BuildSingletIons(1)
	ld.ModIonsRec(0, 1, true)
	if ld.Size() != 1 {
		t.Errorf("expected only the unmodified set, got %d", ld.Size())
	}

	ld.SetModFlags(false, true)
	ld.BuildSingletIons(1)
	ld.ModIonsRec(0, 1, true)
	if ld.Size() != 2 {
		t.Errorf("diffModsOnXL: expected 2 sets, got %d", ld.Size())
	}
}

func TestMonoLinkFlags(t *testing.T) {
	seq := "AKA"
	m := pepMass(t, seq)

	ld := NewLadder(byOnly)
	ld.AddMod('A', true, 156.0786) // hydrolyzed linker mass
	ld.SetMaxModCount(2)
	ld.SetModFlags(false, false)
	ld.SetPeptide(true, []byte(seq), m)

	// Plain build: mono-link masses are allowed
	ld.BuildIons()
	ld.ModIonsRec(0, -1, false)
	if ld.Size() != 4 { // none, A0, A2, A0+A2
		t.Errorf("plain build: expected 4 sets, got %d", ld.Size())
	}

	// Cross-linked build without monoLinksOnXL: none allowed
	ld.BuildSingletIons(1)
	ld.ModIonsRec(0, 1, true)
	if ld.Size() != 1 {
		t.Errorf("singlet build: expected 1 set, got %d", ld.Size())
	}

	ld.SetModFlags(true, false)
	ld.BuildSingletIons(1)
	ld.ModIonsRec(0, 1, true)
	if ld.Size() != 4 {
		t.Errorf("monoLinksOnXL: expected 4 sets, got %d", ld.Size())
	}
}

func TestBuildAfterPriorState(t *testing.T) {
	ld := NewLadder(byOnly)
	ld.AddMod('M', false, 15.9949)
	ld.SetMaxModCount(3)

	ld.SetPeptide(true, []byte("AMSMA"), pepMass(t, "AMSMA"))
	ld.BuildIons()
	ld.ModIonsRec(0, -1, false)
	if ld.Size() != 4 {
		t.Fatalf("first build: %d sets", ld.Size())
	}

	// A fresh SetPeptide+BuildIons is independent of prior state
	ld.SetPeptide(true, []byte("SAMPLER"), pepMass(t, "SAMPLER"))
	ld.BuildIons()
	if ld.Size() != 1 {
		t.Errorf("rebuild: expected 1 set, got %d", ld.Size())
	}
}

func TestInvalidResidueZeroIons(t *testing.T) {
	ld := NewLadder(byOnly)
	ld.SetPeptide(true, []byte("AB1DE"), 500.0)
	ld.BuildIons()
	set := ld.At(0)
	for i := 0; i < ld.IonCount(); i++ {
		if set.Series[SeriesB][1][i].MZ != 0 || set.Series[SeriesY][1][i].MZ != 0 {
			t.Fatalf("malformed peptide should yield zero m/z ladders")
		}
	}
}
