// Package ions builds theoretical fragment ion ladders for peptides.
//
// A Ladder is a reusable scratchpad: set a peptide, build one of the
// three ladder shapes (plain, singlet with one open link site, or
// loop-link joining two sites), then enumerate variable modification
// combinations. Every combination yields one Set holding m/z ladders
// for the a/b/c/x/y/z series at fragment charges 1..MaxFragCharge.
package ions

import "github.com/wfondrie/kojak/internal/mass"

// Fragment ion series indices
const (
	SeriesA = iota
	SeriesB
	SeriesC
	SeriesX
	SeriesY
	SeriesZ
	NumSeries
)

// MaxFragCharge is the highest fragment charge state for which ladders
// are built. Scoring considers charges 1..precursorCharge-1 capped here.
const MaxFragCharge = 5

// Ion is one theoretical fragment. Open marks fragments that span an
// unresolved link site: their m/z lacks the linker-plus-partner
// contribution, which the scorer adds as offset/charge.
type Ion struct {
	MZ   float64
	Open bool
}

// Mod is a variable modification on a residue symbol. XLOnly mods are
// mono-link masses: on builds with an active link site they are placed
// only when monoLinksOnXL is set, and never on the link site itself.
// The residue they sit on is the one they are registered for; its
// cross-linkability is not checked here.
type Mod struct {
	Mass   float64
	XLOnly bool
}

// Set is the full ion ladder of one peptide under one variable
// modification combination.
type Set struct {
	// Series[s][c] is the ladder for series s at fragment charge c
	// (rows 1..MaxFragCharge; row 0 and disabled series are nil).
	Series [NumSeries][MaxFragCharge + 1][]Ion
	// DifMass is the summed mass of the chosen variable modifications.
	DifMass float64
	// Mods holds the variable modification mass per residue position.
	Mods []float64
	// Mass is the precursor mass of the modified peptide, including
	// the linker mass for loop-link shapes.
	Mass float64
}

type ladderShape int

const (
	shapePlain ladderShape = iota
	shapeSinglet
	shapeLoop
)

// Ladder is the per-worker scratchpad that generates ion Sets.
type Ladder struct {
	seq      []byte
	length   int
	baseMass float64
	valid    bool
	primary  bool

	fixed   [128]float64
	varMods [128][]Mod
	maxMods int

	monoLinksOnXL bool
	diffModsOnXL  bool
	enabled       [NumSeries]bool

	shape    ladderShape
	k1, k2   int
	linkMass float64

	sets []*Set
}

// NewLadder returns a Ladder with the given ion series enabled.
func NewLadder(enabled [NumSeries]bool) *Ladder {
	return &Ladder{enabled: enabled, maxMods: 0, k1: -1, k2: -1}
}

// AddFixedMod registers a fixed modification on a residue symbol.
func (l *Ladder) AddFixedMod(aa byte, m float64) { l.fixed[aa] += m }

// AddMod registers a variable modification on a residue symbol.
func (l *Ladder) AddMod(aa byte, xlOnly bool, m float64) {
	l.varMods[aa] = append(l.varMods[aa], Mod{Mass: m, XLOnly: xlOnly})
}

// SetMaxModCount caps the number of variable modifications per peptide.
func (l *Ladder) SetMaxModCount(n int) { l.maxMods = n }

// SetModFlags controls modification placement on link sites:
// monoLinksOnXL allows mono-link masses on a cross-linked peptide,
// diffModsOnXL allows variable mods on the linked residue itself.
func (l *Ladder) SetModFlags(monoLinksOnXL, diffModsOnXL bool) {
	l.monoLinksOnXL = monoLinksOnXL
	l.diffModsOnXL = diffModsOnXL
}

// SetPeptide assigns the working peptide and clears previous ion sets.
// The sequence slice is borrowed, not copied.
func (l *Ladder) SetPeptide(primary bool, seq []byte, baseMass float64) {
	l.primary = primary
	l.seq = seq
	l.length = len(seq)
	l.baseMass = baseMass
	l.valid = true
	for _, aa := range seq {
		if _, ok := mass.Residue(aa); !ok {
			// Non-canonical residue: ladders become all-zero m/z,
			// which cannot match real peaks.
			l.valid = false
			break
		}
	}
	l.Reset()
}

// Reset discards all generated ion sets.
func (l *Ladder) Reset() {
	l.sets = l.sets[:0]
	l.shape = shapePlain
	l.k1, l.k2 = -1, -1
	l.linkMass = 0
}

// Size returns the number of generated ion sets.
func (l *Ladder) Size() int { return len(l.sets) }

// At returns the i-th ion set.
func (l *Ladder) At(i int) *Set { return l.sets[i] }

// IonCount returns the number of fragment positions (peptide length - 1).
func (l *Ladder) IonCount() int { return l.length - 1 }

// PeptideLen returns the working peptide length.
func (l *Ladder) PeptideLen() int { return l.length }

// BuildIons generates the unmodified ladder of the plain peptide.
func (l *Ladder) BuildIons() {
	l.Reset()
	l.shape = shapePlain
	l.appendSet(nil, 0)
}

// BuildSingletIons generates the unmodified ladder with an open link
// site at position k.
func (l *Ladder) BuildSingletIons(k int) {
	l.Reset()
	l.shape = shapeSinglet
	l.k1 = k
	l.appendSet(nil, 0)
}

// BuildLoopIons generates the unmodified ladder for a loop-link of the
// given mass joining positions k1 < k2.
func (l *Ladder) BuildLoopIons(linkMass float64, k1, k2 int) {
	l.Reset()
	l.shape = shapeLoop
	l.k1, l.k2 = k1, k2
	l.linkMass = linkMass
	l.appendSet(nil, 0)
}

// ModIonsRec appends one ion set per variable-modification combination
// for plain (k = -1) or singlet ladders. onXL marks builds with an
// active link site, which restricts placement per the mod flags.
func (l *Ladder) ModIonsRec(pos, k int, onXL bool) {
	perPos := make([]float64, l.length)
	l.modRec(pos, k, -1, 0, onXL, perPos, 0)
}

// ModLoopIonsRec is ModIonsRec for loop-link ladders with two sites.
func (l *Ladder) ModLoopIonsRec(pos, k, k2 int, onXL bool) {
	perPos := make([]float64, l.length)
	l.modRec(pos, k, k2, 0, onXL, perPos, 0)
}

func (l *Ladder) modRec(pos, k1, k2, depth int, onXL bool, perPos []float64, dif float64) {
	if depth >= l.maxMods {
		return
	}
	for i := pos; i < l.length; i++ {
		if perPos[i] != 0 {
			continue
		}
		for _, m := range l.varMods[l.seq[i]] {
			if !l.modAllowed(i, k1, k2, onXL, m) {
				continue
			}
			perPos[i] = m.Mass
			l.appendSet(perPos, dif+m.Mass)
			l.modRec(i+1, k1, k2, depth+1, onXL, perPos, dif+m.Mass)
			perPos[i] = 0
		}
	}
}

func (l *Ladder) modAllowed(i, k1, k2 int, onXL bool, m Mod) bool {
	if m.XLOnly {
		if onXL {
			if !l.monoLinksOnXL {
				return false
			}
			if i == k1 || i == k2 {
				return false
			}
		}
		return true
	}
	if (i == k1 || i == k2) && !l.diffModsOnXL {
		return false
	}
	return true
}

// appendSet computes the ladders for the current shape under the given
// per-position modification masses and appends the resulting Set.
func (l *Ladder) appendSet(perPos []float64, difMass float64) {
	set := &Set{
		DifMass: difMass,
		Mass:    l.baseMass + difMass,
		Mods:    make([]float64, l.length),
	}
	if l.shape == shapeLoop {
		set.Mass += l.linkMass
	}
	copy(set.Mods, perPos)

	n := l.length - 1
	if n < 1 {
		l.sets = append(l.sets, set)
		return
	}

	// Residue masses with fixed and chosen variable mods applied
	res := make([]float64, l.length)
	total := 0.0
	for i := 0; i < l.length; i++ {
		rm, _ := mass.Residue(l.seq[i])
		if !l.valid {
			rm = 0
		}
		rm += l.fixed[l.seq[i]] + set.Mods[i]
		res[i] = rm
		total += rm
	}
	prefix := make([]float64, l.length)
	sum := 0.0
	for i := 0; i < l.length; i++ {
		sum += res[i]
		prefix[i] = sum
	}

	for s := 0; s < NumSeries; s++ {
		if !l.enabled[s] {
			continue
		}
		for c := 1; c <= MaxFragCharge; c++ {
			row := make([]Ion, n)
			for i := 0; i < n; i++ {
				row[i] = l.fragment(s, i, c, prefix, total)
			}
			set.Series[s][c] = row
		}
	}
	l.sets = append(l.sets, set)
}

// fragment computes the i-th ion of a series at the given charge.
func (l *Ladder) fragment(series, i, charge int, prefix []float64, total float64) Ion {
	if !l.valid {
		return Ion{}
	}
	var neutral float64
	var open bool
	var link float64

	switch series {
	case SeriesA, SeriesB, SeriesC:
		// N-terminal fragment holds residues 0..i
		neutral = prefix[i]
		switch l.shape {
		case shapeSinglet:
			open = i >= l.k1
		case shapeLoop:
			switch {
			case i >= l.k2:
				link = l.linkMass
			case i >= l.k1:
				open = true
			}
		}
		switch series {
		case SeriesA:
			neutral -= mass.CO
		case SeriesC:
			neutral += mass.NH3
		}
	default:
		// C-terminal fragment holds residues length-1-i..length-1
		neutral = total - prefix[l.length-2-i]
		switch l.shape {
		case shapeSinglet:
			open = i >= l.length-1-l.k1
		case shapeLoop:
			switch {
			case i >= l.length-1-l.k1:
				link = l.linkMass
			case i >= l.length-1-l.k2:
				open = true
			}
		}
		neutral += mass.H2O
		switch series {
		case SeriesX:
			neutral += mass.CO - 2.01565006
		case SeriesZ:
			neutral -= mass.NH2
		}
	}
	neutral += link
	fc := float64(charge)
	return Ion{MZ: (neutral + fc*mass.Proton) / fc, Open: open}
}
