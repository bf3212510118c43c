// Package linker describes cross-linking reagents and the motif tables
// that map amino acid symbols (plus the terminus pseudo-symbols 'n' and
// 'c') to the reactive classes a linker end may attach to.
package linker

// CrossLinker is one reagent: a mass plus the residue motifs its two
// ends react with. SiteA and SiteB are strings of residue symbols;
// 'n' and 'c' stand for the protein N- and C-terminus. Mono linkers
// are quenched single-ended reagents and never pair two peptides.
type CrossLinker struct {
	Name  string
	Mass  float64
	SiteA string
	SiteB string
	Mono  bool

	motifA int
	motifB int
}

// CounterPair is one pairing option for a motif: the motif expected on
// the other end, and the index of the linker that joins them.
type CounterPair struct {
	Motif  int
	Linker int
}

// Table indexes linkers by the motifs their ends belong to.
//
// Motif ids are assigned in linker declaration order: each distinct
// site string gets the next id. That order fixes the enumeration order
// of loop-link and cross-link candidates, so results are reproducible
// for a given linker list.
type Table struct {
	links    []CrossLinker
	motifs   []string              // motif id -> site string
	byAA     map[byte][]int        // residue symbol -> ordered motif ids
	counters map[int][]CounterPair // motif id -> ordered counter pairs
}

// NewTable builds the motif and counter-motif tables for a set of linkers.
func NewTable(links []CrossLinker) *Table {
	t := &Table{
		links:    make([]CrossLinker, len(links)),
		byAA:     make(map[byte][]int),
		counters: make(map[int][]CounterPair),
	}
	copy(t.links, links)

	for i := range t.links {
		l := &t.links[i]
		if l.Mono {
			// Mono linkers attach one end only. They contribute no
			// motifs and never appear in counter-motif pairings.
			l.motifA = -1
			l.motifB = -1
			continue
		}
		l.motifA = t.internMotif(l.SiteA)
		l.motifB = t.internMotif(l.SiteB)
		t.counters[l.motifA] = append(t.counters[l.motifA], CounterPair{Motif: l.motifB, Linker: i})
		if l.motifB != l.motifA {
			t.counters[l.motifB] = append(t.counters[l.motifB], CounterPair{Motif: l.motifA, Linker: i})
		}
	}
	return t
}

// internMotif returns the motif id for a site string, registering it
// and its member symbols on first use.
func (t *Table) internMotif(site string) int {
	for id, s := range t.motifs {
		if s == site {
			return id
		}
	}
	id := len(t.motifs)
	t.motifs = append(t.motifs, site)
	for i := 0; i < len(site); i++ {
		t.byAA[site[i]] = append(t.byAA[site[i]], id)
	}
	return id
}

// Motifs returns the ordered motif ids the symbol belongs to.
// The symbol may be a residue or one of the pseudo-symbols 'n', 'c'.
func (t *Table) Motifs(aa byte) []int {
	return t.byAA[aa]
}

// Counters returns the ordered (counter-motif, linker) pairs for a motif.
func (t *Table) Counters(motif int) []CounterPair {
	return t.counters[motif]
}

// CounterMotif returns the k-th counter-motif of a motif, or -1 when
// k is out of range.
func (t *Table) CounterMotif(motif, k int) int {
	cp := t.counters[motif]
	if k < 0 || k >= len(cp) {
		return -1
	}
	return cp[k].Motif
}

// XLIndex returns the linker index of the k-th counter-motif pairing,
// or -1 when k is out of range.
func (t *Table) XLIndex(motif, k int) int {
	cp := t.counters[motif]
	if k < 0 || k >= len(cp) {
		return -1
	}
	return cp[k].Linker
}

// SizeLink returns the number of linkers.
func (t *Table) SizeLink() int { return len(t.links) }

// GetLink returns the i-th linker.
func (t *Table) GetLink(i int) CrossLinker { return t.links[i] }

// MassRange returns the smallest and largest mass over all non-mono
// linkers. Both are zero when only mono linkers are defined.
func (t *Table) MassRange() (low, high float64) {
	for _, l := range t.links {
		if l.Mono {
			continue
		}
		if low == 0 || l.Mass < low {
			low = l.Mass
		}
		if high == 0 || l.Mass > high {
			high = l.Mass
		}
	}
	return low, high
}
