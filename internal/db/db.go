// Package db holds the protein database and the in-silico digested
// peptide lists the search iterates over.
package db

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/wfondrie/kojak/internal/linker"
	"github.com/wfondrie/kojak/internal/mass"
)

// Protein is one database entry. Decoy proteins are recognized by a
// name substring; they arrive labeled, nothing here generates them.
type Protein struct {
	Name     string
	Sequence []byte
	Decoy    bool
}

// PepRef locates one occurrence of a peptide inside a protein.
// Start and Stop are inclusive residue indices.
type PepRef struct {
	Index int
	Start int
	Stop  int
}

// Peptide is a digested sequence with its occurrence map and the
// precomputed unmodified monoisotopic mass. VA and VB list the
// peptide-relative candidate link sites for the two linker site
// classes. NTerm/CTerm mark occurrences at protein edges.
type Peptide struct {
	Mass     float64
	Map      []PepRef
	NTerm    bool
	CTerm    bool
	VA       []int
	VB       []int
	Linkable bool
}

// DigestConfig bounds the tryptic digest.
type DigestConfig struct {
	MissedCleavages int
	MinLen          int
	MaxLen          int
	MinMass         float64
	MaxMass         float64
}

// DB owns the proteins and the two mass-sorted peptide lists
// (cross-linkable and not).
type DB struct {
	proteins []Protein
	peps     [2][]Peptide
}

// New wraps a protein set. Call Digest before using the peptide lists.
func New(proteins []Protein) *DB {
	return &DB{proteins: proteins}
}

// LoadFASTA reads proteins from FASTA, marking entries whose name
// contains decoyTag as decoys. An empty tag marks nothing.
func LoadFASTA(r io.Reader, decoyTag string) ([]Protein, error) {
	var prots []Protein
	var cur *Protein
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			name := strings.TrimSpace(line[1:])
			prots = append(prots, Protein{
				Name:  name,
				Decoy: decoyTag != "" && strings.Contains(name, decoyTag),
			})
			cur = &prots[len(prots)-1]
			continue
		}
		if cur != nil {
			cur.Sequence = append(cur.Sequence, []byte(strings.ToUpper(line))...)
		}
	}
	return prots, sc.Err()
}

// At returns the i-th protein.
func (d *DB) At(i int) *Protein { return &d.proteins[i] }

// NumProteins returns the protein count.
func (d *DB) NumProteins() int { return len(d.proteins) }

// GetPeptideList returns the mass-sorted (ascending) peptide list.
func (d *DB) GetPeptideList(linkable bool) []Peptide {
	if linkable {
		return d.peps[1]
	}
	return d.peps[0]
}

// GetPeptide returns a peptide by index within its list.
func (d *DB) GetPeptide(i int, linkable bool) *Peptide {
	if linkable {
		return &d.peps[1][i]
	}
	return &d.peps[0][i]
}

// GetPeptideSeq returns the residue slice of the first occurrence.
func (d *DB) GetPeptideSeq(p *Peptide) []byte {
	m := p.Map[0]
	return d.proteins[m.Index].Sequence[m.Start : m.Stop+1]
}

// cleavageSites returns the indices after which trypsin cuts:
// after K or R, not before P.
func cleavageSites(seq []byte) []int {
	var sites []int
	for i := 0; i < len(seq)-1; i++ {
		if (seq[i] == 'K' || seq[i] == 'R') && seq[i+1] != 'P' {
			sites = append(sites, i)
		}
	}
	return sites
}

type pepBuild struct {
	pep Peptide
	seq string
}

// Digest performs the tryptic digest over all proteins, merging equal
// sequences into one peptide with multiple occurrences, and splits the
// result into the linkable and non-linkable lists sorted by mass.
func (d *DB) Digest(cfg DigestConfig, xl *linker.Table) {
	byClass := map[bool]map[string]*pepBuild{false: {}, true: {}}

	for pi := range d.proteins {
		seq := d.proteins[pi].Sequence
		cuts := cleavageSites(seq)
		// Peptide boundaries: protein start, each cut+1, protein end
		starts := []int{0}
		for _, c := range cuts {
			starts = append(starts, c+1)
		}
		for si, start := range starts {
			// Allow up to MissedCleavages internal cut sites
			for mc := 0; mc <= cfg.MissedCleavages; mc++ {
				end := len(seq) - 1
				if si+mc < len(cuts) {
					end = cuts[si+mc]
				}
				d.addPeptide(byClass, pi, start, end, cfg, xl)
				if si+mc >= len(cuts) {
					break
				}
			}
		}
	}

	for _, linkable := range []bool{false, true} {
		list := make([]Peptide, 0, len(byClass[linkable]))
		keys := make([]string, 0, len(byClass[linkable]))
		for k := range byClass[linkable] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			list = append(list, byClass[linkable][k].pep)
		}
		sort.SliceStable(list, func(a, b int) bool { return list[a].Mass < list[b].Mass })
		if linkable {
			d.peps[1] = list
		} else {
			d.peps[0] = list
		}
	}
}

func (d *DB) addPeptide(byClass map[bool]map[string]*pepBuild, pi, start, end int, cfg DigestConfig, xl *linker.Table) {
	seq := d.proteins[pi].Sequence[start : end+1]
	n := len(seq)
	if n < cfg.MinLen || (cfg.MaxLen > 0 && n > cfg.MaxLen) {
		return
	}
	m, err := mass.Pep(seq)
	if err != nil {
		return
	}
	if m < cfg.MinMass || (cfg.MaxMass > 0 && m > cfg.MaxMass) {
		return
	}

	nTerm := start <= 1
	cTerm := end == len(d.proteins[pi].Sequence)-1
	linkable := false
	for k := 0; k < n; k++ {
		if SiteEligible(xl, seq[k], k, n, nTerm, cTerm) {
			linkable = true
			break
		}
	}

	key := string(seq)
	set := byClass[linkable]
	pb, ok := set[key]
	if !ok {
		pb = &pepBuild{seq: key}
		pb.pep = Peptide{Mass: m, Linkable: linkable}
		pb.pep.VA, pb.pep.VB = siteClasses(xl, seq)
		set[key] = pb
	}
	pb.pep.Map = append(pb.pep.Map, PepRef{Index: pi, Start: start, Stop: end})
	pb.pep.NTerm = pb.pep.NTerm || nTerm
	pb.pep.CTerm = pb.pep.CTerm || cTerm
}

// SiteEligible reports whether position k can carry a cross-link:
// either the residue belongs to a motif directly, or the terminus
// pseudo-residues 'n'/'c' apply at a protein edge.
func SiteEligible(xl *linker.Table, aa byte, k, length int, nTerm, cTerm bool) bool {
	if len(xl.Motifs(aa)) > 0 {
		return true
	}
	if k == 0 && nTerm && len(xl.Motifs('n')) > 0 {
		return true
	}
	if k == length-1 && cTerm && len(xl.Motifs('c')) > 0 {
		return true
	}
	return false
}

// siteClasses lists positions whose residue matches a side-A or side-B
// motif of any non-mono linker.
func siteClasses(xl *linker.Table, seq []byte) (va, vb []int) {
	for i := 0; i < xl.SizeLink(); i++ {
		l := xl.GetLink(i)
		if l.Mono {
			continue
		}
		for k, aa := range seq {
			if strings.IndexByte(l.SiteA, aa) >= 0 {
				va = appendUniq(va, k)
			}
			if strings.IndexByte(l.SiteB, aa) >= 0 {
				vb = appendUniq(vb, k)
			}
		}
	}
	sort.Ints(va)
	sort.Ints(vb)
	return va, vb
}

func appendUniq(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
