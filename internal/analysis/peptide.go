package analysis

import (
	"github.com/wfondrie/kojak/internal/db"
	"github.com/wfondrie/kojak/internal/ions"
	"github.com/wfondrie/kojak/internal/spectrum"
)

// analyzePeptide scores one peptide: all modification combinations of
// the plain ladder against spectra in precursor tolerance, then (for
// the cross-link pass) singlets on every eligible site and loop-links
// over all compatible site pairs.
func (a *Analysis) analyzePeptide(p *db.Peptide, pepIndex, iIndex int, crossLink bool) {
	seq := a.db.GetPeptideSeq(p)
	ld := a.ladders[iIndex]

	ld.SetPeptide(true, seq, p.Mass)
	ld.BuildIons()
	ld.ModIonsRec(0, -1, false)

	for j := 0; j < ld.Size(); j++ {
		set := ld.At(j)
		if idx := a.store.GetBoundaries2(set.Mass, a.params.PPMPrecursor); len(idx) > 0 {
			a.scoreSpectra(idx, ld, j, set.DifMass, crossLink, pepIndex, -1, -1, -1, -1)
		}
		if a.params.DimersNC {
			a.analyzeSingletsNC(p, ld, j, pepIndex, crossLink)
		}
	}

	if !crossLink {
		return
	}

	a.analyzeSinglets(p, pepIndex, iIndex)

	// Loop-links: every site pair whose motifs are counter-motifs of a
	// shared linker. The last residue never serves as second site.
	for k := 0; k < len(seq); k++ {
		for _, motif := range a.xl.Motifs(seq[k]) {
			for _, cp := range a.xl.Counters(motif) {
				link := a.xl.GetLink(cp.Linker)
				for k2 := k + 1; k2 < len(seq)-1; k2++ {
					if !containsMotif(a.xl.Motifs(seq[k2]), cp.Motif) {
						continue
					}
					ld.Reset()
					ld.BuildLoopIons(link.Mass, k, k2)
					ld.ModLoopIonsRec(0, k, k2, true)
					for j := 0; j < ld.Size(); j++ {
						set := ld.At(j)
						if idx := a.store.GetBoundaries2(set.Mass, a.params.PPMPrecursor); len(idx) > 0 {
							a.scoreSpectra(idx, ld, j, 0, crossLink, pepIndex, -1, k, k2, cp.Linker)
						}
					}
				}
			}
		}
	}
}

// analyzeSinglets submits one singlet card per eligible link site and
// modification combination to every spectrum whose precursor can hold
// this peptide plus a linker plus a partner in the configured mass
// bounds.
func (a *Analysis) analyzeSinglets(p *db.Peptide, pepIndex, iIndex int) {
	seq := a.db.GetPeptideSeq(p)
	n := len(seq)

	minMass := p.Mass + a.lowLinkMass + a.params.MinPepMass
	maxMass := p.Mass + a.highLinkMass + a.params.MaxPepMass
	minMass -= minMass / 1e6 * a.params.PPMPrecursor
	maxMass += maxMass / 1e6 * a.params.PPMPrecursor

	ld := a.ladders[iIndex]
	ld.SetPeptide(true, seq, p.Mass)

	for k := 0; k < n; k++ {
		if !db.SiteEligible(a.xl, seq[k], k, n, p.NTerm, p.CTerm) {
			continue
		}

		ld.Reset()
		ld.BuildSingletIons(k)
		ld.ModIonsRec(0, k, true)

		for j := 0; j < ld.Size(); j++ {
			set := ld.At(j)
			idx := a.store.GetBoundaries(minMass+set.DifMass, maxMass+set.DifMass)
			for _, si := range idx {
				a.scoreSingletSpectra(si, ld, j, set.Mass, n, pepIndex, k, true, minMass)
			}
		}
	}
}

// analyzeSingletsNC registers siteless singlets for the non-covalent
// dimer search: any spectrum whose precursor leaves a partner-peptide
// remainder within bounds gets a card with no link site.
func (a *Analysis) analyzeSingletsNC(p *db.Peptide, ld *ions.Ladder, setIdx, pepIndex int, linkable bool) {
	set := ld.At(setIdx)
	minMass := p.Mass + set.DifMass + a.params.MinPepMass
	maxMass := p.Mass + set.DifMass + a.params.MaxPepMass
	minMass -= minMass / 1e6 * a.params.PPMPrecursor
	maxMass += maxMass / 1e6 * a.params.PPMPrecursor

	idx := a.store.GetBoundaries(minMass, maxMass)
	n := len(a.db.GetPeptideSeq(p))
	for _, si := range idx {
		a.scoreSingletSpectra(si, ld, setIdx, set.Mass, n, pepIndex, -1, linkable, minMass)
	}
}

// scoreSpectra scores one ion set against the given spectra and
// submits a full card to each.
func (a *Analysis) scoreSpectra(indices []int, ld *ions.Ladder, setIdx int, modMass float64, linkable bool, pep1, pep2, k1, k2, link int) {
	set := ld.At(setIdx)
	for _, si := range indices {
		s := a.store.At(si)
		var score float64
		if a.params.XCorr {
			score = a.xcorrScoring(s, modMass, set, ld.IonCount())
		} else {
			score = a.kojakScoring(s, modMass, set, ld.IonCount())
		}
		sc := spectrum.ScoreCard{
			SimpleScore: float32(score),
			Pep1:        pep1,
			Pep2:        pep2,
			K1:          k1,
			K2:          k2,
			Link:        link,
			Mass:        set.Mass,
			Linkable1:   linkable,
			Linkable2:   linkable,
		}
		if set.DifMass != 0 {
			sc.Mods1 = modsFromSet(set)
		}
		a.specMu[si].Lock()
		s.CheckScore(sc)
		a.specMu[si].Unlock()
	}
}

// scoreSingletSpectra scores a singlet ion set against every precursor
// of one spectrum heavier than minMass, keeping the best score, and
// submits the card when it is positive. SimpleScore is normalized per residue.
func (a *Analysis) scoreSingletSpectra(si int, ld *ions.Ladder, setIdx int, m float64, pepLen, pep, k int, linkable bool, minMass float64) {
	s := a.store.GetSpectrum(si)
	set := ld.At(setIdx)

	best := 0.0
	for _, pre := range s.Precursors {
		if pre.MonoMass <= minMass {
			continue
		}
		var score float64
		if a.params.XCorr {
			score = a.xcorrScoring(s, pre.MonoMass-m, set, ld.IonCount())
		} else {
			score = a.kojakScoring(s, pre.MonoMass-m, set, ld.IonCount())
		}
		if score > best {
			best = score
		}
	}

	sc := spectrum.SingletScoreCard{
		Len:         pepLen,
		SimpleScore: float32(best / float64(pepLen)),
		K1:          k,
		Linkable:    linkable,
		Pep1:        pep,
		Mass:        m,
	}
	if sc.SimpleScore > 0 {
		if set.DifMass != 0 {
			sc.Mods = modsFromSet(set)
		}
		a.specMu[si].Lock()
		s.CheckSingletScore(sc)
		a.specMu[si].Unlock()
	}
}

// modsFromSet extracts the placed variable modifications of a set.
func modsFromSet(set *ions.Set) []spectrum.PepMod {
	var out []spectrum.PepMod
	for i, m := range set.Mods {
		if m != 0 {
			out = append(out, spectrum.PepMod{Pos: i, Mass: m})
		}
	}
	return out
}
