package analysis

import (
	"sort"

	"github.com/wfondrie/kojak/internal/spectrum"
)

// singletPlus augments a stored singlet card with everything the
// pairing pass needs: the motifs its link site belongs to (with
// terminus promotions) and the target/decoy class of its proteins.
// Zero-score cards get mass 0 so they sort to the front and are
// skipped.
type singletPlus struct {
	mass        float64
	simpleScore float32
	len         int
	k1          int
	pep1        int
	rank        int
	linkable    bool
	motifs      []int
	target      int // 1 target, 0 decoy, 2 both
}

// analyzeRelaxed pairs the singlets of one spectrum: sorted by mass,
// each positive-scoring card with a link site is matched by binary
// search against the complementary mass for every counter-motif and
// precursor, and each valid pair is submitted as a cross-link card
// with the shared-ion score deducted.
func (a *Analysis) analyzeRelaxed(sp *spectrum.Spectrum, specIdx, iIndex int) {
	a.writeDiagnostics(sp)

	count := sp.GetSingletCount()
	if count == 0 {
		return
	}

	s := make([]singletPlus, count)
	for j := 0; j < count; j++ {
		sc1 := sp.GetSingletScoreCard(j)
		s[j] = singletPlus{
			simpleScore: sc1.SimpleScore,
			len:         sc1.Len,
			k1:          sc1.K1,
			pep1:        sc1.Pep1,
			rank:        j,
			linkable:    sc1.Linkable,
		}
		if sc1.SimpleScore > 0 {
			s[j].mass = sc1.Mass
		}

		pep := a.db.GetPeptide(sc1.Pep1, sc1.Linkable)
		if sc1.K1 >= 0 {
			seq := a.db.GetPeptideSeq(pep)
			s[j].motifs = append([]int(nil), a.xl.Motifs(seq[sc1.K1])...)
			// Promote terminus motifs for occurrences at protein edges
			for _, occ := range pep.Map {
				if occ.Start+sc1.K1 < 2 {
					for _, mo := range a.xl.Motifs('n') {
						if !containsMotif(s[j].motifs, mo) {
							s[j].motifs = append(s[j].motifs, mo)
						}
					}
				}
				if occ.Start+sc1.K1 == len(a.db.At(occ.Index).Sequence)-1 {
					for _, mo := range a.xl.Motifs('c') {
						if !containsMotif(s[j].motifs, mo) {
							s[j].motifs = append(s[j].motifs, mo)
						}
					}
				}
			}
		}

		targets, decoys := 0, 0
		for _, occ := range pep.Map {
			if a.db.At(occ.Index).Decoy {
				decoys++
			} else {
				targets++
			}
		}
		switch {
		case targets > 0 && decoys > 0:
			s[j].target = 2
		case targets > 0:
			s[j].target = 1
		default:
			s[j].target = 0
		}
	}

	sort.SliceStable(s, func(i, j int) bool { return s[i].mass < s[j].mass })

	var msTemplate, msPartner matchSet
	ld := a.ladders[iIndex]
	tol := a.params.PPMPrecursor

	for j := 0; j < count; j++ {
		if s[j].simpleScore <= 0 || !s[j].linkable || s[j].k1 < 0 {
			continue
		}

		matched := make(map[int]bool)
		pep := a.db.GetPeptide(s[j].pep1, true)
		seq := a.db.GetPeptideSeq(pep)

		for _, motif := range s[j].motifs {
			for _, cp := range a.xl.Counters(motif) {
				link := a.xl.GetLink(cp.Linker)
				for m := range sp.Precursors {
					pre := sp.Precursors[m]

					ld.SetPeptide(true, seq, pep.Mass)
					ld.BuildSingletIons(s[j].k1)
					a.setBinList(&msTemplate, ld, pre.Charge, pre.MonoMass-s[j].mass,
						sp.GetSingletScoreCard(s[j].rank).Mods)

					target := pre.MonoMass - s[j].mass - link.Mass
					idx := sort.Search(count, func(i int) bool { return s[i].mass >= target })

					// Walk up: too-light partners are skipped, the
					// first too-heavy one ends the walk.
					for n := idx; n < count; n++ {
						if !a.params.DimersXL && n == j {
							continue
						}
						if s[n].simpleScore <= 0 || s[n].k1 < 0 {
							continue
						}
						if matched[n] {
							continue
						}
						totalMass := s[j].mass + s[n].mass + link.Mass
						ppm := (totalMass - pre.MonoMass) / pre.MonoMass * 1e6
						if ppm < -tol {
							continue
						}
						if ppm > tol {
							break
						}
						if !containsMotif(s[n].motifs, cp.Motif) {
							continue
						}
						a.emitCrossLink(sp, specIdx, s, j, n, cp.Linker, totalMass, pre, &msTemplate, &msPartner, iIndex)
						matched[n] = true
					}

					// Walk down, mirrored
					for n := idx - 1; n >= 0; n-- {
						if !a.params.DimersXL && n == j {
							continue
						}
						if s[n].simpleScore <= 0 || s[n].k1 < 0 {
							continue
						}
						if matched[n] {
							continue
						}
						totalMass := s[j].mass + s[n].mass + link.Mass
						ppm := (totalMass - pre.MonoMass) / pre.MonoMass * 1e6
						if ppm > tol {
							continue
						}
						if ppm < -tol {
							break
						}
						if !containsMotif(s[n].motifs, cp.Motif) {
							continue
						}
						a.emitCrossLink(sp, specIdx, s, j, n, cp.Linker, totalMass, pre, &msTemplate, &msPartner, iIndex)
						matched[n] = true
					}
				}
			}
		}

		// Consume this card so later iterations skip it
		s[j].simpleScore = -s[j].simpleScore
	}

	for j := 0; j < count; j++ {
		if s[j].simpleScore < 0 {
			s[j].simpleScore = -s[j].simpleScore
		}
	}

	if !a.params.DimersNC {
		return
	}

	// Non-covalent dimers: pair siteless cards whose masses sum to a
	// precursor; scores add directly, no shared-ion deduction.
	for j := 0; j < count; j++ {
		if s[j].simpleScore <= 0 || s[j].k1 > -1 {
			continue
		}
		for m := range sp.Precursors {
			pre := sp.Precursors[m]
			target := pre.MonoMass - s[j].mass
			idx := sort.Search(count, func(i int) bool { return s[i].mass >= target })

			for n := idx; n < count; n++ {
				if s[n].simpleScore <= 0 || s[n].k1 > -1 {
					continue
				}
				totalMass := s[j].mass + s[n].mass
				ppm := (totalMass - pre.MonoMass) / pre.MonoMass * 1e6
				if ppm > tol {
					break
				}
				if ppm >= -tol {
					a.emitDimer(sp, specIdx, s, j, n, totalMass)
				}
			}
			for n := idx - 1; n >= 0; n-- {
				if s[n].simpleScore <= 0 || s[n].k1 > -1 {
					continue
				}
				totalMass := s[j].mass + s[n].mass
				ppm := (totalMass - pre.MonoMass) / pre.MonoMass * 1e6
				if ppm < -tol {
					break
				}
				if ppm <= tol {
					a.emitDimer(sp, specIdx, s, j, n, totalMass)
				}
			}
		}
		s[j].simpleScore = -s[j].simpleScore
	}
}

// emitCrossLink scores the partner's ladder, deducts the shared ions,
// and submits the combined cross-link card.
func (a *Analysis) emitCrossLink(sp *spectrum.Spectrum, specIdx int, s []singletPlus, j, n, linkIdx int, totalMass float64, pre spectrum.Precursor, msTemplate, msPartner *matchSet, iIndex int) {
	pep := a.db.GetPeptide(s[n].pep1, true)
	seq := a.db.GetPeptideSeq(pep)
	ld := a.ladders[iIndex]
	ld.SetPeptide(true, seq, pep.Mass)
	ld.BuildSingletIons(s[n].k1)
	a.setBinList(msPartner, ld, pre.Charge, pre.MonoMass-s[n].mass,
		sp.GetSingletScoreCard(s[n].rank).Mods)

	shared := a.sharedScore(sp, msTemplate, msPartner, pre.Charge)

	score1 := float64(s[j].simpleScore) * float64(s[j].len)
	score2 := float64(s[n].simpleScore) * float64(s[n].len)

	sc := spectrum.ScoreCard{
		SimpleScore: float32(score1 + score2 - shared),
		K1:          s[j].k1,
		K2:          s[n].k1,
		Mass:        totalMass,
		Linkable1:   s[j].linkable,
		Linkable2:   s[n].linkable,
		Pep1:        s[j].pep1,
		Pep2:        s[n].pep1,
		Link:        linkIdx,
		Rank1:       s[j].rank,
		Rank2:       s[n].rank,
		Score1:      float32(score1),
		Score2:      float32(score2),
		Mass1:       s[j].mass,
		Mass2:       s[n].mass,
		Mods1:       append([]spectrum.PepMod(nil), sp.GetSingletScoreCard(s[j].rank).Mods...),
		Mods2:       append([]spectrum.PepMod(nil), sp.GetSingletScoreCard(s[n].rank).Mods...),
	}
	a.specMu[specIdx].Lock()
	sp.CheckScore(sc)
	a.specMu[specIdx].Unlock()
}

// emitDimer submits a non-covalent dimer card (link id -2).
func (a *Analysis) emitDimer(sp *spectrum.Spectrum, specIdx int, s []singletPlus, j, n int, totalMass float64) {
	score1 := float64(s[j].simpleScore) * float64(s[j].len)
	score2 := float64(s[n].simpleScore) * float64(s[n].len)
	sc := spectrum.ScoreCard{
		SimpleScore: float32(score1 + score2),
		K1:          -1,
		K2:          -1,
		Mass:        totalMass,
		Linkable1:   s[j].linkable,
		Linkable2:   s[n].linkable,
		Pep1:        s[j].pep1,
		Pep2:        s[n].pep1,
		Link:        -2,
		Rank1:       s[j].rank,
		Rank2:       s[n].rank,
		Score1:      float32(score1),
		Score2:      float32(score2),
		Mass1:       s[j].mass,
		Mass2:       s[n].mass,
		Mods1:       append([]spectrum.PepMod(nil), sp.GetSingletScoreCard(s[j].rank).Mods...),
		Mods2:       append([]spectrum.PepMod(nil), sp.GetSingletScoreCard(s[n].rank).Mods...),
	}
	a.specMu[specIdx].Lock()
	sp.CheckScore(sc)
	a.specMu[specIdx].Unlock()
}
