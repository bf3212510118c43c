package analysis

import (
	"github.com/wfondrie/kojak/internal/ions"
	"github.com/wfondrie/kojak/internal/spectrum"
)

// binPos is the (integer key, sub-bin position) coordinate of one
// theoretical fragment in the two-level sparse layout.
type binPos struct {
	key int
	pos int
}

// matchSet holds the bin coordinates of every fragment of one singlet
// ladder at one precursor interpretation, used for shared-ion scoring
// between the two halves of a candidate cross-link.
type matchSet struct {
	sz     int
	series [ions.NumSeries][ions.MaxFragCharge + 1][]binPos
}

// setBinList fills a matchSet from the base singlet ladder of ld,
// applying a stored modification vector on top: N-terminal series
// fragments accumulate mods left of the cut, C-terminal series
// fragments accumulate mods right of it. preMass is the unexplained
// precursor remainder added to open fragments.
func (a *Analysis) setBinList(m *matchSet, ld *ions.Ladder, charge int, preMass float64, mods []spectrum.PepMod) {
	set := ld.At(0)
	ionCount := ld.IonCount()
	m.sz = ionCount
	invBinSize := 1.0 / a.params.BinSize

	mod := make([]float64, ionCount)
	modRev := make([]float64, ionCount)
	for _, pm := range mods {
		for j := pm.Pos; j < ionCount; j++ {
			mod[j] += pm.Mass
		}
		for j := ionCount - pm.Pos; j < ionCount; j++ {
			if j >= 0 {
				modRev[j] += pm.Mass
			}
		}
	}

	if charge > 6 {
		charge = 6
	}
	for series := 0; series < ions.NumSeries; series++ {
		for c := 1; c <= ions.MaxFragCharge; c++ {
			m.series[series][c] = nil
		}
		if !a.params.IonSeries[series] {
			continue
		}
		rev := series == ions.SeriesX || series == ions.SeriesY || series == ions.SeriesZ
		for c := 1; c < charge; c++ {
			row := set.Series[series][c]
			if row == nil {
				continue
			}
			dif := preMass / float64(c)
			out := make([]binPos, ionCount)
			for j := 0; j < ionCount; j++ {
				mm := mod[j]
				if rev {
					mm = modRev[j]
				}
				eff := row[j].MZ + mm/float64(c)
				if row[j].Open {
					eff += dif
				}
				mz := a.params.BinSize * float64(int(eff*invBinSize+a.params.BinOffset))
				key := int(mz)
				out[j] = binPos{key: key, pos: int((mz - float64(key)) * invBinSize)}
			}
			m.series[series][c] = out
		}
	}
}

// sharedScore sums the spectrum intensity at every (key, pos)
// coordinate claimed by both match sets, per series and charge. Each
// coordinate of m1 pairs with at most one fragment of m2, so shared
// peaks are deducted once. Scaled like the scoring kernels.
func (a *Analysis) sharedScore(s *spectrum.Spectrum, m1, m2 *matchSet, charge int) float64 {
	if charge > 6 {
		charge = 6
	}
	dScore := 0.0
	for series := 0; series < ions.NumSeries; series++ {
		if !a.params.IonSeries[series] {
			continue
		}
		for c := 1; c < charge; c++ {
			r1 := m1.series[series][c]
			r2 := m2.series[series][c]
			if r1 == nil || r2 == nil {
				continue
			}
			seen := make(map[binPos]int, len(r1))
			for _, bp := range r1 {
				seen[bp]++
			}
			for _, bp := range r2 {
				if seen[bp] > 0 {
					seen[bp]--
					dScore += s.KojakAt(bp.key, bp.pos)
				}
			}
		}
	}
	if dScore <= 0.0 {
		return 0.0
	}
	return dScore * 0.005
}
