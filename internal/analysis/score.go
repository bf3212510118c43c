package analysis

import (
	"github.com/wfondrie/kojak/internal/ions"
	"github.com/wfondrie/kojak/internal/spectrum"
)

// xcorrScoring is the XCorr kernel: for every enabled series and every
// fragment charge below the precursor charge, sum the processed
// spectrum intensity at each theoretical fragment bin. Open ions (those
// spanning a link site) get the precursor-mass remainder added as
// offset/charge.
func (a *Analysis) xcorrScoring(s *spectrum.Spectrum, modMass float64, set *ions.Set, ionCount int) float64 {
	maxCharge := s.Charge
	if maxCharge > 6 {
		maxCharge = 6
	}

	dXcorr := 0.0
	for c := 1; c < maxCharge; c++ {
		dif := modMass / float64(c)
		for series := 0; series < ions.NumSeries; series++ {
			if !a.params.IonSeries[series] {
				continue
			}
			row := set.Series[series][c]
			for i := 0; i < ionCount && i < len(row); i++ {
				mz := row[i].MZ
				if row[i].Open {
					mz += dif
				}
				bin := int(mz*s.InvBinSize + s.BinOffset)
				dXcorr += s.XCorrAt(bin)
			}
		}
	}

	if dXcorr <= 0.0 {
		return 0.0
	}
	return dXcorr * 0.005
}

// kojakScoring is the same sum over the two-level sparse array: the
// theoretical m/z is quantized to its fragment bin, then looked up by
// integer key and sub-bin position.
func (a *Analysis) kojakScoring(s *spectrum.Spectrum, modMass float64, set *ions.Set, ionCount int) float64 {
	maxCharge := s.Charge
	if maxCharge > 6 {
		maxCharge = 6
	}

	dXcorr := 0.0
	for c := 1; c < maxCharge; c++ {
		dif := modMass / float64(c)
		for series := 0; series < ions.NumSeries; series++ {
			if !a.params.IonSeries[series] {
				continue
			}
			row := set.Series[series][c]
			for i := 0; i < ionCount && i < len(row); i++ {
				eff := row[i].MZ
				if row[i].Open {
					eff += dif
				}
				mz := a.params.BinSize * float64(int(eff*s.InvBinSize+s.BinOffset))
				key := int(mz)
				if key >= s.KojakBins {
					break
				}
				pos := int((mz - float64(key)) * s.InvBinSize)
				dXcorr += s.KojakAt(key, pos)
			}
		}
	}

	if dXcorr <= 0.0 {
		return 0.0
	}
	return dXcorr * 0.005
}
