// Package spectrum holds preprocessed fragment spectra, the
// precursor-mass index used to find candidate spectra for a peptide,
// and the per-spectrum tables of top-scoring matches.
package spectrum

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Peak is one centroided peak of an observed spectrum.
type Peak struct {
	MZ     float64
	Intens float64
}

// Precursor is one candidate precursor interpretation of a spectrum:
// the uncharged monoisotopic mass and the charge it was observed at.
type Precursor struct {
	MonoMass float64
	Charge   int
}

// SparseBin is one transition of the processed intensity array: the
// value holds from Bin up to (not including) the next transition.
type SparseBin struct {
	Bin       int
	Intensity float64
}

// Config carries the binning parameters and table sizes shared by all
// spectra of a run.
type Config struct {
	BinSize    float64
	BinOffset  float64
	TopCards   int // full match cards retained per spectrum
	SingletCap int // singlet cards retained per spectrum
}

// Spectrum is one observed MS2 spectrum after preprocessing.
//
// Two lookup structures are built from the same processed intensities:
// XCorrSparse is a transition list over integer fragment bins, and
// KojakSparse is a two-level array indexed by integer m/z then sub-bin
// position. Both are immutable during analysis; only the score tables
// mutate, under the per-spectrum mutex owned by the analyzer.
type Spectrum struct {
	ScanNumber int
	Charge     int // highest precursor charge
	Precursors []Precursor

	BinSize    float64
	BinOffset  float64
	InvBinSize float64

	XCorrSparse []SparseBin
	KojakSparse [][]float32
	KojakBins   int

	topCards   int
	singletCap int
	cards      []ScoreCard
	singlets   []SingletScoreCard

	hist      [histSize]int
	histTotal int
}

// New preprocesses raw peaks into a scorable Spectrum.
func New(scan int, peaks []Peak, precursors []Precursor, cfg Config) *Spectrum {
	s := &Spectrum{
		ScanNumber: scan,
		Precursors: precursors,
		BinSize:    cfg.BinSize,
		BinOffset:  cfg.BinOffset,
		InvBinSize: 1.0 / cfg.BinSize,
		topCards:   cfg.TopCards,
		singletCap: cfg.SingletCap,
	}
	for _, p := range precursors {
		if p.Charge > s.Charge {
			s.Charge = p.Charge
		}
	}
	s.preprocess(peaks)
	return s
}

// preprocess bins the peaks, normalizes intensities in ten windows,
// subtracts the local background, and builds both sparse structures.
func (s *Spectrum) preprocess(peaks []Peak) {
	maxBin := 0
	for _, p := range peaks {
		b := int(p.MZ*s.InvBinSize + s.BinOffset)
		if b > maxBin {
			maxBin = b
		}
	}
	size := maxBin + 76
	raw := make([]float64, size)
	for _, p := range peaks {
		if p.Intens <= 0 {
			continue
		}
		b := int(p.MZ*s.InvBinSize + s.BinOffset)
		v := math.Sqrt(p.Intens)
		if v > raw[b] {
			raw[b] = v
		}
	}

	// Normalize the highest peak of each of ten windows to 50
	span := size/10 + 1
	for w := 0; w < 10; w++ {
		lo := w * span
		hi := lo + span
		if hi > size {
			hi = size
		}
		if lo >= hi {
			break
		}
		if max := floats.Max(raw[lo:hi]); max > 0 {
			floats.Scale(50.0/max, raw[lo:hi])
		}
	}

	// Fast XCorr background: subtract the mean of the 150 neighboring
	// bins within +-75
	proc := make([]float64, size)
	winSum := 0.0
	for i := 0; i < size && i <= 75; i++ {
		winSum += raw[i]
	}
	for i := 0; i < size; i++ {
		if i > 75 {
			winSum -= raw[i-76]
		}
		proc[i] = raw[i] - (winSum-raw[i])/150.0
		if i+76 < size {
			winSum += raw[i+76]
		}
	}

	// Transition list for the XCorr kernel
	prev := 0.0
	for i := 0; i < size; i++ {
		if proc[i] != prev {
			s.XCorrSparse = append(s.XCorrSparse, SparseBin{Bin: i, Intensity: proc[i]})
			prev = proc[i]
		}
	}
	if prev != 0 {
		s.XCorrSparse = append(s.XCorrSparse, SparseBin{Bin: size, Intensity: 0})
	}

	// Two-level sparse array for the kojak kernel
	s.KojakBins = int(s.BinSize*float64(size)) + 1
	s.KojakSparse = make([][]float32, s.KojakBins)
	inner := int(s.InvBinSize) + 1
	for i := 0; i < size; i++ {
		if proc[i] == 0 {
			continue
		}
		mz := s.BinSize * float64(i)
		key := int(mz)
		if key >= s.KojakBins {
			continue
		}
		pos := int((mz - float64(key)) * s.InvBinSize)
		if s.KojakSparse[key] == nil {
			s.KojakSparse[key] = make([]float32, inner)
		}
		s.KojakSparse[key][pos] = float32(proc[i])
	}
}

// XCorrAt returns the processed intensity at an integer fragment bin.
func (s *Spectrum) XCorrAt(bin int) float64 {
	if bin < 0 {
		return 0
	}
	i := sort.Search(len(s.XCorrSparse), func(j int) bool {
		return s.XCorrSparse[j].Bin > bin
	})
	if i == 0 {
		return 0
	}
	return s.XCorrSparse[i-1].Intensity
}

// KojakAt returns the processed intensity at a (key, pos) coordinate,
// or 0 when nothing was recorded there.
func (s *Spectrum) KojakAt(key, pos int) float64 {
	if key < 0 || key >= s.KojakBins {
		return 0
	}
	row := s.KojakSparse[key]
	if row == nil || pos < 0 || pos >= len(row) {
		return 0
	}
	return float64(row[pos])
}
