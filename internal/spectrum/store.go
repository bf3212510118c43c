package spectrum

import "sort"

type massEntry struct {
	mass float64
	spec int
}

// Store owns all spectra of a run plus an index of precursor masses
// sorted ascending, so candidate spectra for a peptide mass window are
// found by binary search.
type Store struct {
	spectra []*Spectrum
	index   []massEntry
}

// NewStore builds the precursor-mass index over the given spectra.
func NewStore(spectra []*Spectrum) *Store {
	st := &Store{spectra: spectra}
	for i, s := range spectra {
		for _, p := range s.Precursors {
			st.index = append(st.index, massEntry{mass: p.MonoMass, spec: i})
		}
	}
	sort.Slice(st.index, func(a, b int) bool { return st.index[a].mass < st.index[b].mass })
	return st
}

// Size returns the number of spectra.
func (st *Store) Size() int { return len(st.spectra) }

// At returns the i-th spectrum.
func (st *Store) At(i int) *Spectrum { return st.spectra[i] }

// GetSpectrum returns the i-th spectrum.
func (st *Store) GetSpectrum(i int) *Spectrum { return st.spectra[i] }

// GetBoundaries returns the indices of spectra with any precursor mass
// in [minMass, maxMass], ascending without duplicates. The boundaries
// are closed-inclusive.
func (st *Store) GetBoundaries(minMass, maxMass float64) []int {
	i1 := sort.Search(len(st.index), func(i int) bool { return st.index[i].mass >= minMass })
	i2 := sort.Search(len(st.index), func(i int) bool { return st.index[i].mass > maxMass })
	if i1 >= i2 {
		return nil
	}
	specs := make([]int, 0, i2-i1)
	for i := i1; i < i2; i++ {
		specs = append(specs, st.index[i].spec)
	}
	sort.Ints(specs)
	out := specs[:0]
	last := -1
	for _, s := range specs {
		if s != last {
			out = append(out, s)
			last = s
		}
	}
	return out
}

// GetBoundaries2 returns the indices of spectra with any precursor
// within ppm tolerance of the given mass.
func (st *Store) GetBoundaries2(mass, ppm float64) []int {
	d := mass / 1e6 * ppm
	return st.GetBoundaries(mass-d, mass+d)
}

// MinMass returns the smallest indexed precursor mass, or 0 when empty.
func (st *Store) MinMass() float64 {
	if len(st.index) == 0 {
		return 0
	}
	return st.index[0].mass
}

// MaxMass returns the largest indexed precursor mass, or 0 when empty.
func (st *Store) MaxMass() float64 {
	if len(st.index) == 0 {
		return 0
	}
	return st.index[len(st.index)-1].mass
}
