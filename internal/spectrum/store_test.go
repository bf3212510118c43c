package spectrum

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mkSpec(masses ...float64) *Spectrum {
	var pre []Precursor
	for _, m := range masses {
		pre = append(pre, Precursor{MonoMass: m, Charge: 2})
	}
	return New(0, nil, pre, testCfg)
}

func TestGetBoundaries(t *testing.T) {
	st := NewStore([]*Spectrum{
		mkSpec(800.0),
		mkSpec(900.0, 1200.0),
		mkSpec(1000.0),
	})

	if got := st.GetBoundaries(850, 1100); !cmp.Equal(got, []int{1, 2}) {
		t.Errorf("GetBoundaries(850,1100) = %v, want [1 2]", got)
	}
	// Inclusive on both ends
	if got := st.GetBoundaries(900.0, 1000.0); !cmp.Equal(got, []int{1, 2}) {
		t.Errorf("GetBoundaries(900,1000) = %v, want [1 2]", got)
	}
	if got := st.GetBoundaries(1300, 1400); got != nil {
		t.Errorf("empty window returned %v", got)
	}

	// A spectrum with two precursors in range appears once
	if got := st.GetBoundaries(850, 1250); !cmp.Equal(got, []int{1, 2}) {
		t.Errorf("dedup failed: %v", got)
	}

	if st.MinMass() != 800.0 || st.MaxMass() != 1200.0 {
		t.Errorf("mass extremes = %f..%f", st.MinMass(), st.MaxMass())
	}
}

func TestGetBoundaries2InclusiveEdge(t *testing.T) {
	// Precursor exactly at the +ppm edge of the window
	const m, ppm = 1000.0, 10.0
	d := m / 1e6 * ppm
	st := NewStore([]*Spectrum{mkSpec(m + d), mkSpec(m - d), mkSpec(m + 2*d)})

	got := st.GetBoundaries2(m, ppm)
	if !cmp.Equal(got, []int{0, 1}) {
		t.Errorf("ppm window should be closed-inclusive: %v", got)
	}
}
