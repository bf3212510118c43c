package spectrum

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Score histogram for expectation values: 0.1-wide score bins.
const histSize = 152

func (s *Spectrum) addHist(score float32) {
	bin := int(score * 10)
	if bin < 0 {
		bin = 0
	}
	if bin >= histSize {
		bin = histSize - 1
	}
	s.hist[bin]++
	s.histTotal++
}

// HistogramCount returns the number of scores accumulated for this
// spectrum across all submissions, retained or not.
func (s *Spectrum) HistogramCount() int { return s.histTotal }

// CalcEValue estimates the expectation value of a score from the
// spectrum's score histogram: the log10 survival function of the
// histogram tail is fit by linear regression, and the fit is
// extrapolated to the query score. Returns 999 when the histogram is
// too sparse or the fit is not decaying.
func (s *Spectrum) CalcEValue(score float64) float64 {
	// Survival function over score bins
	var surv [histSize]int
	sum := 0
	for i := histSize - 1; i >= 0; i-- {
		sum += s.hist[i]
		surv[i] = sum
	}
	if sum < 10 {
		return 999
	}

	// Fit from the histogram mode to the end of the populated tail
	start := 0
	for i := 1; i < histSize; i++ {
		if s.hist[i] > s.hist[start] {
			start = i
		}
	}
	var xs, ys []float64
	for i := start; i < histSize; i++ {
		if surv[i] <= 0 {
			break
		}
		xs = append(xs, float64(i))
		ys = append(ys, math.Log10(float64(surv[i])))
	}
	if len(xs) < 4 {
		return 999
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta >= 0 {
		return 999
	}
	bin := score * 10
	e := math.Pow(10, alpha+beta*bin)
	if e > 999 {
		e = 999
	}
	return e
}
