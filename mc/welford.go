package mc

import "math"

// Accumulator keeps a running count, mean and sum of squared deviations
// (Welford). Two accumulators combine exactly with Merge.
type Accumulator struct {
	N    int64
	Mean float64
	M2   float64
}

// Add folds one sample in.
func (a *Accumulator) Add(x float64) {
	a.N++
	delta := x - a.Mean
	a.Mean += delta / float64(a.N)
	a.M2 += delta * (x - a.Mean)
}

// Merge folds b into a with Chan's pairwise update.
func (a *Accumulator) Merge(b Accumulator) {
	if b.N == 0 {
		return
	}
	if a.N == 0 {
		*a = b
		return
	}
	n := a.N + b.N
	delta := b.Mean - a.Mean
	a.Mean += delta * float64(b.N) / float64(n)
	a.M2 += b.M2 + delta*delta*float64(a.N)*float64(b.N)/float64(n)
	a.N = n
}

// Variance is the unbiased sample variance, NaN below two samples.
func (a Accumulator) Variance() float64 {
	if a.N < 2 {
		return math.NaN()
	}
	return a.M2 / float64(a.N-1)
}

// StdErr is the standard error of the mean, NaN below two samples.
func (a Accumulator) StdErr() float64 {
	return math.Sqrt(a.Variance() / float64(a.N))
}
