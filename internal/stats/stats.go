// Package stats implements the running statistic accumulator shared by
// every QNode and VNode: a count/mean/variance/extrema aggregate with an
// optional prior, updated incrementally so no full sample history ever
// needs to be stored.
package stats

import "math"

// Statistic is a running aggregate of observed values plus an optional
// prior ("smart" initialization).
//
// mean is maintained incrementally via Welford's algorithm so that
// mean*count == total holds within floating-point tolerance regardless of
// how many samples have been folded in.
type Statistic struct {
	count int
	total float64
	mean  float64
	m2    float64 // sum of squared deviations from the mean, for variance.
	max   float64
	min   float64

	initialCount int
	initialValue float64
}

// New returns a zero-valued Statistic with no prior.
func New() Statistic {
	return Statistic{}
}

// SetPrior configures a pseudo-sample of the given count and value that
// Mean and EffectiveCount fall back to before any real Add call;
// Variance ignores it. Priors never move Max/Min: extrema track actual observations
// only.
func (s *Statistic) SetPrior(count int, value float64) {
	s.initialCount = count
	s.initialValue = value
}

// Clear resets the statistic to its zero state, discarding any prior.
func (s *Statistic) Clear() {
	*s = Statistic{}
}

// Add folds a single observation x into the statistic.
func (s *Statistic) Add(x float64) {
	s.AddWeighted(x, 1)
}

// AddWeighted folds x into the statistic as if it had been observed n
// times (n >= 1). Used by RAVE back-up, which discounts a return per
// step but still counts it as one visit; n > 1 is used when a single
// call should represent a batch of identical observations.
func (s *Statistic) AddWeighted(x float64, n int) {
	if n <= 0 {
		return
	}
	if s.count == 0 {
		s.max, s.min = x, x
	} else {
		if x > s.max {
			s.max = x
		}
		if x < s.min {
			s.min = x
		}
	}
	for i := 0; i < n; i++ {
		s.count++
		delta := x - s.mean
		s.mean += delta / float64(s.count)
		delta2 := x - s.mean
		s.m2 += delta * delta2
	}
	s.total = s.mean * float64(s.count)
}

// Subtract peels off one observation of value x from the statistic,
// reversing an Add(x), for undoing a back-up. The engine does not call
// it; re-rooting in Update discards statistics instead. Subtracting a value never
// added is undefined; this is purely a bookkeeping operation.
func (s *Statistic) Subtract(x float64) {
	if s.count <= 1 {
		s.Clear()
		return
	}
	n := s.count
	newCount := n - 1
	newMean := (s.mean*float64(n) - x) / float64(newCount)
	// Reconstruct M2 for the reduced sample: invert the Welford update
	// that would have added x last.
	delta := x - newMean
	delta2 := x - s.mean
	s.m2 -= delta * delta2
	if s.m2 < 0 {
		s.m2 = 0
	}
	s.count = newCount
	s.mean = newMean
	s.total = s.mean * float64(s.count)
}

// Count returns the number of real observations folded in (the prior
// does not count towards this).
func (s *Statistic) Count() int {
	return s.count
}

// Total returns count * mean.
func (s *Statistic) Total() float64 {
	return s.total
}

// Mean returns the running mean. With no observations, it falls back to
// the prior value if one was set via SetPrior, else zero.
func (s *Statistic) Mean() float64 {
	if s.count == 0 {
		if s.initialCount > 0 {
			return s.initialValue
		}
		return 0
	}
	return s.mean
}

// EffectiveCount returns Count, or the prior's initialCount if there have
// been no real observations yet, for selection rules that want
// new-but-primed nodes to look "already visited". tree.VNode.SelectUCB
// uses Count, not EffectiveCount.
func (s *Statistic) EffectiveCount() int {
	if s.count == 0 {
		return s.initialCount
	}
	return s.count
}

// Variance returns the (population) variance of the observed values, 0
// if fewer than two observations have been made.
func (s *Statistic) Variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count)
}

// StdDev returns the square root of Variance.
func (s *Statistic) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Max returns the largest observed value, 0 if none observed.
func (s *Statistic) Max() float64 {
	return s.max
}

// Min returns the smallest observed value, 0 if none observed.
func (s *Statistic) Min() float64 {
	return s.min
}
