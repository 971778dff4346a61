package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestStatistic_MeanTimesCountEqualsTotal(t *testing.T) {
	var s Statistic
	values := []float64{1, 2, 3, 4.5, -2, 7}
	for _, v := range values {
		s.Add(v)
	}
	require.InDelta(t, s.Mean()*float64(s.Count()), s.Total(), 1e-9)
	require.Equal(t, len(values), s.Count())
	require.GreaterOrEqual(t, s.Max(), s.Mean())
	require.LessOrEqual(t, s.Min(), s.Mean())
}

func TestStatistic_MatchesGonumMeanAndVariance(t *testing.T) {
	var s Statistic
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	for _, v := range values {
		s.Add(v)
	}
	wantMean := stat.Mean(values, nil)
	// gonum's Variance is the sample (N-1) variance; Statistic tracks the
	// population (N) variance, so compare after rescaling.
	wantPopVariance := stat.Variance(values, nil) * float64(len(values)-1) / float64(len(values))
	require.InDelta(t, wantMean, s.Mean(), 1e-9)
	require.InDelta(t, wantPopVariance, s.Variance(), 1e-9)
}

func TestStatistic_PriorUsedOnlyWhenEmpty(t *testing.T) {
	var s Statistic
	s.SetPrior(5, 2.0)
	require.Equal(t, 2.0, s.Mean())
	require.Equal(t, 5, s.EffectiveCount())
	require.Equal(t, 0.0, s.Max())
	require.Equal(t, 0.0, s.Min())

	s.Add(10)
	require.Equal(t, 1, s.Count())
	require.Equal(t, 1, s.EffectiveCount())
	require.Equal(t, 10.0, s.Mean())
	require.Equal(t, 10.0, s.Max())
}

func TestStatistic_SubtractReversesAdd(t *testing.T) {
	var s Statistic
	s.Add(1)
	s.Add(2)
	s.Add(3)
	meanBefore := s.Mean()
	s.Add(10)
	s.Subtract(10)
	require.InDelta(t, meanBefore, s.Mean(), 1e-9)
	require.Equal(t, 3, s.Count())
}

func TestStatistic_ClearResetsEverything(t *testing.T) {
	var s Statistic
	s.SetPrior(3, 1.0)
	s.Add(5)
	s.Clear()
	require.Equal(t, 0, s.Count())
	require.Equal(t, 0.0, s.Mean())
	require.Equal(t, 0, s.EffectiveCount())
}

func TestStatistic_VarianceNeverNegative(t *testing.T) {
	var s Statistic
	for i := 0; i < 100; i++ {
		s.Add(1.0)
	}
	require.False(t, math.Signbit(s.Variance()))
	require.Equal(t, 0.0, s.Variance())
}
