package metrics

import (
	"math"
	"sort"
	"time"
)

// Percentile interpolates linearly between the two closest ranks. p is in [0, 100].
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	cloned := append([]float64(nil), values...)
	sort.Float64s(cloned)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(cloned)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return cloned[lo]
	}
	return cloned[lo] + (cloned[hi]-cloned[lo])*(rank-float64(lo))
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// ratio returns 0 for an empty denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func minutes(durations []time.Duration) []float64 {
	out := make([]float64, len(durations))
	for i, d := range durations {
		out[i] = d.Minutes()
	}
	return out
}
