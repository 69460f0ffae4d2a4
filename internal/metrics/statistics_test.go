package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileInterpolates(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 90, 0},
		{"single", []float64{7}, 90, 7},
		{"two", []float64{10, 20}, 90, 19},
		{"ten unsorted", []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}, 90, 9.1},
		{"median", []float64{1, 2, 3, 4}, 50, 2.5},
		{"max", []float64{3, 1, 2}, 100, 3},
		{"min", []float64{3, 1, 2}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 90)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestP90AtLeastMeanForTypicalCycleTimes(t *testing.T) {
	cycles := []float64{8, 9, 10, 11, 12, 12, 13, 15, 18, 25}
	assert.GreaterOrEqual(t, Percentile(cycles, 90), Mean(cycles))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}
