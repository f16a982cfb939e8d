package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"doomscroll/internal/platform/stats"
)

func TestDescribeUsesSampleStd(t *testing.T) {
	t.Parallel()
	s := stats.Describe([]float64{10, 10, 10, 100})
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 32.5, s.Mean)
	assert.InDelta(t, 45.0, s.Std, 1e-12)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
}

func TestDescribeShortSeries(t *testing.T) {
	t.Parallel()
	assert.Equal(t, stats.Summary{}, stats.Describe(nil))

	one := stats.Describe([]float64{7})
	assert.Equal(t, stats.Summary{Count: 1, Mean: 7, Min: 7, Max: 7}, one)
}
