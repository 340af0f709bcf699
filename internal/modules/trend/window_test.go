package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestComputeWindow(t *testing.T) {
	series := []PricePoint{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
		{Date: day(2), Close: 121},
	}

	w := ComputeWindow(series, day(1))
	require.NotNil(t, w)
	require.Len(t, w.Points, 2)
	assert.Equal(t, 110.0, w.Points[0].Close)
	require.NotNil(t, w.ChangePct)
	assert.InDelta(t, 10.0, *w.ChangePct, 1e-9)
}

func TestComputeWindow_RefBeforeSeries(t *testing.T) {
	series := []PricePoint{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 90},
	}

	w := ComputeWindow(series, day(-10))
	require.NotNil(t, w)
	assert.Len(t, w.Points, 2)
	require.NotNil(t, w.ChangePct)
	assert.InDelta(t, -10.0, *w.ChangePct, 1e-9)
}

func TestComputeWindow_UndefinedPastLastSample(t *testing.T) {
	series := []PricePoint{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
	}

	assert.Nil(t, ComputeWindow(series, day(2)))
	assert.Nil(t, ComputeWindow(nil, day(0)))
}

func TestComputeWindow_SinglePointHasNoChange(t *testing.T) {
	series := []PricePoint{
		{Date: day(0), Close: 100},
		{Date: day(5), Close: 120},
	}

	w := ComputeWindow(series, day(3))
	require.NotNil(t, w)
	assert.Len(t, w.Points, 1)
	assert.Nil(t, w.ChangePct)
}

func TestComputeWindow_ExactMatchIncluded(t *testing.T) {
	series := []PricePoint{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
	}

	w := ComputeWindow(series, day(0))
	require.NotNil(t, w)
	assert.Len(t, w.Points, 2)
}
