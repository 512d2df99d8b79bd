package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observationAt(year int, level, rainfall, depletion float64) Observation {
	obs := baseObservation()
	obs.Year = year
	obs.GroundwaterLevel = level
	obs.Rainfall = rainfall
	obs.DepletionRate = depletion
	return obs
}

func TestForecastTwoPoints(t *testing.T) {
	series := []Observation{
		observationAt(2018, 10, 800, 3.0),
		observationAt(2019, 12, 780, 3.5),
	}

	predictions, err := Forecast(series, 1)
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.Equal(t, 2020, p.Year)
	assert.Equal(t, "high", p.Confidence)

	// Two points fit exactly: slope 2 m/yr, zero residual error.
	assert.InDelta(t, 14.0, p.GroundwaterLevel.Value, 1e-9)
	assert.InDelta(t, 14.0, p.GroundwaterLevel.Lower, 1e-9)
	assert.InDelta(t, 14.0, p.GroundwaterLevel.Upper, 1e-9)

	assert.InDelta(t, 760.0, p.Rainfall.Value, 1e-9)
	assert.InDelta(t, 4.0, p.DepletionRate.Value, 1e-9)
}

func TestForecastInsufficientHistory(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, err := Forecast(nil, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("single year", func(t *testing.T) {
		_, err := Forecast([]Observation{observationAt(2022, 9, 850, 3)}, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})
}

func TestForecastHorizon(t *testing.T) {
	series := []Observation{
		observationAt(2019, 9.0, 860, 2.8),
		observationAt(2020, 9.6, 845, 3.1),
		observationAt(2021, 10.1, 812, 3.2),
		observationAt(2022, 10.9, 790, 3.6),
	}

	t.Run("default horizon when below one", func(t *testing.T) {
		predictions, err := Forecast(series, 0)
		require.NoError(t, err)
		assert.Len(t, predictions, DefaultForecastYears)
	})

	t.Run("confidence labels by step", func(t *testing.T) {
		predictions, err := Forecast(series, 4)
		require.NoError(t, err)
		require.Len(t, predictions, 4)

		assert.Equal(t, "high", predictions[0].Confidence)
		assert.Equal(t, "medium", predictions[1].Confidence)
		assert.Equal(t, "low", predictions[2].Confidence)
		assert.Equal(t, "low", predictions[3].Confidence)
	})

	t.Run("intervals widen with the horizon", func(t *testing.T) {
		predictions, err := Forecast(series, 3)
		require.NoError(t, err)

		prevWidth := -1.0
		for _, p := range predictions {
			width := p.GroundwaterLevel.Upper - p.GroundwaterLevel.Lower
			assert.Greater(t, width, prevWidth, "year %d", p.Year)
			prevWidth = width
		}
	})

	t.Run("predicted years follow the last observed year", func(t *testing.T) {
		predictions, err := Forecast(series, 3)
		require.NoError(t, err)
		for i, p := range predictions {
			assert.Equal(t, 2023+i, p.Year)
		}
	})
}

func TestForecastLowerBoundFloor(t *testing.T) {
	// A noisy series near zero forces the lower band below zero before flooring.
	series := []Observation{
		observationAt(2018, 4, 900, 2.5),
		observationAt(2019, 4, 700, 0.6),
		observationAt(2020, 4, 950, 2.2),
		observationAt(2021, 4, 650, 0.5),
	}

	predictions, err := Forecast(series, 3)
	require.NoError(t, err)

	for _, p := range predictions {
		assert.GreaterOrEqual(t, p.DepletionRate.Lower, 0.0, "year %d", p.Year)
		assert.GreaterOrEqual(t, p.Rainfall.Lower, 0.0, "year %d", p.Year)
		assert.GreaterOrEqual(t, p.GroundwaterLevel.Lower, 0.0, "year %d", p.Year)
	}
}

func TestFitLine(t *testing.T) {
	t.Run("perfect line", func(t *testing.T) {
		f := fitLine([]float64{1, 2, 3}, []float64{2, 4, 6})
		assert.InDelta(t, 2.0, f.slope, 1e-9)
		assert.InDelta(t, 0.0, f.intercept, 1e-9)
		assert.InDelta(t, 0.0, f.residualStdErr, 1e-9)
	})

	t.Run("single point pins the intercept", func(t *testing.T) {
		f := fitLine([]float64{2020}, []float64{8.5})
		assert.Equal(t, 0.0, f.slope)
		assert.Equal(t, 8.5, f.intercept)
	})

	t.Run("no points", func(t *testing.T) {
		f := fitLine(nil, nil)
		assert.Equal(t, 0.0, f.slope)
		assert.Equal(t, 0.0, f.intercept)
	})

	t.Run("two points have zero residual error", func(t *testing.T) {
		f := fitLine([]float64{2018, 2019}, []float64{10, 12})
		assert.InDelta(t, 2.0, f.slope, 1e-9)
		assert.Equal(t, 0.0, f.residualStdErr)
	})
}

func TestConfidenceMultiplier(t *testing.T) {
	// Grows with the step, shrinks with the sample size.
	assert.Greater(t, confidenceMultiplier(4, 2), confidenceMultiplier(4, 1))
	assert.Greater(t, confidenceMultiplier(3, 1), confidenceMultiplier(30, 1))
	assert.Greater(t, confidenceMultiplier(5, 1), 1.96)
}
