package domain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultForecastYears is the horizon used when the caller does not supply one.
const DefaultForecastYears = 3

// ErrInsufficientHistory reports that a location has too few historical
// years to fit a regression. Forecasting never silently degrades.
var ErrInsufficientHistory = errors.New("insufficient history: need at least 2 years of observations")

// PredictionInterval is a point estimate with its confidence bounds.
type PredictionInterval struct {
	Value float64 `json:"value"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Prediction is one forecast year across the three regressed metrics. The
// Confidence label is a coarse horizon tag (high/medium/low), independent
// of the actual interval width.
type Prediction struct {
	Year             int                `json:"year"`
	GroundwaterLevel PredictionInterval `json:"groundwater_level"`
	Rainfall         PredictionInterval `json:"rainfall"`
	DepletionRate    PredictionInterval `json:"depletion_rate"`
	Confidence       string             `json:"confidence"`
}

// Forecast fits an ordinary least-squares line per metric over (year, value)
// pairs of an ascending series and extrapolates yearsAhead steps past the
// last observed year. Intervals are point ± residualStdErr·multiplier with
//
//	multiplier(i) = 1.96·sqrt(1 + 1/n + i²/(3n))
//
// so they widen with the horizon; lower bounds are floored at 0. A horizon
// below 1 falls back to DefaultForecastYears. Series with fewer than two
// years return ErrInsufficientHistory.
func Forecast(series []Observation, yearsAhead int) ([]Prediction, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("forecast over %d year(s): %w", n, ErrInsufficientHistory)
	}
	if yearsAhead < 1 {
		yearsAhead = DefaultForecastYears
	}

	years := make([]float64, n)
	levels := make([]float64, n)
	rainfalls := make([]float64, n)
	depletions := make([]float64, n)
	for i, obs := range series {
		years[i] = float64(obs.Year)
		levels[i] = obs.GroundwaterLevel
		rainfalls[i] = obs.Rainfall
		depletions[i] = obs.DepletionRate
	}

	levelFit := fitLine(years, levels)
	rainFit := fitLine(years, rainfalls)
	depletionFit := fitLine(years, depletions)

	lastYear := series[n-1].Year
	predictions := make([]Prediction, 0, yearsAhead)
	for i := 1; i <= yearsAhead; i++ {
		year := lastYear + i
		mult := confidenceMultiplier(n, i)
		predictions = append(predictions, Prediction{
			Year:             year,
			GroundwaterLevel: interval(levelFit, year, mult, round2),
			Rainfall:         interval(rainFit, year, mult, round1),
			DepletionRate:    interval(depletionFit, year, mult, round2),
			Confidence:       confidenceLabel(i),
		})
	}
	return predictions, nil
}

// fit is an OLS line with the residual standard error of its sample.
type fit struct {
	slope, intercept, residualStdErr float64
}

// fitLine computes slope and intercept by least squares. Fewer than two
// points give slope 0 (a single point pins the intercept to its value);
// residual standard error is sqrt(SSE/(n−2)) and defined 0 below n=3.
func fitLine(xs, ys []float64) fit {
	n := float64(len(xs))
	if len(xs) == 0 {
		return fit{}
	}
	if len(xs) == 1 {
		return fit{intercept: ys[0]}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return fit{intercept: sumY / n}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	var sse float64
	for i := range xs {
		r := ys[i] - (slope*xs[i] + intercept)
		sse += r * r
	}
	var rse float64
	if len(xs) >= 3 {
		rse = math.Sqrt(sse / (n - 2))
	}

	return fit{slope: slope, intercept: intercept, residualStdErr: rse}
}

// confidenceMultiplier widens the 95% band with horizon step i for sample
// size n: 1.96·sqrt(1 + 1/n + i²/(3n)).
func confidenceMultiplier(n, i int) float64 {
	fn := float64(n)
	fi := float64(i)
	return 1.96 * math.Sqrt(1+1/fn+fi*fi/(3*fn))
}

// interval extrapolates the fit to year and builds the bounded estimate,
// flooring the lower bound at 0 and rounding with the metric's precision.
func interval(f fit, year int, multiplier float64, round func(float64) float64) PredictionInterval {
	point := f.slope*float64(year) + f.intercept
	margin := f.residualStdErr * multiplier
	lower := point - margin
	if lower < 0 {
		lower = 0
	}
	return PredictionInterval{
		Value: round(point),
		Lower: round(lower),
		Upper: round(point + margin),
	}
}

// confidenceLabel tags horizon steps: 1 high, 2 medium, beyond low.
func confidenceLabel(step int) string {
	switch {
	case step <= 1:
		return "high"
	case step <= 2:
		return "medium"
	default:
		return "low"
	}
}
