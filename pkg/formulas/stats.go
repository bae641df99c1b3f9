// Package formulas provides the statistical helpers used by the simulator and scorer.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MonthsPerYear is the annualisation factor for monthly series
const MonthsPerYear = 12

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (N-1 denominator)
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility converts the std dev of monthly returns to an annual figure
// Formula: StdDev(monthly) × sqrt(12)
func AnnualizedVolatility(monthlyReturns []float64) float64 {
	return StdDev(monthlyReturns) * math.Sqrt(MonthsPerYear)
}

// AnnualizedReturn compounds the mean monthly return over a year
// Formula: (1 + mean)^12 - 1
func AnnualizedReturn(monthlyReturns []float64) float64 {
	if len(monthlyReturns) == 0 {
		return 0
	}
	return math.Pow(1+Mean(monthlyReturns), MonthsPerYear) - 1
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// WeightedSeries returns, for each row, the weighted sum of its columns
func WeightedSeries(rows [][]float64, weights []float64) []float64 {
	series := make([]float64, len(rows))
	for i, row := range rows {
		series[i] = floats.Dot(row, weights)
	}
	return series
}

// HerfindahlEffectiveN returns 1 / Σ w², the effective number of holdings
func HerfindahlEffectiveN(weights []float64) float64 {
	sumSq := floats.Dot(weights, weights)
	if sumSq == 0 {
		return 0
	}
	return 1 / sumSq
}

// Percentiles returns the requested percentiles (0-100) of data using linear
// interpolation between closest ranks, the same convention as numpy's default.
func Percentiles(data []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(data) == 0 {
		return out
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	last := float64(len(sorted) - 1)
	for i, p := range ps {
		rank := math.Min(math.Max(p, 0), 100) / 100 * last
		lo := math.Floor(rank)
		hi := math.Ceil(rank)
		frac := rank - lo
		out[i] = sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*frac
	}
	return out
}

// FractionAtOrAbove returns the share (0-1) of values >= threshold
func FractionAtOrAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v >= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
