package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"oraclesim/domain/oracle"
)

// Describe summarizes a Monte Carlo sample: location, spread, tails and shape.
// An empty sample is an error; a constant sample has zero skewness and kurtosis.
func Describe(data []float64) (oracle.Summary, error) {
	var s oracle.Summary
	sample := stats.Float64Data(data)

	mean, err := sample.Mean()
	if err != nil {
		return s, err
	}
	stdDev, err := sample.StandardDeviation()
	if err != nil {
		return s, err
	}
	min, err := sample.Min()
	if err != nil {
		return s, err
	}
	max, err := sample.Max()
	if err != nil {
		return s, err
	}
	median, err := sample.Median()
	if err != nil {
		return s, err
	}

	// Nearest rank keeps tiny samples defined
	p5, err := stats.PercentileNearestRank(sample, 5)
	if err != nil {
		return s, err
	}
	p95, err := stats.PercentileNearestRank(sample, 95)
	if err != nil {
		return s, err
	}

	s.Mean = mean
	s.StdDev = stdDev
	s.Min = min
	s.Max = max
	s.Median = median
	s.P5 = p5
	s.P95 = p95
	s.Skewness = calculateSkewness(data, mean, stdDev)
	s.Kurtosis = calculateKurtosis(data, mean, stdDev)
	return s, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes bias-corrected sample excess kurtosis
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	g2 := sumFourthDeviations/n - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}
