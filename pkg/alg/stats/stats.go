// Package stats provides the statistical primitives used by temporal
// analysis: means, population standard deviation, variance, and ordinary
// least squares regression with goodness-of-fit measures.
package stats

import (
	"cmp"
	"math"
)

// Mean returns the arithmetic mean of values.
// Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// MeanStdDev returns the arithmetic mean and population standard deviation.
// Returns (0, 0) for an empty slice.
func MeanStdDev(values []float64) (mean, stddev float64) {
	count := len(values)
	if count == 0 {
		return 0, 0
	}

	mean = Mean(values)

	var sumSq float64

	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}

	return mean, math.Sqrt(sumSq / float64(count))
}

// Variance returns the population variance of values.
// Returns 0 for an empty slice.
func Variance(values []float64) float64 {
	_, stddev := MeanStdDev(values)

	return stddev * stddev
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean, stddev := MeanStdDev(values)
	if mean == 0 {
		return 0
	}

	return stddev / mean
}

// Clamp restricts val to the range [lo, hi].
func Clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}

// Sum returns the sum of all elements in values.
// Returns the zero value of T for an empty slice.
func Sum[T cmp.Ordered](values []T) T {
	var result T

	for _, v := range values {
		result += v
	}

	return result
}
