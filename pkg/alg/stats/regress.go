package stats

import "math"

// LinearFit is the result of an ordinary least squares fit y = Slope·x + Intercept.
type LinearFit struct {
	Slope     float64 `json:"slope"     yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	RSquared  float64 `json:"rSquared"  yaml:"r_squared"`
}

// At evaluates the fitted line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// FitLinear fits y = a·x + b by ordinary least squares and computes R².
// Fewer than two points, or points with zero x-variance, yield a flat fit
// through the mean with R² 0. When the total sum of squares is zero (all y
// equal) R² is 0 by convention.
func FitLinear(xs, ys []float64) LinearFit {
	n := min(len(xs), len(ys))
	if n == 0 {
		return LinearFit{}
	}

	meanX := Mean(xs[:n])
	meanY := Mean(ys[:n])

	var sxx, sxy float64

	for i := range n {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}

	if sxx == 0 {
		return LinearFit{Intercept: meanY}
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssRes, ssTot float64

	for i := range n {
		predicted := slope*xs[i] + intercept
		ssRes += (ys[i] - predicted) * (ys[i] - predicted)
		ssTot += (ys[i] - meanY) * (ys[i] - meanY)
	}

	var rSquared float64
	if ssTot > 0 {
		rSquared = Clamp(1-ssRes/ssTot, 0, 1)
	}

	return LinearFit{Slope: slope, Intercept: intercept, RSquared: rSquared}
}

// Pearson returns the Pearson correlation coefficient of the paired samples.
// Returns 0 when either sample has zero variance or fewer than two points.
func Pearson(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0
	}

	meanX := Mean(xs[:n])
	meanY := Mean(ys[:n])

	var sxx, syy, sxy float64

	for i := range n {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	if sxx == 0 || syy == 0 {
		return 0
	}

	return sxy / (math.Sqrt(sxx) * math.Sqrt(syy))
}
