package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestMean(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), tolerance)
	assert.InDelta(t, 0, Mean(nil), tolerance)
}

func TestMeanStdDev(t *testing.T) {
	t.Parallel()

	mean, stddev := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, tolerance)
	assert.InDelta(t, 2.0, stddev, tolerance)
}

func TestCoefficientOfVariation(t *testing.T) {
	t.Parallel()

	// Identical values have zero spread.
	assert.InDelta(t, 0, CoefficientOfVariation([]float64{5, 5, 5}), tolerance)

	cv := CoefficientOfVariation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 0.4, cv, tolerance)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, Clamp(0.5, 0.0, 1.0), tolerance)
	assert.InDelta(t, 0.0, Clamp(-3.0, 0.0, 1.0), tolerance)
	assert.InDelta(t, 1.0, Clamp(7.0, 0.0, 1.0), tolerance)
	assert.Equal(t, 3, Clamp(9, 1, 3))
}

func TestFitLinearExactLine(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{1, 3, 5, 7, 9}

	fit := FitLinear(xs, ys)
	assert.InDelta(t, 2.0, fit.Slope, tolerance)
	assert.InDelta(t, 1.0, fit.Intercept, tolerance)
	assert.InDelta(t, 1.0, fit.RSquared, tolerance)
	assert.InDelta(t, 11.0, fit.At(5), tolerance)
}

func TestFitLinearLeastSquaresResiduals(t *testing.T) {
	t.Parallel()

	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 2, 1, 3}

	fit := FitLinear(xs, ys)

	// OLS normal equations: residuals are orthogonal to the regressors.
	var sumResid, sumResidX float64

	for i, x := range xs {
		resid := ys[i] - fit.At(x)
		sumResid += resid
		sumResidX += resid * x
	}

	assert.InDelta(t, 0, sumResid, tolerance)
	assert.InDelta(t, 0, sumResidX, tolerance)

	require.GreaterOrEqual(t, fit.RSquared, 0.0)
	require.LessOrEqual(t, fit.RSquared, 1.0)
}

func TestFitLinearDegenerateInputs(t *testing.T) {
	t.Parallel()

	// Fewer than two points: flat fit through the mean, R² 0.
	fit := FitLinear([]float64{1}, []float64{4})
	assert.InDelta(t, 0, fit.Slope, tolerance)
	assert.InDelta(t, 4, fit.Intercept, tolerance)
	assert.InDelta(t, 0, fit.RSquared, tolerance)

	// Zero x-variance behaves the same.
	fit = FitLinear([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.InDelta(t, 0, fit.Slope, tolerance)
	assert.InDelta(t, 2, fit.Intercept, tolerance)

	// All y equal: ssTotal is zero, R² 0 by convention.
	fit = FitLinear([]float64{0, 1, 2}, []float64{5, 5, 5})
	assert.InDelta(t, 0, fit.RSquared, tolerance)
}

func TestPearson(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{10, 20, 30}), tolerance)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), tolerance)
	assert.InDelta(t, 0, Pearson([]float64{1, 2, 3}, []float64{7, 7, 7}), tolerance)
}
