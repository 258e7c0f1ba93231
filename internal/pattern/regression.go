package pattern

import "github.com/rxtech-lab/argo-chart/pkg/errors"

// LinearFit is an ordinary least squares line y = Slope*x + Intercept.
type LinearFit struct {
	Slope     float64
	Intercept float64
	// RSquared is 1 - SSres/SStot. A perfect fit of constant y reports 1.
	RSquared float64
	// ConstantY is set when every y is identical.
	ConstantY bool
}

// At evaluates the line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// Fit regresses ys on xs. Fewer than two points or identical xs are degenerate.
func Fit(xs, ys []float64) (LinearFit, error) {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return LinearFit{}, errors.Newf(errors.ErrCodeNumericDegeneracy, "regression needs at least 2 paired points, got %d", n)
	}

	meanX, meanY := mean(xs), mean(ys)

	sxx, sxy := 0.0, 0.0
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}

	if sxx == 0 {
		return LinearFit{}, errors.New(errors.ErrCodeNumericDegeneracy, "regression over identical x values")
	}

	slope := sxy / sxx
	fit := LinearFit{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		RSquared:  0,
		ConstantY: false,
	}
	fit.RSquared, fit.ConstantY = rSquared(xs, ys, fit.Slope, fit.Intercept)

	return fit, nil
}

// FitWithSlope keeps a fixed slope and fits only the intercept.
func FitWithSlope(xs, ys []float64, slope float64) (LinearFit, error) {
	if len(xs) < 2 || len(ys) != len(xs) {
		return LinearFit{}, errors.Newf(errors.ErrCodeNumericDegeneracy, "regression needs at least 2 paired points, got %d", len(xs))
	}

	fit := LinearFit{
		Slope:     slope,
		Intercept: mean(ys) - slope*mean(xs),
		RSquared:  0,
		ConstantY: false,
	}
	fit.RSquared, fit.ConstantY = rSquared(xs, ys, fit.Slope, fit.Intercept)

	return fit, nil
}

func rSquared(xs, ys []float64, slope, intercept float64) (float64, bool) {
	meanY := mean(ys)

	ssRes, ssTot := 0.0, 0.0
	for i := range xs {
		r := ys[i] - (slope*xs[i] + intercept)
		ssRes += r * r
		d := ys[i] - meanY
		ssTot += d * d
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1, true
		}

		return 0, true
	}

	return 1 - ssRes/ssTot, false
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
