package optimization

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/goaleval/internal/domain"
)

// Estimation method names
const (
	MethodLedoitWolf = "ledoit_wolf"
	MethodSample     = "sample"
)

// Covariance is an estimated covariance matrix of monthly returns.
// Element (i,j) is the covariance between Tickers[i] and Tickers[j].
type Covariance struct {
	Matrix    [][]float64
	Tickers   []string
	Method    string
	Shrinkage float64
}

// Estimator produces a covariance matrix from a T×N observation matrix
// (rows are periods, columns are tickers).
type Estimator struct {
	Name     string
	Estimate func(x *mat.Dense) (*mat.SymDense, float64, error)
}

// DefaultEstimators is the fallback order: shrinkage first, then the plain sample estimate
var DefaultEstimators = []Estimator{
	{Name: MethodLedoitWolf, Estimate: ledoitWolf},
	{Name: MethodSample, Estimate: sampleCovariance},
}

// EstimateCovariance runs DefaultEstimators over the return matrix
func EstimateCovariance(m *domain.ReturnMatrix) (Covariance, error) {
	return EstimateCovarianceWith(m, DefaultEstimators)
}

// EstimateCovarianceWith tries each estimator in order and returns the first success
func EstimateCovarianceWith(m *domain.ReturnMatrix, estimators []Estimator) (Covariance, error) {
	if m.Rows() < 2 {
		return Covariance{}, fmt.Errorf("%w: need at least 2 observations, got %d", domain.ErrInsufficientData, m.Rows())
	}
	if len(m.Tickers) == 0 {
		return Covariance{}, fmt.Errorf("%w: no tickers", domain.ErrInsufficientData)
	}

	x := mat.NewDense(m.Rows(), len(m.Tickers), nil)
	for i, row := range m.Returns {
		x.SetRow(i, row)
	}

	var errs []error
	for _, est := range estimators {
		sym, shrinkage, err := est.Estimate(x)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", est.Name, err))
			continue
		}
		return Covariance{
			Matrix:    toSlices(sym),
			Tickers:   append([]string(nil), m.Tickers...),
			Method:    est.Name,
			Shrinkage: shrinkage,
		}, nil
	}
	return Covariance{}, fmt.Errorf("all covariance estimators failed: %w", errors.Join(errs...))
}

// PortfolioVolatility returns the annualised volatility sqrt(12 · wᵀΣw)
func (c Covariance) PortfolioVolatility(weights []float64) (float64, error) {
	n := len(c.Matrix)
	if len(weights) != n {
		return 0, fmt.Errorf("weights length %d does not match covariance dimension %d", len(weights), n)
	}
	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * c.Matrix[i][j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * 12), nil
}

// sampleCovariance is the unbiased (N-1) sample estimate
func sampleCovariance(x *mat.Dense) (*mat.SymDense, float64, error) {
	_, n := x.Dims()
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, x, nil)
	if err := checkFinite(cov); err != nil {
		return nil, 0, err
	}
	return cov, 0, nil
}

// ledoitWolf shrinks the sample covariance towards a constant-correlation
// target with the optimal intensity from Ledoit & Wolf (2004), "Honey, I
// Shrunk the Sample Covariance Matrix".
func ledoitWolf(x *mat.Dense) (*mat.SymDense, float64, error) {
	t, n := x.Dims()
	if n < 2 {
		return nil, 0, errors.New("constant-correlation target needs at least 2 assets")
	}
	tf := float64(t)

	// Demeaned observations
	y := mat.NewDense(t, n, nil)
	for j := 0; j < n; j++ {
		col := mat.Col(nil, j, x)
		mean := stat.Mean(col, nil)
		for i := range col {
			y.Set(i, j, col[i]-mean)
		}
	}

	// Maximum-likelihood sample covariance (1/T)
	s := mat.NewDense(n, n, nil)
	s.Mul(y.T(), y)
	s.Scale(1/tf, s)

	sd := make([]float64, n)
	for i := 0; i < n; i++ {
		if s.At(i, i) <= 0 {
			return nil, 0, fmt.Errorf("zero variance for column %d", i)
		}
		sd[i] = math.Sqrt(s.At(i, i))
	}

	var rbar float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				rbar += s.At(i, j) / (sd[i] * sd[j])
			}
		}
	}
	rbar /= float64(n * (n - 1))

	target := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				target.Set(i, j, s.At(i, i))
			} else {
				target.Set(i, j, rbar*sd[i]*sd[j])
			}
		}
	}

	// pi: asymptotic variance of the sample covariance entries
	// theta[k][i][j]: covariance of y_k² with y_i·y_j
	var pi, rhoOff float64
	piDiag := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var pij, thetaII, thetaJJ float64
			for r := 0; r < t; r++ {
				yi, yj := y.At(r, i), y.At(r, j)
				p := yi*yj - s.At(i, j)
				pij += p * p
				if i != j {
					thetaII += (yi*yi - s.At(i, i)) * p
					thetaJJ += (yj*yj - s.At(j, j)) * p
				}
			}
			pij /= tf
			pi += pij
			if i == j {
				piDiag += pij
				continue
			}
			thetaII /= tf
			thetaJJ /= tf
			rhoOff += rbar / 2 * (sd[j]/sd[i]*thetaII + sd[i]/sd[j]*thetaJJ)
		}
	}
	rho := piDiag + rhoOff

	var gamma float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := target.At(i, j) - s.At(i, j)
			gamma += d * d
		}
	}

	shrinkage := 0.0
	if gamma > 0 {
		kappa := (pi - rho) / gamma
		shrinkage = math.Max(0, math.Min(1, kappa/tf))
	}

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, shrinkage*target.At(i, j)+(1-shrinkage)*s.At(i, j))
		}
	}
	if err := checkFinite(out); err != nil {
		return nil, 0, err
	}
	return out, shrinkage, nil
}

func checkFinite(m *mat.SymDense) error {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite covariance at (%d,%d)", i, j)
			}
		}
	}
	return nil
}

func toSlices(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
