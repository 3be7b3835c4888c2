// Package smooth provides the ACF smoothing filters applied before peak finding.
package smooth

import (
	"fmt"
	"math"

	"github.com/huangsam/acfperiod/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Smoother filters a sequence without changing its length.
type Smoother interface {
	Smooth(values []float64, windowSize int) ([]float64, error)
	Name() string
}

// New builds the smoother for a strategy. Recognized params are
// "fwhm" for gaussian and "order" (or "polyorder") for polynomial.
func New(strategy schema.SmoothingStrategy, params map[string]float64) (Smoother, error) {
	for key := range params {
		if _, ok := schema.ValidSmoothingParams[key]; !ok {
			return nil, fmt.Errorf("%w: unknown smoothing parameter %q", schema.ErrInvalidConfig, key)
		}
	}
	switch strategy {
	case schema.GaussianSmoothing:
		g := Gaussian{FWHM: schema.DefaultGaussianFWHM}
		if v, ok := params["fwhm"]; ok {
			g.FWHM = v
		}
		if !(g.FWHM > 0) || math.IsInf(g.FWHM, 0) {
			return nil, fmt.Errorf("%w: gaussian fwhm must be positive, got %v", schema.ErrInvalidConfig, g.FWHM)
		}
		return g, nil
	case schema.PolynomialSmoothing, "":
		p := Polynomial{Order: schema.DefaultPolynomialOrder}
		for _, key := range []string{"order", "polyorder"} {
			if v, ok := params[key]; ok {
				if v != math.Trunc(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("%w: polynomial %s must be an integer, got %v", schema.ErrInvalidConfig, key, v)
				}
				p.Order = int(v)
			}
		}
		if p.Order < 0 {
			return nil, fmt.Errorf("%w: polynomial order must be non-negative, got %d", schema.ErrInvalidConfig, p.Order)
		}
		return p, nil
	case schema.NoSmoothing:
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown smoothing strategy %q", schema.ErrInvalidConfig, strategy)
	}
}

// Identity returns its input unchanged.
type Identity struct{}

// Name implements Smoother.
func (Identity) Name() string { return string(schema.NoSmoothing) }

// Smooth implements Smoother. Any window is accepted.
func (Identity) Smooth(values []float64, _ int) ([]float64, error) {
	return append([]float64(nil), values...), nil
}

// Gaussian convolves with a normalized Gaussian kernel of windowSize taps.
// Samples beyond either end take the value of the nearest edge.
type Gaussian struct {
	FWHM float64
}

// Name implements Smoother.
func (Gaussian) Name() string { return string(schema.GaussianSmoothing) }

// Sigma returns the kernel standard deviation in samples.
func (g Gaussian) Sigma() float64 {
	return g.FWHM / (2 * math.Sqrt(2*math.Ln2))
}

// Kernel returns the normalized filter taps for a window.
func (g Gaussian) Kernel(windowSize int) ([]float64, error) {
	if err := checkWindow(windowSize); err != nil {
		return nil, err
	}
	sigma := g.Sigma()
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: gaussian fwhm must be positive, got %v", schema.ErrInvalidConfig, g.FWHM)
	}
	half := windowSize / 2
	kernel := make([]float64, windowSize)
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel, nil
}

// Smooth implements Smoother.
func (g Gaussian) Smooth(values []float64, windowSize int) ([]float64, error) {
	kernel, err := g.Kernel(windowSize)
	if err != nil {
		return nil, err
	}
	n := len(values)
	half := windowSize / 2
	out := make([]float64, n)
	for i := range out {
		var sum float64
		for j, w := range kernel {
			idx := min(max(i+j-half, 0), n-1)
			sum += w * values[idx]
		}
		out[i] = sum
	}
	return out, nil
}

// Polynomial is a Savitzky-Golay filter of the given order. The first and
// last half-window are evaluated from a polynomial fitted to the first and
// last full window.
type Polynomial struct {
	Order int
}

// Name implements Smoother.
func (Polynomial) Name() string { return string(schema.PolynomialSmoothing) }

// Smooth implements Smoother.
func (p Polynomial) Smooth(values []float64, windowSize int) ([]float64, error) {
	if err := checkWindow(windowSize); err != nil {
		return nil, err
	}
	if p.Order < 0 || p.Order >= windowSize {
		return nil, fmt.Errorf("%w: polynomial order %d must be below window %d", schema.ErrInvalidWindow, p.Order, windowSize)
	}
	n := len(values)
	if n < windowSize {
		return nil, fmt.Errorf("%w: window %d longer than sequence of %d", schema.ErrInvalidWindow, windowSize, n)
	}

	proj, err := p.projection(windowSize)
	if err != nil {
		return nil, err
	}
	half := windowSize / 2
	center := proj.RawRowView(0)

	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		out[i] = floats.Dot(center, values[i-half:i+half+1])
	}

	head := fitWindow(proj, values[:windowSize])
	for i := range half {
		out[i] = evalPoly(head, float64(i-half))
	}
	tail := fitWindow(proj, values[n-windowSize:])
	for i := n - half; i < n; i++ {
		out[i] = evalPoly(tail, float64(i-(n-1-half)))
	}
	return out, nil
}

// Coefficients returns the convolution taps for the window center.
func (p Polynomial) Coefficients(windowSize int) ([]float64, error) {
	if err := checkWindow(windowSize); err != nil {
		return nil, err
	}
	if p.Order < 0 || p.Order >= windowSize {
		return nil, fmt.Errorf("%w: polynomial order %d must be below window %d", schema.ErrInvalidWindow, p.Order, windowSize)
	}
	proj, err := p.projection(windowSize)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), proj.RawRowView(0)...), nil
}

// projection returns (AᵀA)⁻¹Aᵀ for the Vandermonde matrix A of the window
// offsets -h..h. Row j maps window samples to the j-th polynomial coefficient.
func (p Polynomial) projection(windowSize int) (*mat.Dense, error) {
	half := windowSize / 2
	cols := p.Order + 1
	a := mat.NewDense(windowSize, cols, nil)
	for i := range windowSize {
		x := float64(i - half)
		v := 1.0
		for j := range cols {
			a.Set(i, j, v)
			v *= x
		}
	}
	var ata, inv, proj mat.Dense
	ata.Mul(a.T(), a)
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("%w: savitzky-golay design matrix: %v", schema.ErrInvalidWindow, err)
	}
	proj.Mul(&inv, a.T())
	return &proj, nil
}

func fitWindow(proj *mat.Dense, window []float64) []float64 {
	var coef mat.VecDense
	coef.MulVec(proj, mat.NewVecDense(len(window), append([]float64(nil), window...)))
	return coef.RawVector().Data
}

func evalPoly(coef []float64, x float64) float64 {
	var y float64
	for j := len(coef) - 1; j >= 0; j-- {
		y = y*x + coef[j]
	}
	return y
}

func checkWindow(windowSize int) error {
	if windowSize < 3 || windowSize%2 == 0 {
		return fmt.Errorf("%w: window must be odd and at least 3, got %d", schema.ErrInvalidWindow, windowSize)
	}
	return nil
}
