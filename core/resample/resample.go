// Package resample puts irregular light curves on a uniform, gap-free time grid.
package resample

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/huangsam/acfperiod/schema"
)

// MaxGridPoints caps the number of cadence bins a series may expand into.
const MaxGridPoints = 5_000_000

// madScale converts a median absolute deviation into a Gaussian sigma.
const madScale = 1.483

// Resampler is the default binning resampler.
type Resampler struct{}

// New returns the default resampler.
func New() *Resampler {
	return &Resampler{}
}

type sample struct {
	t, v float64
}

// Resample drops non-finite samples, sigma-clips and normalizes the values,
// bins them onto a uniform grid and fills the empty bins per opts.FillPolicy.
func (r *Resampler) Resample(series schema.TimeSeries, opts schema.ResampleOptions) (schema.GapFilledSeries, error) {
	if err := series.Validate(); err != nil {
		return schema.GapFilledSeries{}, fmt.Errorf("%w: %v", schema.ErrResamplingFailed, err)
	}

	samples := make([]sample, 0, series.Len())
	for i, t := range series.Times {
		v := series.Values[i]
		if !schema.IsFinite(t) || !schema.IsFinite(v) || !schema.IsFinite(series.ErrorAt(i)) {
			continue
		}
		samples = append(samples, sample{t: t, v: v})
	}
	slices.SortStableFunc(samples, func(a, b sample) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		}
		return 0
	})
	if len(samples) < 2 {
		return schema.GapFilledSeries{}, fmt.Errorf("%w: %d usable samples", schema.ErrResamplingFailed, len(samples))
	}

	samples = sigmaClip(samples, opts.SigmaClip)
	if len(samples) < 2 {
		return schema.GapFilledSeries{}, fmt.Errorf("%w: %d samples left after sigma clipping", schema.ErrResamplingFailed, len(samples))
	}

	if err := normalize(samples, opts.ValuesAreFluxes); err != nil {
		return schema.GapFilledSeries{}, err
	}

	cadence, err := cadenceOf(samples, opts.ForcedCadence)
	if err != nil {
		return schema.GapFilledSeries{}, err
	}

	t0 := samples[0].t
	span := (samples[len(samples)-1].t - t0) / cadence
	if !schema.IsFinite(span) || span+1 > MaxGridPoints {
		return schema.GapFilledSeries{}, fmt.Errorf("%w: grid of %.0f bins exceeds %d", schema.ErrResamplingFailed, span+1, MaxGridPoints)
	}
	nbins := int(math.Round(span)) + 1

	sums := make([]float64, nbins)
	counts := make([]int, nbins)
	for _, s := range samples {
		k := min(int(math.Round((s.t-t0)/cadence)), nbins-1)
		sums[k] += s.v
		counts[k]++
	}

	out := schema.GapFilledSeries{
		Times:   make([]float64, nbins),
		Values:  make([]float64, nbins),
		Cadence: cadence,
	}
	observed := make([]bool, nbins)
	for k := range nbins {
		out.Times[k] = t0 + float64(k)*cadence
		if counts[k] > 0 {
			out.Values[k] = sums[k] / float64(counts[k])
			observed[k] = true
		}
	}

	switch opts.FillPolicy {
	case schema.ConstantFill, "":
		fillConstant(out.Values, observed, opts.FillValue)
	case schema.LinearFill:
		fillLinear(out.Values, observed)
	case schema.NoiseFill:
		fillNoise(out.Values, observed, opts.FilterWindow, len(samples))
	default:
		return schema.GapFilledSeries{}, fmt.Errorf("%w: unknown gap fill policy %q", schema.ErrResamplingFailed, opts.FillPolicy)
	}
	return out, nil
}

// cadenceOf returns forced when positive, else the median positive time step.
func cadenceOf(samples []sample, forced float64) (float64, error) {
	if forced > 0 {
		if !schema.IsFinite(forced) {
			return 0, fmt.Errorf("%w: forced cadence %v", schema.ErrResamplingFailed, forced)
		}
		return forced, nil
	}
	diffs := make([]float64, 0, len(samples))
	for i := 1; i < len(samples); i++ {
		if d := samples[i].t - samples[i-1].t; d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return 0, fmt.Errorf("%w: all samples share one timestamp", schema.ErrResamplingFailed)
	}
	c := median(diffs)
	if !(c > 0) || !schema.IsFinite(c) {
		return 0, fmt.Errorf("%w: cadence %v", schema.ErrResamplingFailed, c)
	}
	return c, nil
}

func sigmaClip(samples []sample, threshold float64) []sample {
	if threshold <= 0 {
		return samples
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.v
	}
	center := median(values)
	sigma := madScale * mad(values, center)
	if sigma == 0 {
		return samples
	}
	kept := samples[:0:0]
	for _, s := range samples {
		if math.Abs(s.v-center) <= threshold*sigma {
			kept = append(kept, s)
		}
	}
	return kept
}

func normalize(samples []sample, fluxes bool) error {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.v
	}
	center := median(values)
	if fluxes && center == 0 {
		return fmt.Errorf("%w: median flux is zero", schema.ErrResamplingFailed)
	}
	for i := range samples {
		if fluxes {
			samples[i].v = samples[i].v/center - 1
		} else {
			samples[i].v -= center
		}
	}
	return nil
}

func fillConstant(values []float64, observed []bool, fill float64) {
	for k, ok := range observed {
		if !ok {
			values[k] = fill
		}
	}
}

func fillLinear(values []float64, observed []bool) {
	prev := -1
	for k := range values {
		if !observed[k] {
			continue
		}
		if prev >= 0 && k-prev > 1 {
			step := (values[k] - values[prev]) / float64(k-prev)
			for j := prev + 1; j < k; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		} else if prev < 0 {
			for j := range k {
				values[j] = values[k]
			}
		}
		prev = k
	}
	if prev >= 0 {
		for j := prev + 1; j < len(values); j++ {
			values[j] = values[prev]
		}
	}
}

// fillNoise fills gaps with Gaussian noise whose sigma is the robust scatter
// of the observed bins around their running median. The generator is seeded
// from the input so a given series always fills the same way.
func fillNoise(values []float64, observed []bool, window, nsamples int) {
	var obs []float64
	for k, ok := range observed {
		if ok {
			obs = append(obs, values[k])
		}
	}
	smooth := RunningMedian(obs, window)
	resid := make([]float64, len(obs))
	for i := range obs {
		resid[i] = obs[i] - smooth[i]
	}
	sigma := madScale * mad(resid, median(resid))

	rng := rand.New(rand.NewPCG(uint64(nsamples), uint64(len(values))))
	for k, ok := range observed {
		if !ok {
			values[k] = rng.NormFloat64() * sigma
		}
	}
}

// RunningMedian returns the median of each centered window, clipped at the ends.
func RunningMedian(values []float64, window int) []float64 {
	half := max(window, 1) / 2
	out := make([]float64, len(values))
	for i := range values {
		lo, hi := max(i-half, 0), min(i+half+1, len(values))
		out[i] = median(values[lo:hi])
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mad(values []float64, center float64) float64 {
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - center)
	}
	return median(dev)
}
