package lcio

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/huangsam/acfperiod/schema"
)

// SynthOptions describes a synthetic sinusoidal light curve.
type SynthOptions struct {
	Name        string
	Period      float64
	Cadence     float64
	Points      int
	Amplitude   float64
	Offset      float64
	Noise       float64 // standard deviation of the Gaussian noise
	GapFraction float64 // probability that a sample is dropped
	Seed        uint64
}

// DefaultSynthOptions returns the options used by the synth command.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Name:      "synthetic",
		Period:    5.0,
		Cadence:   0.1,
		Points:    1000,
		Amplitude: 1.0,
		Seed:      1,
	}
}

// Validate checks the options for a usable light curve.
func (o SynthOptions) Validate() error {
	var errs []error
	if !(o.Period > 0) {
		errs = append(errs, fmt.Errorf("period must be positive, got %v", o.Period))
	}
	if !(o.Cadence > 0) {
		errs = append(errs, fmt.Errorf("cadence must be positive, got %v", o.Cadence))
	}
	if o.Points < 1 {
		errs = append(errs, fmt.Errorf("points must be at least 1, got %d", o.Points))
	}
	if o.Noise < 0 || math.IsNaN(o.Noise) {
		errs = append(errs, fmt.Errorf("noise must be non-negative, got %v", o.Noise))
	}
	if o.GapFraction < 0 || o.GapFraction >= 1 || math.IsNaN(o.GapFraction) {
		errs = append(errs, fmt.Errorf("gap fraction must be in [0, 1), got %v", o.GapFraction))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", schema.ErrInvalidConfig, err)
	}
	return nil
}

// Generate builds offset + amplitude*sin(2*pi*t/period) sampled every cadence,
// with optional Gaussian noise and randomly dropped samples.
// The same options always give the same series.
func Generate(opts SynthOptions) (schema.TimeSeries, error) {
	if err := opts.Validate(); err != nil {
		return schema.TimeSeries{}, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	ts := schema.TimeSeries{
		Name:   opts.Name,
		Times:  make([]float64, 0, opts.Points),
		Values: make([]float64, 0, opts.Points),
		Errors: make([]float64, 0, opts.Points),
	}

	for i := range opts.Points {
		t := float64(i) * opts.Cadence
		v := opts.Offset + opts.Amplitude*math.Sin(2*math.Pi*t/opts.Period)
		if opts.Noise > 0 {
			v += rng.NormFloat64() * opts.Noise
		}
		// Draw even when gaps are off so the noise stream does not depend on GapFraction
		drop := rng.Float64() < opts.GapFraction
		if drop {
			continue
		}
		ts.Times = append(ts.Times, t)
		ts.Values = append(ts.Values, v)
		ts.Errors = append(ts.Errors, opts.Noise)
	}

	if ts.Len() < 2 {
		return schema.TimeSeries{}, fmt.Errorf("%w: only %d samples survived the gaps", schema.ErrInsufficientData, ts.Len())
	}
	return ts, nil
}
